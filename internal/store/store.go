// Package store defines the durable-store contracts for bot
// configuration, knowledge documents, and bot status. Conversation
// persistence lives in package memory, next to the cache it backs.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// BotConfig is the singleton configuration record surfaced to the
// admin console. The response pipeline reads SystemInstructions only;
// AllowedChannels is enforced at the channel boundary.
type BotConfig struct {
	ID                 string    `json:"id"`
	BotName            string    `json:"bot_name"`
	Personality        string    `json:"personality"`
	ResponseStyle      string    `json:"response_style"`
	SystemInstructions string    `json:"system_instructions"`
	AllowedChannels    []string  `json:"allowed_channels"`
	MaxContextMessages int       `json:"max_context_messages"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// KnowledgeDoc is a document in the admin-managed knowledge base.
type KnowledgeDoc struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// BotStatus is the heartbeat record the admin console polls.
type BotStatus struct {
	Online          bool      `json:"online"`
	LastHeartbeat   time.Time `json:"last_heartbeat"`
	MessagesHandled int64     `json:"total_messages_processed"`
	ActiveChannels  int       `json:"active_channels"`
}

// ConfigStore reads and writes the singleton bot configuration.
// Implementations must be safe for concurrent use.
type ConfigStore interface {
	// GetConfig returns the singleton record, or ErrNotFound when none
	// has been saved yet.
	GetConfig(ctx context.Context) (BotConfig, error)

	// SaveConfig inserts or replaces the singleton record.
	SaveConfig(ctx context.Context, cfg BotConfig) error
}

// KnowledgeStore manages knowledge base documents (admin console only).
type KnowledgeStore interface {
	ListDocs(ctx context.Context) ([]KnowledgeDoc, error)
	AddDoc(ctx context.Context, doc KnowledgeDoc) error
	DeleteDoc(ctx context.Context, id string) error
}

// StatusStore records periodic bot heartbeats.
type StatusStore interface {
	UpsertStatus(ctx context.Context, status BotStatus) error
	GetStatus(ctx context.Context) (BotStatus, error)
}
