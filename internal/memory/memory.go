// Package memory owns the per-channel conversation cache: a bounded
// rolling window of messages with a running summary, hydrated from and
// persisted to a durable conversation store on a best-effort basis.
package memory

import (
	"context"
	"time"
)

// Role identifies the author side of a message.
type Role string

// Role constants for conversation messages.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a channel's conversation window.
// Once appended its content is immutable; only the containing window
// is truncated over time.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Author    string    `json:"author,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChannelMemory is a point-in-time copy of one channel's conversation
// state. The Messages slice is owned by the caller.
type ChannelMemory struct {
	Messages    []Message
	Summary     string
	LastUpdated time.Time
}

// Snapshot is a condensed per-channel view used for status and
// introspection endpoints.
type Snapshot struct {
	ChannelID    string    `json:"channel_id"`
	MessageCount int       `json:"message_count"`
	Summary      string    `json:"summary"`
	LastUpdated  time.Time `json:"last_updated"`
}

// ConversationRecord is the durable replica of a channel's conversation.
type ConversationRecord struct {
	ChannelID      string    `json:"channel_id"`
	ChannelName    string    `json:"channel_name"`
	RunningSummary string    `json:"running_summary"`
	MessageCount   int       `json:"message_count"`
	Messages       []Message `json:"messages"`
	LastMessageAt  time.Time `json:"last_message_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ConversationStore is the durable backend for conversation state.
// Implementations must be safe for concurrent use. A nil store is the
// supported degraded mode: the Manager then runs memory-only.
type ConversationStore interface {
	// Get returns the record for the given channel. The second return
	// value is false when no record exists.
	Get(ctx context.Context, channelID string) (ConversationRecord, bool, error)

	// Upsert inserts or replaces the record keyed by its ChannelID.
	Upsert(ctx context.Context, rec ConversationRecord) error

	// Delete removes the record for the given channel. Deleting an
	// absent record is a no-op.
	Delete(ctx context.Context, channelID string) error

	// DeleteAll removes every conversation record.
	DeleteAll(ctx context.Context) error

	// List returns all records ordered by most recent update first.
	List(ctx context.Context) ([]ConversationRecord, error)
}
