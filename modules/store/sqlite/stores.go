package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/figmenta/copilot/internal/store"
)

// botConfigID keys the singleton configuration row.
const botConfigID = "default"

// configStore implements store.ConfigStore.
type configStore struct {
	db *sql.DB
}

// GetConfig returns the singleton configuration record.
func (s *configStore) GetConfig(ctx context.Context) (store.BotConfig, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, bot_name, personality, response_style, system_instructions, allowed_channels, max_context_messages, updated_at
		FROM bot_config
		WHERE id = ?`,
		botConfigID,
	)

	var (
		cfg             store.BotConfig
		allowedChannels string
		updatedAt       string
	)
	err := row.Scan(&cfg.ID, &cfg.BotName, &cfg.Personality, &cfg.ResponseStyle,
		&cfg.SystemInstructions, &allowedChannels, &cfg.MaxContextMessages, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.BotConfig{}, store.ErrNotFound
	}
	if err != nil {
		return store.BotConfig{}, fmt.Errorf("sqlite: get config: %w", err)
	}

	if err := json.Unmarshal([]byte(allowedChannels), &cfg.AllowedChannels); err != nil {
		return store.BotConfig{}, fmt.Errorf("sqlite: unmarshal allowed_channels: %w", err)
	}
	cfg.UpdatedAt = parseTime(updatedAt)
	return cfg, nil
}

// SaveConfig inserts or replaces the singleton configuration record.
func (s *configStore) SaveConfig(ctx context.Context, cfg store.BotConfig) error {
	allowedChannels, err := json.Marshal(cfg.AllowedChannels)
	if err != nil {
		return fmt.Errorf("sqlite: marshal allowed_channels: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bot_config (id, bot_name, personality, response_style, system_instructions, allowed_channels, max_context_messages, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			bot_name             = excluded.bot_name,
			personality          = excluded.personality,
			response_style       = excluded.response_style,
			system_instructions  = excluded.system_instructions,
			allowed_channels     = excluded.allowed_channels,
			max_context_messages = excluded.max_context_messages,
			updated_at           = excluded.updated_at`,
		botConfigID, cfg.BotName, cfg.Personality, cfg.ResponseStyle,
		cfg.SystemInstructions, string(allowedChannels), cfg.MaxContextMessages,
		formatTime(cfg.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save config: %w", err)
	}
	return nil
}

// knowledgeStore implements store.KnowledgeStore.
type knowledgeStore struct {
	db *sql.DB
}

// ListDocs returns every knowledge document, newest first.
func (s *knowledgeStore) ListDocs(ctx context.Context) ([]store.KnowledgeDoc, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, created_at
		FROM knowledge_docs
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []store.KnowledgeDoc
	for rows.Next() {
		var (
			doc       store.KnowledgeDoc
			createdAt string
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan document: %w", err)
		}
		doc.CreatedAt = parseTime(createdAt)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list document rows: %w", err)
	}
	return docs, nil
}

// AddDoc inserts a knowledge document.
func (s *knowledgeStore) AddDoc(ctx context.Context, doc store.KnowledgeDoc) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO knowledge_docs (id, title, content, created_at)
		VALUES (?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Content, formatTime(doc.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: add document: %w", err)
	}
	return nil
}

// DeleteDoc removes a knowledge document by ID. Returns ErrNotFound
// when no document matches.
func (s *knowledgeStore) DeleteDoc(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM knowledge_docs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlite: delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// statusStore implements store.StatusStore with a single fixed row.
type statusStore struct {
	db *sql.DB
}

// UpsertStatus replaces the heartbeat row.
func (s *statusStore) UpsertStatus(ctx context.Context, status store.BotStatus) error {
	online := 0
	if status.Online {
		online = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bot_status (id, online, last_heartbeat, total_messages_processed, active_channels)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			online                   = excluded.online,
			last_heartbeat           = excluded.last_heartbeat,
			total_messages_processed = excluded.total_messages_processed,
			active_channels          = excluded.active_channels`,
		online, formatTime(status.LastHeartbeat), status.MessagesHandled, status.ActiveChannels,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert status: %w", err)
	}
	return nil
}

// GetStatus returns the heartbeat row, or ErrNotFound before the first
// heartbeat.
func (s *statusStore) GetStatus(ctx context.Context) (store.BotStatus, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT online, last_heartbeat, total_messages_processed, active_channels
		FROM bot_status
		WHERE id = 1`,
	)

	var (
		status        store.BotStatus
		online        int
		lastHeartbeat string
	)
	err := row.Scan(&online, &lastHeartbeat, &status.MessagesHandled, &status.ActiveChannels)
	if errors.Is(err, sql.ErrNoRows) {
		return store.BotStatus{}, store.ErrNotFound
	}
	if err != nil {
		return store.BotStatus{}, fmt.Errorf("sqlite: get status: %w", err)
	}

	status.Online = online != 0
	status.LastHeartbeat = parseTime(lastHeartbeat)
	return status, nil
}
