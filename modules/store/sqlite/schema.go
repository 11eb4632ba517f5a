package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS bot_config (
		id                   TEXT PRIMARY KEY,
		bot_name             TEXT    NOT NULL DEFAULT '',
		personality          TEXT    NOT NULL DEFAULT '',
		response_style       TEXT    NOT NULL DEFAULT '',
		system_instructions  TEXT    NOT NULL DEFAULT '',
		allowed_channels     TEXT    NOT NULL DEFAULT '[]',
		max_context_messages INTEGER NOT NULL DEFAULT 10,
		updated_at           TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE TABLE IF NOT EXISTS conversations (
		channel_id      TEXT PRIMARY KEY,
		channel_name    TEXT    NOT NULL DEFAULT '',
		running_summary TEXT    NOT NULL DEFAULT '',
		message_count   INTEGER NOT NULL DEFAULT 0,
		messages        TEXT    NOT NULL DEFAULT '[]',
		last_message_at TEXT    NOT NULL DEFAULT '',
		updated_at      TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at DESC)`,

	`CREATE TABLE IF NOT EXISTS knowledge_docs (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE TABLE IF NOT EXISTS bot_status (
		id                       INTEGER PRIMARY KEY CHECK (id = 1),
		online                   INTEGER NOT NULL DEFAULT 0,
		last_heartbeat           TEXT    NOT NULL DEFAULT '',
		total_messages_processed INTEGER NOT NULL DEFAULT 0,
		active_channels          INTEGER NOT NULL DEFAULT 0
	)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(db *sql.DB) error {
	ctx := context.TODO()

	// Ensure schema_version table exists first.
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
