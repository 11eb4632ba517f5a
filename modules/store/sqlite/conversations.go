package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/figmenta/copilot/internal/memory"
)

// conversationStore implements memory.ConversationStore backed by the
// conversations table. Messages are stored as a JSON array alongside
// the running summary so a restarted bot can rehydrate its window.
type conversationStore struct {
	db *sql.DB
}

// Get returns the record for the given channel.
func (s *conversationStore) Get(ctx context.Context, channelID string) (memory.ConversationRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT channel_id, channel_name, running_summary, message_count, messages, last_message_at, updated_at
		FROM conversations
		WHERE channel_id = ?`,
		channelID,
	)

	rec, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return memory.ConversationRecord{}, false, nil
	}
	if err != nil {
		return memory.ConversationRecord{}, false, err
	}
	return rec, true, nil
}

// Upsert inserts or replaces the record keyed by its ChannelID.
func (s *conversationStore) Upsert(ctx context.Context, rec memory.ConversationRecord) error {
	messages, err := json.Marshal(rec.Messages)
	if err != nil {
		return fmt.Errorf("sqlite: marshal messages: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (channel_id, channel_name, running_summary, message_count, messages, last_message_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET
			channel_name    = excluded.channel_name,
			running_summary = excluded.running_summary,
			message_count   = excluded.message_count,
			messages        = excluded.messages,
			last_message_at = excluded.last_message_at,
			updated_at      = excluded.updated_at`,
		rec.ChannelID, rec.ChannelName, rec.RunningSummary, rec.MessageCount,
		string(messages), formatTime(rec.LastMessageAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert conversation: %w", err)
	}
	return nil
}

// Delete removes the record for the given channel. Deleting an absent
// record is a no-op.
func (s *conversationStore) Delete(ctx context.Context, channelID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE channel_id = ?", channelID); err != nil {
		return fmt.Errorf("sqlite: delete conversation: %w", err)
	}
	return nil
}

// DeleteAll removes every conversation record.
func (s *conversationStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM conversations"); err != nil {
		return fmt.Errorf("sqlite: delete conversations: %w", err)
	}
	return nil
}

// List returns all records ordered by most recent update first.
func (s *conversationStore) List(ctx context.Context) ([]memory.ConversationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id, channel_name, running_summary, message_count, messages, last_message_at, updated_at
		FROM conversations
		ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []memory.ConversationRecord
	for rows.Next() {
		rec, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list conversation rows: %w", err)
	}
	return recs, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanConversation(row scanner) (memory.ConversationRecord, error) {
	var (
		rec           memory.ConversationRecord
		messages      string
		lastMessageAt string
		updatedAt     string
	)
	err := row.Scan(&rec.ChannelID, &rec.ChannelName, &rec.RunningSummary,
		&rec.MessageCount, &messages, &lastMessageAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return memory.ConversationRecord{}, err
		}
		return memory.ConversationRecord{}, fmt.Errorf("sqlite: scan conversation: %w", err)
	}

	if err := json.Unmarshal([]byte(messages), &rec.Messages); err != nil {
		return memory.ConversationRecord{}, fmt.Errorf("sqlite: unmarshal messages: %w", err)
	}
	rec.LastMessageAt = parseTime(lastMessageAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return rec, nil
}

// formatTime renders a timestamp for storage. Zero times map to the
// empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime is the inverse of formatTime. Unparseable values map to
// the zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
