package message

import (
	"encoding/json"
	"time"
)

// InboundMessage represents a message received from a channel.
type InboundMessage struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Channel     string          `json:"channel"`
	Sender      Sender          `json:"sender"`
	Chat        Chat            `json:"chat"`
	Content     string          `json:"content"`
	ReplyToID   string          `json:"reply_to_id,omitempty"`
	IsMentioned bool            `json:"is_mentioned,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// IsDirectMessage reports whether the message is a direct message.
func (m *InboundMessage) IsDirectMessage() bool {
	return m.Chat.IsDirectMessage()
}
