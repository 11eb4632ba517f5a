package message

// OutboundMessage represents a message to be sent through a channel.
type OutboundMessage struct {
	Channel   string `json:"channel"`
	Chat      Chat   `json:"chat"`
	ReplyToID string `json:"reply_to_id,omitempty"`
	Content   string `json:"content"`
}

// NewTextMessage creates an outbound message addressed to the given chat.
func NewTextMessage(channel string, chat Chat, text string) OutboundMessage {
	return OutboundMessage{
		Channel: channel,
		Chat:    chat,
		Content: text,
	}
}
