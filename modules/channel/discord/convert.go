package discord

import (
	"regexp"
	"strings"
	"time"

	"github.com/figmenta/copilot/pkg/message"
)

// mentionPattern matches user mention tokens like <@123> and <@!123>.
var mentionPattern = regexp.MustCompile(`<@!?\d+>`)

// toInbound converts a MESSAGE_CREATE event into the platform-agnostic
// inbound form. Mention tokens are stripped from the content; whether
// the bot itself was mentioned is recorded separately.
func toInbound(msg Message, botID, channelName string) message.InboundMessage {
	mentioned := false
	for _, m := range msg.Mentions {
		if m.ID == botID {
			mentioned = true
			break
		}
	}

	content := strings.TrimSpace(mentionPattern.ReplaceAllString(msg.Content, ""))

	chatType := message.ChatGuild
	if msg.GuildID == "" {
		chatType = message.ChatDM
	}

	ts, err := time.Parse(time.RFC3339, msg.Timestamp)
	if err != nil {
		ts = time.Now()
	}

	return message.InboundMessage{
		ID:        msg.ID,
		Timestamp: ts,
		Channel:   channelName,
		Sender: message.Sender{
			ID:          msg.Author.ID,
			Username:    msg.Author.Username,
			DisplayName: msg.Author.GlobalName,
			IsBot:       msg.Author.Bot,
		},
		Chat: message.Chat{
			ID:   msg.ChannelID,
			Type: chatType,
		},
		Content:     content,
		IsMentioned: mentioned,
	}
}
