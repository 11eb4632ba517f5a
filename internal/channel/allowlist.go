package channel

import (
	"strings"

	"github.com/figmenta/copilot/pkg/message"
)

// AllowList decides which inbound messages the bot responds to.
// Bot-authored messages are always ignored. Direct messages and
// messages that mention the bot are always answered; anything else is
// answered only when its channel appears in the configured allow list.
// An empty allow list therefore restricts the bot to mentions and DMs.
type AllowList struct {
	channels map[string]struct{}
}

// NewAllowList creates an AllowList with O(1) lookups. IDs are trimmed
// at construction time so ShouldRespond can use direct map lookups.
func NewAllowList(channelIDs []string) *AllowList {
	a := &AllowList{channels: make(map[string]struct{}, len(channelIDs))}
	for _, id := range channelIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			a.channels[id] = struct{}{}
		}
	}
	return a
}

// ShouldRespond reports whether the bot should answer the message.
func (a *AllowList) ShouldRespond(msg message.InboundMessage) bool {
	if msg.Sender.IsBot {
		return false
	}
	if msg.IsMentioned || msg.IsDirectMessage() {
		return true
	}
	if a == nil || len(a.channels) == 0 {
		return false
	}
	_, ok := a.channels[msg.Chat.ID]
	return ok
}
