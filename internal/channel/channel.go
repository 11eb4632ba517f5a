// Package channel defines the bridge between messaging platforms and
// the router: the Channel interface, outbound message chunking, and
// channel eligibility filtering.
package channel

import (
	"context"

	"github.com/figmenta/copilot/internal/core"
	"github.com/figmenta/copilot/pkg/message"
)

// Channel is the bridge between a messaging platform and the router.
// Every concrete channel (Discord, etc.) must implement this interface.
//
// A channel receives events from its platform, applies its eligibility
// rules, and pushes messages to the router via the inbox callback. It
// also receives outbound messages from the router via Send().
type Channel interface {
	core.Module

	// Send delivers an outbound message to the platform. Content is
	// assumed to already respect the platform's size limit; callers
	// split oversized text with SplitText first.
	Send(ctx context.Context, msg message.OutboundMessage) error

	// SetInbox gives the channel a function to push inbound messages to
	// the router. The router calls this during wiring, before Start().
	SetInbox(fn func(msg message.InboundMessage) error)
}

// TypingChannel is optionally implemented by channels that can show a
// typing indicator while a reply is being generated.
type TypingChannel interface {
	// Typing signals that the bot is composing a reply in the chat.
	Typing(ctx context.Context, chat message.Chat) error
}
