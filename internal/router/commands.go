package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/figmenta/copilot/pkg/message"
)

const (
	clearConfirmation = "🧹 Memory cleared for this channel!"
	defaultBotName    = "Figmenta Copilot"

	// summaryExcerptLen caps the summary shown by the status command.
	summaryExcerptLen = 200
)

// handleCommand intercepts chat commands before response generation.
// It returns the reply text and true when the content was a command.
func (r *Router) handleCommand(ctx context.Context, msg message.InboundMessage, content string) (string, bool) {
	switch strings.ToLower(content) {
	case "!clear", "clear memory":
		if err := r.cfg.Manager.Clear(ctx, msg.Chat.ID); err != nil {
			r.cfg.Logger.Warn("router: failed to clear durable record",
				"chat_id", msg.Chat.ID,
				"error", err,
			)
		}
		return clearConfirmation, true

	case "!status", "status":
		return r.statusMessage(ctx, msg.Chat.ID), true
	}
	return "", false
}

// statusMessage renders the status command reply: bot identity, uptime,
// active channel count, and this channel's memory state.
func (r *Router) statusMessage(ctx context.Context, channelID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**🤖 %s Status**\n", r.botName(ctx))
	fmt.Fprintf(&b, "• Uptime: %s\n", formatUptime(time.Since(r.startedAt)))
	fmt.Fprintf(&b, "• Active channels: %d\n", r.cfg.Manager.ChannelCount())

	for _, snap := range r.cfg.Manager.ListAll() {
		if snap.ChannelID != channelID {
			continue
		}
		fmt.Fprintf(&b, "• This channel: %d messages in memory", snap.MessageCount)
		if snap.Summary != "" {
			fmt.Fprintf(&b, "\n• Summary: %s...", summaryExcerpt(snap.Summary))
		}
		return b.String()
	}

	b.WriteString("• This channel: No conversation history yet")
	return b.String()
}

// summaryExcerpt caps the summary at summaryExcerptLen runes, cutting
// on a rune boundary so multi-byte characters are never split.
func summaryExcerpt(summary string) string {
	n := summaryExcerptLen
	for i := range summary {
		if n == 0 {
			return summary[:i]
		}
		n--
	}
	return summary
}

func (r *Router) botName(ctx context.Context) string {
	if r.cfg.Configs == nil {
		return defaultBotName
	}
	cfg, err := r.cfg.Configs.GetConfig(ctx)
	if err != nil || cfg.BotName == "" {
		return defaultBotName
	}
	return cfg.BotName
}

// formatUptime renders a duration as compact day/hour/minute/second
// parts, e.g. "1d 3h 2m 5s". Sub-second uptimes render as "0s".
func formatUptime(d time.Duration) string {
	seconds := int(d.Seconds()) % 60
	minutes := int(d.Minutes()) % 60
	hours := int(d.Hours()) % 24
	days := int(d.Hours()) / 24

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}
