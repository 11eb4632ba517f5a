package router

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/figmenta/copilot/internal/memory"
)

func TestRouter_ClearCommand(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "never"}
	r, ch := testRouter(t, gen)

	ctx := context.Background()
	if err := r.cfg.Manager.Append(ctx, "c1", memory.RoleUser, "hello", "alice", "general"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := ch.Deliver(guildMessage("m1", "!clear")); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	r.Stop(ctx)

	if got := len(gen.Calls()); got != 0 {
		t.Errorf("generator calls = %d, want 0", got)
	}
	sent := ch.Sent()
	if len(sent) != 1 || sent[0].Content != clearConfirmation {
		t.Fatalf("sent = %+v, want single clear confirmation", sent)
	}
	if got := r.cfg.Manager.Len("c1"); got != 0 {
		t.Errorf("memory length after clear = %d, want 0", got)
	}
}

func TestRouter_ClearCommandCaseInsensitive(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "never"}
	r, ch := testRouter(t, gen)

	if err := ch.Deliver(guildMessage("m1", "Clear Memory")); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	r.Stop(context.Background())

	sent := ch.Sent()
	if len(sent) != 1 || sent[0].Content != clearConfirmation {
		t.Fatalf("sent = %+v, want single clear confirmation", sent)
	}
}

func TestRouter_StatusCommandWithoutHistory(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "never"}
	r, ch := testRouter(t, gen)

	if err := ch.Deliver(guildMessage("m1", "!status")); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	r.Stop(context.Background())

	sent := ch.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(sent))
	}
	status := sent[0].Content
	if !strings.Contains(status, defaultBotName) {
		t.Errorf("status %q does not mention bot name", status)
	}
	if !strings.Contains(status, "• Uptime: ") {
		t.Errorf("status %q does not mention uptime", status)
	}
	if !strings.Contains(status, "No conversation history yet") {
		t.Errorf("status %q does not report missing history", status)
	}
}

func TestRouter_StatusCommandWithHistory(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "never"}
	r, ch := testRouter(t, gen)

	ctx := context.Background()
	for _, content := range []string{"first", "second"} {
		if err := r.cfg.Manager.Append(ctx, "c1", memory.RoleUser, content, "alice", "general"); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	r.cfg.Manager.SetSummary("c1", strings.Repeat("s", 300))

	if err := ch.Deliver(guildMessage("m1", "status")); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	r.Stop(ctx)

	sent := ch.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(sent))
	}
	status := sent[0].Content
	if !strings.Contains(status, "This channel: 2 messages in memory") {
		t.Errorf("status %q does not report message count", status)
	}
	want := "• Summary: " + strings.Repeat("s", summaryExcerptLen) + "..."
	if !strings.Contains(status, want) {
		t.Errorf("status %q does not contain truncated summary excerpt", status)
	}
}

func TestFormatUptime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{500 * time.Millisecond, "0s"},
		{42 * time.Second, "42s"},
		{3 * time.Minute, "3m"},
		{90 * time.Second, "1m 30s"},
		{26*time.Hour + 5*time.Minute, "1d 2h 5m"},
		{49*time.Hour + 61*time.Second, "2d 1h 1m 1s"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestRouter_StatusCommandSummaryRuneBoundary(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "never"}
	r, ch := testRouter(t, gen)

	ctx := context.Background()
	if err := r.cfg.Manager.Append(ctx, "c1", memory.RoleUser, "hello", "alice", "general"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	r.cfg.Manager.SetSummary("c1", strings.Repeat("é", summaryExcerptLen+50))

	if err := ch.Deliver(guildMessage("m1", "!status")); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	r.Stop(ctx)

	sent := ch.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(sent))
	}
	status := sent[0].Content
	if !utf8.ValidString(status) {
		t.Fatalf("status reply is not valid UTF-8: %q", status)
	}
	want := "• Summary: " + strings.Repeat("é", summaryExcerptLen) + "..."
	if !strings.Contains(status, want) {
		t.Errorf("status %q missing rune-bounded summary excerpt", status)
	}
}
