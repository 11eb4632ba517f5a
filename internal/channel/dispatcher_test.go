package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/figmenta/copilot/pkg/message"
)

func TestDispatcher_RegisterAndSend(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	ch := NewMockChannel()
	if err := d.Register("channel.discord", ch); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	msg := message.NewTextMessage("channel.discord", message.Chat{ID: "c1", Type: message.ChatGuild}, "hello")
	if err := d.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	sent := ch.Sent()
	if len(sent) != 1 || sent[0].Content != "hello" {
		t.Fatalf("sent = %+v, want one message with content %q", sent, "hello")
	}
}

func TestDispatcher_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	if err := d.Register("channel.discord", NewMockChannel()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	err := d.Register("channel.discord", NewMockChannel())
	if !errors.Is(err, ErrDuplicateChannel) {
		t.Errorf("Register() error = %v, want ErrDuplicateChannel", err)
	}
}

func TestDispatcher_SendUnknownChannel(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	msg := message.NewTextMessage("channel.missing", message.Chat{ID: "c1"}, "hello")
	err := d.Send(context.Background(), msg)
	if !errors.Is(err, ErrNoChannel) {
		t.Errorf("Send() error = %v, want ErrNoChannel", err)
	}
}

func TestDispatcher_SendPropagatesChannelError(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	ch := NewMockChannel()
	ch.SendErr = errors.New("socket closed")
	if err := d.Register("channel.discord", ch); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	msg := message.NewTextMessage("channel.discord", message.Chat{ID: "c1"}, "hello")
	if err := d.Send(context.Background(), msg); err == nil {
		t.Error("Send() error = nil, want channel error")
	}
}

func TestDispatcher_Channels(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	for _, name := range []string{"channel.discord", "channel.mock"} {
		if err := d.Register(name, NewMockChannel()); err != nil {
			t.Fatalf("Register(%q) error = %v", name, err)
		}
	}

	names := d.Channels()
	if len(names) != 2 {
		t.Fatalf("Channels() = %v, want 2 entries", names)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["channel.discord"] || !seen["channel.mock"] {
		t.Errorf("Channels() = %v, missing expected names", names)
	}
}
