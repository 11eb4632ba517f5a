package channel

import (
	"context"
	"sync"

	"github.com/figmenta/copilot/internal/core"
	"github.com/figmenta/copilot/pkg/message"
)

// MockChannel is a test double recording everything sent through it.
type MockChannel struct {
	mu     sync.Mutex
	sent   []message.OutboundMessage
	typing int
	inbox  func(message.InboundMessage) error

	// SendErr, when non-nil, is returned by every Send call.
	SendErr error
}

// Compile-time interface checks.
var (
	_ Channel       = (*MockChannel)(nil)
	_ TypingChannel = (*MockChannel)(nil)
)

// NewMockChannel creates an empty MockChannel.
func NewMockChannel() *MockChannel {
	return &MockChannel{}
}

// ModuleInfo implements core.Module.
func (m *MockChannel) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "channel.mock",
		New: func() core.Module { return NewMockChannel() },
	}
}

// Send records the outbound message.
func (m *MockChannel) Send(_ context.Context, msg message.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

// SetInbox stores the inbox callback.
func (m *MockChannel) SetInbox(fn func(message.InboundMessage) error) {
	m.inbox = fn
}

// Typing records a typing indicator request.
func (m *MockChannel) Typing(context.Context, message.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing++
	return nil
}

// Deliver pushes an inbound message through the stored inbox callback.
func (m *MockChannel) Deliver(msg message.InboundMessage) error {
	return m.inbox(msg)
}

// Sent returns a copy of all messages sent so far.
func (m *MockChannel) Sent() []message.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]message.OutboundMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// TypingCount returns how many typing indicators were requested.
func (m *MockChannel) TypingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.typing
}
