// Package providertest provides a scripted Provider mock for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/figmenta/copilot/internal/provider"
)

// Mock is a scripted provider.Provider implementation. Each call to
// GenerateContent consumes the next queued reply. When the script is
// exhausted the last reply repeats. Safe for concurrent use.
type Mock struct {
	mu      sync.Mutex
	replies []Reply
	idx     int

	// Prompts records every prompt received, in call order.
	Prompts []string
}

// Reply is one scripted response.
type Reply struct {
	Text string
	Err  error
}

// Compile-time interface check.
var _ provider.Provider = (*Mock)(nil)

// NewMock creates a mock that plays back the given replies in order.
func NewMock(replies ...Reply) *Mock {
	return &Mock{replies: replies}
}

// GenerateContent returns the next scripted reply.
func (m *Mock) GenerateContent(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)

	if len(m.replies) == 0 {
		return "", provider.ErrEmptyCompletion
	}
	r := m.replies[m.idx]
	if m.idx < len(m.replies)-1 {
		m.idx++
	}
	return r.Text, r.Err
}

// ModelName implements provider.Provider.
func (m *Mock) ModelName() string {
	return "mock"
}

// Calls returns the number of GenerateContent invocations so far.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
