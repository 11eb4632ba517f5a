// Package responder composes prompts from channel memory and system
// instructions, invokes the model provider, and applies the memory
// update and summarization policy after each reply.
package responder

import (
	"context"
	"log/slog"
	"time"

	"github.com/figmenta/copilot/internal/memory"
	"github.com/figmenta/copilot/internal/metrics"
	"github.com/figmenta/copilot/internal/provider"
	"github.com/figmenta/copilot/internal/store"
)

const (
	// contextMessages is how many trailing messages go verbatim into a
	// generation prompt, independent of the memory window cap.
	contextMessages = 10

	// summaryInterval regenerates the running summary every time the
	// post-append message count crosses a multiple of this value.
	summaryInterval = 5

	// botAuthor is the display name attached to assistant messages.
	botAuthor = "Bot"
)

// fallbackResponse is returned whenever the model call fails. Failures
// never surface to the end user as errors.
const fallbackResponse = "I'm having trouble processing that request. Please try again!"

// Responder generates replies for inbound chat messages.
type Responder struct {
	manager  *memory.Manager
	provider provider.Provider
	configs  store.ConfigStore
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures optional Responder behavior.
type Option func(*Responder)

// WithConfigStore injects the durable config backend used to resolve
// system instructions. Nil or omitted means the built-in default
// instructions are always used.
func WithConfigStore(s store.ConfigStore) Option {
	return func(r *Responder) { r.configs = s }
}

// WithMetrics injects pipeline counters. Nil or omitted disables them.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Responder) { r.metrics = m }
}

// WithLogger injects a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Responder) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Responder over the given memory manager and provider.
func New(manager *memory.Manager, p provider.Provider, opts ...Option) *Responder {
	r := &Responder{
		manager:  manager,
		provider: p,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate produces a reply for a user message in a channel. It never
// returns an error: model failures degrade to a fixed fallback text and
// leave memory untouched; store failures degrade to memory-only
// operation. On success the user message and the reply are both
// appended to memory, and the running summary is regenerated whenever
// the post-append message count is a multiple of the summary interval.
func (r *Responder) Generate(ctx context.Context, channelID, userMessage, userName, channelName string) string {
	mem := r.manager.GetOrCreate(ctx, channelID)
	instructions := r.systemInstructions(ctx)
	prompt := buildPrompt(instructions, mem.Messages, userName, userMessage)

	start := time.Now()
	text, err := r.provider.GenerateContent(ctx, prompt)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordError()
		}
		r.logger.Error("responder: generation failed",
			"channel_id", channelID,
			"model", r.provider.ModelName(),
			"error", err,
		)
		return fallbackResponse
	}
	if r.metrics != nil {
		r.metrics.RecordCompletion(time.Since(start))
	}

	r.remember(ctx, channelID, memory.RoleUser, userMessage, userName, channelName)
	r.remember(ctx, channelID, memory.RoleAssistant, text, botAuthor, channelName)

	// The summary cadence is evaluated against the post-append count,
	// so a reply lands on the boundary at most once.
	if n := r.manager.Len(channelID); n >= summaryInterval && n%summaryInterval == 0 {
		r.summarize(ctx, channelID)
	}

	return text
}

// remember appends to memory, logging (but not propagating) a failed
// durable write. Chat function never blocks on the store.
func (r *Responder) remember(ctx context.Context, channelID string, role memory.Role, content, author, channelName string) {
	if err := r.manager.Append(ctx, channelID, role, content, author, channelName); err != nil {
		if r.metrics != nil {
			r.metrics.RecordPersistFailure()
		}
		r.logger.Warn("responder: memory persist failed",
			"channel_id", channelID,
			"role", string(role),
			"error", err,
		)
	}
}

// systemInstructions resolves the active instructions from the config
// store, falling back to the built-in default on any error or absence.
func (r *Responder) systemInstructions(ctx context.Context) string {
	if r.configs == nil {
		return DefaultSystemInstructions
	}
	cfg, err := r.configs.GetConfig(ctx)
	if err != nil {
		r.logger.Debug("responder: config fetch failed, using defaults", "error", err)
		return DefaultSystemInstructions
	}
	if cfg.SystemInstructions == "" {
		return DefaultSystemInstructions
	}
	return cfg.SystemInstructions
}
