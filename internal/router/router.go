// Package router binds channels to the responder. It receives inbound
// messages from registered channels, applies per-channel eligibility
// rules, handles chat commands, and dispatches generated replies back
// through the owning channel in platform-sized chunks.
package router

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/figmenta/copilot/internal/channel"
	"github.com/figmenta/copilot/internal/memory"
	"github.com/figmenta/copilot/internal/metrics"
	"github.com/figmenta/copilot/internal/store"
	"github.com/figmenta/copilot/pkg/message"
)

// defaultMaxChunkSize matches Discord's per-message content limit.
const defaultMaxChunkSize = 2000

// greeting is sent when a message is empty after mention stripping.
const greeting = "Hello! How can you help me?"

// ResponseGenerator produces a reply for an inbound user message.
// Implementations never fail outward; on provider errors they return a
// fallback reply.
type ResponseGenerator interface {
	Generate(ctx context.Context, channelID, userMessage, userName, channelName string) string
}

// ResponseSender delivers an outbound message to its channel.
type ResponseSender interface {
	Send(ctx context.Context, msg message.OutboundMessage) error
}

// Config holds the collaborators for a Router.
type Config struct {
	Generator ResponseGenerator
	Manager   *memory.Manager
	Sender    ResponseSender

	// Configs, when non-nil, supplies the bot name shown by the status
	// command. Nil falls back to the default name.
	Configs store.ConfigStore

	// Metrics, when non-nil, counts handled messages.
	Metrics *metrics.Metrics

	// MaxChunkSize caps outbound chunk length. Zero means the Discord
	// default of 2000.
	MaxChunkSize int

	Logger *slog.Logger
}

// withDefaults returns a copy of the config with zero values replaced
// by defaults.
func (c Config) withDefaults() Config {
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = defaultMaxChunkSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

type boundChannel struct {
	ch    channel.Channel
	allow *channel.AllowList
}

// Router is the central dispatch layer between channels and the
// responder. Each accepted message is handled on its own goroutine;
// ordering across messages in one channel is not enforced.
type Router struct {
	cfg       Config
	startedAt time.Time

	mu       sync.RWMutex
	channels map[string]boundChannel

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopped  atomic.Bool
	stopOnce sync.Once
}

// NewRouter creates a Router with the given configuration.
func NewRouter(cfg Config) (*Router, error) {
	cfg = cfg.withDefaults()

	if cfg.Generator == nil {
		return nil, ErrNoGenerator
	}
	if cfg.Manager == nil {
		return nil, ErrNoManager
	}
	if cfg.Sender == nil {
		return nil, ErrNoSender
	}

	return &Router{
		cfg:      cfg,
		channels: make(map[string]boundChannel),
	}, nil
}

// Bind registers a channel under the given name and wires its inbox to
// the router. The allow list may be nil, in which case the channel only
// answers mentions and direct messages.
func (r *Router) Bind(name string, ch channel.Channel, allow *channel.AllowList) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[name]; exists {
		return channel.ErrDuplicateChannel
	}
	r.channels[name] = boundChannel{ch: ch, allow: allow}
	ch.SetInbox(r.Submit)
	return nil
}

// Start marks the router as serving. The context bounds every handler
// spawned afterwards.
func (r *Router) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.startedAt = time.Now()
	r.cfg.Logger.Info("router: started", "channels", len(r.channels))
}

// Stop rejects new messages and waits for in-flight handlers to finish.
func (r *Router) Stop(_ context.Context) {
	r.stopOnce.Do(func() {
		// The write lock fences against Submit: every accepted message
		// has joined the WaitGroup before this store becomes visible,
		// so Wait covers all in-flight handlers.
		r.mu.Lock()
		r.stopped.Store(true)
		r.mu.Unlock()
		r.wg.Wait()
		if r.cancel != nil {
			r.cancel()
		}
		r.cfg.Logger.Info("router: stopped")
	})
}

// Submit accepts an inbound message for processing. Messages filtered
// out by the channel's allow list are dropped silently; accepted
// messages are handled on their own goroutine.
func (r *Router) Submit(msg message.InboundMessage) error {
	// The stopped check and the WaitGroup join stay under the same read
	// lock so Stop cannot slip between them and return while a handler
	// is still being spawned.
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped.Load() {
		return ErrRouterStopped
	}

	bound, ok := r.channels[msg.Channel]
	if !ok {
		return channel.ErrNoChannel
	}

	if !bound.allow.ShouldRespond(msg) {
		r.cfg.Logger.Debug("router: message filtered",
			"channel", msg.Channel,
			"chat_id", msg.Chat.ID,
		)
		return nil
	}

	if r.cfg.Metrics != nil {
		r.cfg.Metrics.RecordMessage()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.handle(r.handlerContext(), bound, msg)
	}()
	return nil
}

func (r *Router) handlerContext() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// handle runs the per-message pipeline: commands, typing indicator,
// response generation, chunked dispatch.
func (r *Router) handle(ctx context.Context, bound boundChannel, msg message.InboundMessage) {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		content = greeting
	}

	if reply, handled := r.handleCommand(ctx, msg, content); handled {
		r.reply(ctx, msg, reply)
		return
	}

	if tc, ok := bound.ch.(channel.TypingChannel); ok {
		if err := tc.Typing(ctx, msg.Chat); err != nil {
			r.cfg.Logger.Debug("router: typing indicator failed", "error", err)
		}
	}

	userName := senderName(msg.Sender)
	channelName := msg.Chat.Title
	if channelName == "" {
		if msg.IsDirectMessage() {
			channelName = "dm"
		} else {
			channelName = msg.Chat.ID
		}
	}

	response := r.cfg.Generator.Generate(ctx, msg.Chat.ID, content, userName, channelName)
	r.reply(ctx, msg, response)
}

// reply sends text back to the message's chat, splitting it into
// platform-sized chunks. Only the first chunk carries the reply
// reference.
func (r *Router) reply(ctx context.Context, msg message.InboundMessage, text string) {
	out := message.OutboundMessage{
		Channel:   msg.Channel,
		Chat:      msg.Chat,
		ReplyToID: msg.ID,
		Content:   text,
	}
	for _, chunk := range channel.SplitMessage(out, r.cfg.MaxChunkSize) {
		if err := r.cfg.Sender.Send(ctx, chunk); err != nil {
			r.cfg.Logger.Error("router: failed to send response",
				"channel", msg.Channel,
				"chat_id", msg.Chat.ID,
				"error", err,
			)
			return
		}
	}
}

func senderName(s message.Sender) string {
	switch {
	case s.Username != "":
		return s.Username
	case s.DisplayName != "":
		return s.DisplayName
	default:
		return s.ID
	}
}
