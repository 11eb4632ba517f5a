// Package discord implements the channel.discord module: a Discord bot
// connection built on the v10 REST API and the gateway websocket.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/figmenta/copilot/internal/channel"
	"github.com/figmenta/copilot/internal/core"
	"github.com/figmenta/copilot/pkg/message"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Discord{})
}

// Compile-time interface guards.
var (
	_ channel.Channel       = (*Discord)(nil)
	_ channel.TypingChannel = (*Discord)(nil)
	_ core.Module           = (*Discord)(nil)
	_ core.Configurable     = (*Discord)(nil)
	_ core.Provisioner      = (*Discord)(nil)
	_ core.Validator        = (*Discord)(nil)
	_ core.Starter          = (*Discord)(nil)
	_ core.Stopper          = (*Discord)(nil)
)

// Discord bridges a Discord bot account to the router: the gateway
// websocket feeds inbound messages, the REST client carries replies.
type Discord struct {
	config Config
	client *Client
	logger *slog.Logger

	allowList *channel.AllowList
	inbox     func(msg message.InboundMessage) error

	mu      sync.Mutex
	botUser User
	seq     atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
}

// ModuleInfo implements core.Module.
func (d *Discord) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "channel.discord",
		New: func() core.Module { return &Discord{} },
	}
}

// Configure implements core.Configurable.
func (d *Discord) Configure(node *yaml.Node) error {
	if err := node.Decode(&d.config); err != nil {
		return err
	}
	d.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (d *Discord) Provision(ctx *core.AppContext) error {
	d.logger = ctx.Logger
	d.client = NewClient(d.config.Token, d.config.APIURL)
	d.allowList = channel.NewAllowList(d.config.AllowedChannels)
	return nil
}

// Validate implements core.Validator.
func (d *Discord) Validate() error {
	if d.config.Token == "" {
		return errors.New("channel.discord: token is required")
	}
	return d.config.validate()
}

// AllowList returns the channel eligibility rules built from the
// module's allowed_channels setting. The router consults it per
// message.
func (d *Discord) AllowList() *channel.AllowList {
	return d.allowList
}

// SetInbox implements channel.Channel.
func (d *Discord) SetInbox(fn func(msg message.InboundMessage) error) {
	d.inbox = fn
}

// Start implements core.Starter. It verifies the token against the
// REST API, then runs the gateway session in the background.
func (d *Discord) Start() error {
	if d.inbox == nil {
		return errors.New("channel.discord: no inbox set, channel is not bound to a router")
	}

	me, err := d.client.GetMe(context.Background())
	if err != nil {
		return fmt.Errorf("channel.discord: token check failed: %w", err)
	}
	d.mu.Lock()
	d.botUser = *me
	d.mu.Unlock()

	d.logger.Info("discord channel starting",
		"bot", me.Username,
		"intents", d.config.Intents,
	)

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		d.runGateway(ctx)
	}()
	return nil
}

// Stop implements core.Stopper.
func (d *Discord) Stop(ctx context.Context) error {
	if d.cancel == nil {
		return nil
	}
	d.cancel()
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send implements channel.Channel. Content longer than the platform
// limit is split here as a last line of defense; the reply reference
// is attached to the first chunk only.
func (d *Discord) Send(ctx context.Context, msg message.OutboundMessage) error {
	chunks := channel.SplitText(msg.Content, d.config.MaxMessageLength)
	replyTo := msg.ReplyToID
	for _, chunk := range chunks {
		if _, err := d.client.CreateMessage(ctx, msg.Chat.ID, chunk, replyTo); err != nil {
			return fmt.Errorf("channel.discord: send to %s: %w", msg.Chat.ID, err)
		}
		replyTo = ""
	}
	return nil
}

// Typing implements channel.TypingChannel.
func (d *Discord) Typing(ctx context.Context, chat message.Chat) error {
	return d.client.TriggerTyping(ctx, chat.ID)
}
