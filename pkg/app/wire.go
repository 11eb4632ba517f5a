package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/figmenta/copilot/internal/channel"
	"github.com/figmenta/copilot/internal/config"
	"github.com/figmenta/copilot/internal/core"
	"github.com/figmenta/copilot/internal/heartbeat"
	"github.com/figmenta/copilot/internal/memory"
	"github.com/figmenta/copilot/internal/metrics"
	"github.com/figmenta/copilot/internal/provider"
	"github.com/figmenta/copilot/internal/responder"
	"github.com/figmenta/copilot/internal/router"
	"github.com/figmenta/copilot/internal/store"
)

// routerModule wraps a *router.Router to satisfy core.Module,
// core.Starter, and core.Stopper, so the router participates in the
// App lifecycle.
type routerModule struct {
	router *router.Router
}

func (m *routerModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "router"}
}

func (m *routerModule) Start() error {
	m.router.Start(context.Background())
	return nil
}

func (m *routerModule) Stop(ctx context.Context) error {
	m.router.Stop(ctx)
	return nil
}

// heartbeatModule wraps the cron scheduler for the App lifecycle.
type heartbeatModule struct {
	sched *heartbeat.Scheduler
}

func (m *heartbeatModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "heartbeat"}
}

func (m *heartbeatModule) Start() error {
	return m.sched.Start()
}

func (m *heartbeatModule) Stop(ctx context.Context) error {
	return m.sched.Stop(ctx)
}

// allowLister is implemented by channel modules that carry their own
// eligibility rules.
type allowLister interface {
	AllowList() *channel.AllowList
}

// wireBot builds the memory manager, metrics, responder, and router
// over the services registered during module provisioning, binds every
// loaded channel, and appends the hand-wired components to the app
// lifecycle. Must be called after LoadModules and before Start.
func wireBot(
	app *core.App,
	appCtx *core.AppContext,
	cfg *config.Config,
	ids []string,
	logger *slog.Logger,
) error {
	// The durable store is optional: without it the bot runs
	// memory-only and conversations do not survive restarts.
	var convStore memory.ConversationStore
	if svc, ok := appCtx.Service("store.conversations"); ok {
		convStore, _ = svc.(memory.ConversationStore)
	}
	if convStore == nil {
		logger.Warn("no durable store configured, conversations will not survive restarts")
	}

	memOpts := []memory.Option{memory.WithLogger(logger)}
	if cfg.Memory.MaxChannels > 0 {
		memOpts = append(memOpts, memory.WithMaxChannels(cfg.Memory.MaxChannels))
	}
	manager := memory.NewManager(convStore, memOpts...)

	m := metrics.New()

	// Publish for the gateway and other late-resolving modules.
	appCtx.RegisterService("memory.manager", manager)
	appCtx.RegisterService("metrics", m)

	var configStore store.ConfigStore
	if svc, ok := appCtx.Service("store.config"); ok {
		configStore, _ = svc.(store.ConfigStore)
	}

	// Discover channels among the loaded modules.
	dispatcher := channel.NewDispatcher()
	type boundCh struct {
		id string
		ch channel.Channel
	}
	var channels []boundCh
	for _, id := range ids {
		mod, ok := app.Module(id)
		if !ok {
			continue
		}
		ch, ok := mod.(channel.Channel)
		if !ok {
			continue
		}
		// Register under the full module ID (e.g. "channel.discord")
		// because that is what the channel sets as msg.Channel in
		// inbound messages.
		if err := dispatcher.Register(id, ch); err != nil {
			return fmt.Errorf("registering channel %s: %w", id, err)
		}
		channels = append(channels, boundCh{id: id, ch: ch})
		logger.Info("router: registered channel", "channel", id)
	}

	if len(channels) == 0 {
		logger.Info("router: no channels found, skipping router wiring")
		return nil
	}

	var prov provider.Provider
	if svc, ok := appCtx.Service("provider"); ok {
		prov, _ = svc.(provider.Provider)
	}
	if prov == nil {
		return fmt.Errorf("router: a provider module is required when channels are configured")
	}

	respOpts := []responder.Option{
		responder.WithMetrics(m),
		responder.WithLogger(logger),
	}
	if configStore != nil {
		respOpts = append(respOpts, responder.WithConfigStore(configStore))
	}
	resp := responder.New(manager, prov, respOpts...)

	r, err := router.NewRouter(router.Config{
		Generator: resp,
		Manager:   manager,
		Sender:    dispatcher,
		Configs:   configStore,
		Metrics:   m,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating router: %w", err)
	}

	for _, bc := range channels {
		var allow *channel.AllowList
		if al, ok := bc.ch.(allowLister); ok {
			allow = al.AllowList()
		}
		if err := r.Bind(bc.id, bc.ch, allow); err != nil {
			return fmt.Errorf("binding channel %s: %w", bc.id, err)
		}
	}

	app.AppendLifecycle(&routerModule{router: r})

	// The heartbeat job only makes sense with a status store to write
	// to.
	if svc, ok := appCtx.Service("store.status"); ok {
		if statusStore, ok := svc.(store.StatusStore); ok {
			sched := heartbeat.NewScheduler(logger)
			if err := sched.RegisterJob(&heartbeat.StatusJob{
				Status:  statusStore,
				Manager: manager,
				Metrics: m,
				Logger:  logger,
			}); err != nil {
				return fmt.Errorf("registering heartbeat job: %w", err)
			}
			app.AppendLifecycle(&heartbeatModule{sched: sched})
		}
	}

	logger.Info("router: wired", "channels", len(channels))
	return nil
}
