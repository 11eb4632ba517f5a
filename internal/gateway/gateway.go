package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/figmenta/copilot/internal/core"
	"github.com/figmenta/copilot/internal/memory"
	"github.com/figmenta/copilot/internal/metrics"
	"github.com/figmenta/copilot/internal/store"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Gateway{})
}

// Gateway is the HTTP gateway module. It exposes health, metrics,
// status, and the admin API backing the operations console. It is a
// leaf module, nothing imports it.
type Gateway struct {
	config    Config
	appCtx    *core.AppContext
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time

	// Resolved lazily at Start() via service registry. All optional;
	// endpoints degrade when a dependency is absent.
	manager       *memory.Manager
	conversations memory.ConversationStore
	configs       store.ConfigStore
	knowledge     store.KnowledgeStore
	status        store.StatusStore
	metrics       *metrics.Metrics
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway.http",
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return err
	}
	g.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.appCtx = ctx
	g.logger = ctx.Logger
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}
	return nil
}

// Start implements core.Starter. It resolves dependencies from the
// service registry (lazy binding) and starts the HTTP server.
func (g *Gateway) Start() error {
	if svc, ok := g.appCtx.Service("memory.manager"); ok {
		if m, ok := svc.(*memory.Manager); ok {
			g.manager = m
		}
	}
	if svc, ok := g.appCtx.Service("store.conversations"); ok {
		if s, ok := svc.(memory.ConversationStore); ok {
			g.conversations = s
		}
	}
	if svc, ok := g.appCtx.Service("store.config"); ok {
		if s, ok := svc.(store.ConfigStore); ok {
			g.configs = s
		}
	}
	if svc, ok := g.appCtx.Service("store.knowledge"); ok {
		if s, ok := svc.(store.KnowledgeStore); ok {
			g.knowledge = s
		}
	}
	if svc, ok := g.appCtx.Service("store.status"); ok {
		if s, ok := svc.(store.StatusStore); ok {
			g.status = s
		}
	}
	if svc, ok := g.appCtx.Service("metrics"); ok {
		if m, ok := svc.(*metrics.Metrics); ok {
			g.metrics = m
		}
	}

	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
