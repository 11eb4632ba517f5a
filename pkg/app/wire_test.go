package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/figmenta/copilot/internal/channel"
	"github.com/figmenta/copilot/internal/config"
	"github.com/figmenta/copilot/internal/core"
	"github.com/figmenta/copilot/internal/provider/providertest"
	"github.com/figmenta/copilot/pkg/message"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWireBotWithoutChannels(t *testing.T) {
	t.Parallel()

	logger := discardLogger()
	appCtx := core.NewAppContext(logger, t.TempDir())
	application := core.NewApp(appCtx)

	err := wireBot(application, appCtx, &config.Config{}, nil, logger)
	if err != nil {
		t.Fatalf("wireBot() error = %v", err)
	}

	// The memory manager and metrics must be published even when no
	// channel is configured, so a gateway-only deployment still works.
	if _, ok := appCtx.Service("memory.manager"); !ok {
		t.Error("memory.manager service not registered")
	}
	if _, ok := appCtx.Service("metrics"); !ok {
		t.Error("metrics service not registered")
	}
}

func TestWireBotRequiresProvider(t *testing.T) {
	t.Parallel()

	logger := discardLogger()
	appCtx := core.NewAppContext(logger, t.TempDir())
	application := core.NewApp(appCtx)
	application.AppendLifecycle(channel.NewMockChannel())

	err := wireBot(application, appCtx, &config.Config{}, []string{"channel.mock"}, logger)
	if err == nil {
		t.Fatal("wireBot() = nil, want error when a channel has no provider")
	}
}

func TestWireBotBindsChannels(t *testing.T) {
	t.Parallel()

	logger := discardLogger()
	appCtx := core.NewAppContext(logger, t.TempDir())
	appCtx.RegisterService("provider", providertest.NewMock(providertest.Reply{Text: "hi there"}))

	application := core.NewApp(appCtx)
	mock := channel.NewMockChannel()
	application.AppendLifecycle(mock)

	err := wireBot(application, appCtx, &config.Config{}, []string{"channel.mock"}, logger)
	if err != nil {
		t.Fatalf("wireBot() error = %v", err)
	}

	if err := application.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Bind must have handed the channel an inbox that accepts messages.
	msg := message.InboundMessage{
		ID:        "m1",
		Timestamp: time.Now(),
		Channel:   "channel.mock",
		Sender:    message.Sender{ID: "u1", Username: "alice"},
		Chat:      message.Chat{ID: "c1", Type: message.ChatDM},
		Content:   "hello",
	}
	if err := mock.Deliver(msg); err != nil {
		t.Errorf("Deliver() error = %v, want inbox wired", err)
	}

	application.Stop()

	if len(mock.Sent()) == 0 {
		t.Error("no reply sent through the dispatcher")
	}
}

func TestResolveConfigPathPrefersXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgPath := filepath.Join(dir, "copilot", "copilot.yaml")
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfgPath, []byte("version: \"1\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveConfigPath()
	if err != nil {
		t.Fatalf("ResolveConfigPath() error = %v", err)
	}
	if got != cfgPath {
		t.Errorf("ResolveConfigPath() = %q, want %q", got, cfgPath)
	}
}

func TestDefaultDataDirUsesXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	if got := DefaultDataDir(); got != filepath.Join("/tmp/xdg-data", "copilot") {
		t.Errorf("DefaultDataDir() = %q", got)
	}
}
