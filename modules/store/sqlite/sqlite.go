// Package sqlite implements the durable store module backing
// conversation memory, bot configuration, the knowledge base, and the
// heartbeat record. It uses modernc.org/sqlite (pure Go, no CGO) with
// WAL mode.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/figmenta/copilot/internal/core"
	"github.com/figmenta/copilot/internal/memory"
	"github.com/figmenta/copilot/internal/store"
	"gopkg.in/yaml.v3"

	_ "modernc.org/sqlite" // SQLite driver registration
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ memory.ConversationStore = (*conversationStore)(nil)
	_ store.ConfigStore        = (*configStore)(nil)
	_ store.KnowledgeStore     = (*knowledgeStore)(nil)
	_ store.StatusStore        = (*statusStore)(nil)
	_ core.Configurable        = (*Module)(nil)
	_ core.Provisioner         = (*Module)(nil)
	_ core.Validator           = (*Module)(nil)
	_ core.Stopper             = (*Module)(nil)
)

// Module implements the SQLite-backed durable store, exposing one
// store per concern backed by a single database.
type Module struct {
	config Config
	db     *sql.DB
	logger *slog.Logger

	conversations *conversationStore
	configs       *configStore
	knowledge     *knowledgeStore
	status        *statusStore
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "store.sqlite",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("sqlite: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	if m.config.Path == "" {
		m.config.Path = filepath.Join(ctx.DataDir, defaultDBFile)
	}

	if dir := filepath.Dir(m.config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", m.config.Path)
	if err != nil {
		return fmt.Errorf("sqlite: open %s: %w", m.config.Path, err)
	}

	// SQLite handles one writer at a time; limit pool to 1 connection
	// so PRAGMAs apply consistently.
	db.SetMaxOpenConns(1)

	if m.config.walEnabled() {
		if _, err := db.ExecContext(context.TODO(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return fmt.Errorf("sqlite: enable WAL: %w", err)
		}
	}

	if _, err := db.ExecContext(context.TODO(), fmt.Sprintf("PRAGMA busy_timeout=%d", m.config.BusyTimeout)); err != nil {
		_ = db.Close()
		return fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return err
	}

	m.db = db
	m.conversations = &conversationStore{db: db}
	m.configs = &configStore{db: db}
	m.knowledge = &knowledgeStore{db: db}
	m.status = &statusStore{db: db}

	ctx.RegisterService("store.conversations", m.conversations)
	ctx.RegisterService("store.config", m.configs)
	ctx.RegisterService("store.knowledge", m.knowledge)
	ctx.RegisterService("store.status", m.status)

	m.logger.Info("sqlite store module provisioned",
		"path", m.config.Path,
		"wal", m.config.walEnabled(),
	)

	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if err := m.config.validate(); err != nil {
		return err
	}

	if err := m.db.PingContext(context.TODO()); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("sqlite store module stopping")
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Conversations returns the ConversationStore implementation.
func (m *Module) Conversations() memory.ConversationStore {
	return m.conversations
}

// Configs returns the ConfigStore implementation.
func (m *Module) Configs() store.ConfigStore {
	return m.configs
}

// Knowledge returns the KnowledgeStore implementation.
func (m *Module) Knowledge() store.KnowledgeStore {
	return m.knowledge
}

// Status returns the StatusStore implementation.
func (m *Module) Status() store.StatusStore {
	return m.status
}
