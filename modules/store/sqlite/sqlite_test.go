package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/figmenta/copilot/internal/core"
	"github.com/figmenta/copilot/internal/memory"
	"github.com/figmenta/copilot/internal/store"
	"gopkg.in/yaml.v3"
)

// newTestModule provisions a Module against a temp-dir database.
func newTestModule(t *testing.T) *Module {
	t.Helper()

	m := &Module{}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte("{}"), &node); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if err := m.Configure(&node); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := core.NewAppContext(logger, t.TempDir())
	if err := m.Provision(appCtx); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	t.Cleanup(func() {
		if err := m.Stop(context.Background()); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	return m
}

func TestConversations_Roundtrip(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	ctx := context.Background()
	convs := m.Conversations()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := memory.ConversationRecord{
		ChannelID:      "c1",
		ChannelName:    "general",
		RunningSummary: "Talked about onboarding.",
		MessageCount:   2,
		Messages: []memory.Message{
			{Role: memory.RoleUser, Content: "hi", Author: "alice", Timestamp: now},
			{Role: memory.RoleAssistant, Content: "hello", Author: "Bot", Timestamp: now.Add(time.Second)},
		},
		LastMessageAt: now.Add(time.Second),
		UpdatedAt:     now.Add(time.Second),
	}
	if err := convs.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, ok, err := convs.Get(ctx, "c1")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, %v; want record, true, nil", got, ok, err)
	}
	if got.ChannelName != "general" || got.RunningSummary != rec.RunningSummary || got.MessageCount != 2 {
		t.Errorf("Get() = %+v, want %+v", got, rec)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Content != "hi" || got.Messages[0].Role != memory.RoleUser {
		t.Errorf("first message = %+v", got.Messages[0])
	}
	if !got.LastMessageAt.Equal(rec.LastMessageAt) {
		t.Errorf("LastMessageAt = %v, want %v", got.LastMessageAt, rec.LastMessageAt)
	}
}

func TestConversations_GetMissing(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	_, ok, err := m.Conversations().Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false")
	}
}

func TestConversations_UpsertReplaces(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	ctx := context.Background()
	convs := m.Conversations()

	rec := memory.ConversationRecord{ChannelID: "c1", MessageCount: 1, UpdatedAt: time.Now()}
	if err := convs.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	rec.MessageCount = 5
	rec.RunningSummary = "updated"
	if err := convs.Upsert(ctx, rec); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	got, _, err := convs.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.MessageCount != 5 || got.RunningSummary != "updated" {
		t.Errorf("Get() = %+v, want replaced record", got)
	}
}

func TestConversations_DeleteAndList(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	ctx := context.Background()
	convs := m.Conversations()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"c1", "c2", "c3"} {
		rec := memory.ConversationRecord{
			ChannelID: id,
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := convs.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert(%s) error = %v", id, err)
		}
	}

	recs, err := convs.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(recs) != 3 || recs[0].ChannelID != "c3" {
		t.Fatalf("List() = %+v, want 3 records newest first", recs)
	}

	if err := convs.Delete(ctx, "c2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	// Deleting an absent record is a no-op.
	if err := convs.Delete(ctx, "c2"); err != nil {
		t.Fatalf("repeat Delete() error = %v", err)
	}

	if err := convs.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	recs, err = convs.List(ctx)
	if err != nil || len(recs) != 0 {
		t.Errorf("List() after DeleteAll = %v, %v; want empty, nil", recs, err)
	}
}

func TestConfig_Roundtrip(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	ctx := context.Background()
	configs := m.Configs()

	if _, err := configs.GetConfig(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetConfig() error = %v, want ErrNotFound", err)
	}

	cfg := store.BotConfig{
		ID:                 "default",
		BotName:            "Figmenta Copilot",
		Personality:        "friendly",
		ResponseStyle:      "concise",
		SystemInstructions: "Be helpful.",
		AllowedChannels:    []string{"c1", "c2"},
		MaxContextMessages: 10,
		UpdatedAt:          time.Now(),
	}
	if err := configs.SaveConfig(ctx, cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	got, err := configs.GetConfig(ctx)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if got.BotName != cfg.BotName || got.SystemInstructions != cfg.SystemInstructions {
		t.Errorf("GetConfig() = %+v, want %+v", got, cfg)
	}
	if len(got.AllowedChannels) != 2 || got.AllowedChannels[0] != "c1" {
		t.Errorf("AllowedChannels = %v, want [c1 c2]", got.AllowedChannels)
	}

	cfg.BotName = "Renamed"
	if err := configs.SaveConfig(ctx, cfg); err != nil {
		t.Fatalf("second SaveConfig() error = %v", err)
	}
	got, err = configs.GetConfig(ctx)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if got.BotName != "Renamed" {
		t.Errorf("BotName = %q, want %q", got.BotName, "Renamed")
	}
}

func TestKnowledge_Lifecycle(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	ctx := context.Background()
	knowledge := m.Knowledge()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"Handbook", "Style guide"} {
		doc := store.KnowledgeDoc{
			ID:        title,
			Title:     title,
			Content:   "body",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := knowledge.AddDoc(ctx, doc); err != nil {
			t.Fatalf("AddDoc(%s) error = %v", title, err)
		}
	}

	docs, err := knowledge.ListDocs(ctx)
	if err != nil {
		t.Fatalf("ListDocs() error = %v", err)
	}
	if len(docs) != 2 || docs[0].Title != "Style guide" {
		t.Fatalf("ListDocs() = %+v, want 2 docs newest first", docs)
	}

	if err := knowledge.DeleteDoc(ctx, "Handbook"); err != nil {
		t.Fatalf("DeleteDoc() error = %v", err)
	}
	if err := knowledge.DeleteDoc(ctx, "Handbook"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("repeat DeleteDoc() error = %v, want ErrNotFound", err)
	}
}

func TestStatus_Roundtrip(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	ctx := context.Background()
	statuses := m.Status()

	if _, err := statuses.GetStatus(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetStatus() error = %v, want ErrNotFound", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	status := store.BotStatus{
		Online:          true,
		LastHeartbeat:   now,
		MessagesHandled: 42,
		ActiveChannels:  3,
	}
	if err := statuses.UpsertStatus(ctx, status); err != nil {
		t.Fatalf("UpsertStatus() error = %v", err)
	}

	got, err := statuses.GetStatus(ctx)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if !got.Online || got.MessagesHandled != 42 || got.ActiveChannels != 3 {
		t.Errorf("GetStatus() = %+v, want %+v", got, status)
	}
	if !got.LastHeartbeat.Equal(now) {
		t.Errorf("LastHeartbeat = %v, want %v", got.LastHeartbeat, now)
	}

	// A later heartbeat replaces the single row.
	status.MessagesHandled = 100
	if err := statuses.UpsertStatus(ctx, status); err != nil {
		t.Fatalf("second UpsertStatus() error = %v", err)
	}
	got, err = statuses.GetStatus(ctx)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if got.MessagesHandled != 100 {
		t.Errorf("MessagesHandled = %d, want 100", got.MessagesHandled)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	if err := migrate(m.db); err != nil {
		t.Fatalf("repeat migrate() error = %v", err)
	}
}
