package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/figmenta/copilot/internal/memory"
	"github.com/figmenta/copilot/internal/store"
)

// memConversations is an in-memory memory.ConversationStore.
type memConversations struct {
	mu   sync.Mutex
	recs map[string]memory.ConversationRecord
}

func newMemConversations() *memConversations {
	return &memConversations{recs: make(map[string]memory.ConversationRecord)}
}

func (s *memConversations) Get(_ context.Context, channelID string) (memory.ConversationRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[channelID]
	return rec, ok, nil
}

func (s *memConversations) Upsert(_ context.Context, rec memory.ConversationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ChannelID] = rec
	return nil
}

func (s *memConversations) Delete(_ context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, channelID)
	return nil
}

func (s *memConversations) DeleteAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = make(map[string]memory.ConversationRecord)
	return nil
}

func (s *memConversations) List(context.Context) ([]memory.ConversationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]memory.ConversationRecord, 0, len(s.recs))
	for _, rec := range s.recs {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// memConfigs is an in-memory store.ConfigStore.
type memConfigs struct {
	mu  sync.Mutex
	cfg *store.BotConfig
}

func (s *memConfigs) GetConfig(context.Context) (store.BotConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return store.BotConfig{}, store.ErrNotFound
	}
	return *s.cfg, nil
}

func (s *memConfigs) SaveConfig(_ context.Context, cfg store.BotConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = &cfg
	return nil
}

// memKnowledge is an in-memory store.KnowledgeStore.
type memKnowledge struct {
	mu   sync.Mutex
	docs []store.KnowledgeDoc
}

func (s *memKnowledge) ListDocs(context.Context) ([]store.KnowledgeDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.KnowledgeDoc, len(s.docs))
	copy(out, s.docs)
	return out, nil
}

func (s *memKnowledge) AddDoc(_ context.Context, doc store.KnowledgeDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return nil
}

func (s *memKnowledge) DeleteDoc(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range s.docs {
		if doc.ID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

const testToken = "test-token"

// newTestGateway assembles a Gateway with in-memory stores and a
// router with the admin group mounted behind testToken.
func newTestGateway(t *testing.T) (*Gateway, http.Handler) {
	t.Helper()

	conversations := newMemConversations()
	g := &Gateway{
		config: Config{
			Auth: AuthConfig{BearerToken: testToken},
		},
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		manager:       memory.NewManager(conversations),
		conversations: conversations,
		configs:       &memConfigs{},
		knowledge:     &memKnowledge{},
	}
	g.config.defaults()
	return g, g.buildRouter()
}

// adminRequest builds a request carrying the test bearer token.
func adminRequest(method, target string, body io.Reader) *http.Request {
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		panic(err)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}
