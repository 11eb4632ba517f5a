package memory

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// maxMessages caps the rolling window per channel; the oldest
	// entries are evicted first.
	maxMessages = 20

	// synopsisMessages is how many trailing messages feed the derived
	// synopsis when no running summary exists yet.
	synopsisMessages = 5

	// synopsisChars is the content prefix length used in the synopsis.
	synopsisChars = 50

	// defaultMaxChannels caps the number of distinct channels held in
	// the cache. The least-recently-updated entry is evicted when the
	// cap is exceeded; its durable record is untouched.
	defaultMaxChannels = 1024
)

// channelEntry is the mutable cache entry behind one channel.
type channelEntry struct {
	messages    []Message
	summary     string
	lastUpdated time.Time
}

// Manager owns the in-process conversation cache and applies the
// bounded-window and persistence policy. All methods are safe for
// concurrent use across channels; interleaved appends on the same
// channel are tolerated (chat ordering is best-effort).
type Manager struct {
	mu       sync.Mutex
	channels map[string]*channelEntry

	store       ConversationStore
	logger      *slog.Logger
	maxChannels int
	now         func() time.Time

	persistFailures atomic.Int64
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithLogger injects a structured logger. Nil or omitted means logging
// goes to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMaxChannels overrides the channel cache capacity. Values <= 0
// keep the default.
func WithMaxChannels(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxChannels = n
		}
	}
}

// NewManager creates a Manager backed by the given store. A nil store
// disables durable persistence entirely (memory-only mode).
func NewManager(store ConversationStore, opts ...Option) *Manager {
	m := &Manager{
		channels:    make(map[string]*channelEntry),
		store:       store,
		logger:      slog.Default(),
		maxChannels: defaultMaxChannels,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrCreate returns the conversation state for a channel, hydrating
// from the durable store on a cache miss. It never fails outward: a
// store error falls back to a fresh empty entry. The returned value is
// a copy; mutations go through Append, Clear, and SetSummary.
func (m *Manager) GetOrCreate(ctx context.Context, channelID string) ChannelMemory {
	m.mu.Lock()
	if e, ok := m.channels[channelID]; ok {
		snap := e.copyOut()
		m.mu.Unlock()
		return snap
	}
	m.mu.Unlock()

	// Hydrate outside the lock; the store call may hit the network.
	e := m.hydrate(ctx, channelID)

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another goroutine may have created the entry meanwhile; keep the
	// existing one so its appends are not lost.
	if existing, ok := m.channels[channelID]; ok {
		return existing.copyOut()
	}
	m.insertLocked(channelID, e)
	return e.copyOut()
}

// hydrate fetches the durable record for a channel, returning an empty
// entry when the store is absent, errors, or has no record.
func (m *Manager) hydrate(ctx context.Context, channelID string) *channelEntry {
	e := &channelEntry{lastUpdated: m.now()}
	if m.store == nil {
		return e
	}

	rec, found, err := m.store.Get(ctx, channelID)
	if err != nil {
		m.logger.Warn("memory: hydrate failed, starting empty",
			"channel_id", channelID,
			"error", err,
		)
		return e
	}
	if found {
		e.messages = append(e.messages, rec.Messages...)
		e.summary = rec.RunningSummary
	}
	return e
}

// insertLocked adds an entry to the cache, evicting the
// least-recently-updated channel when the capacity is exceeded.
// Caller must hold m.mu.
func (m *Manager) insertLocked(channelID string, e *channelEntry) {
	if len(m.channels) >= m.maxChannels {
		var oldestID string
		var oldest time.Time
		for id, entry := range m.channels {
			if oldestID == "" || entry.lastUpdated.Before(oldest) {
				oldestID = id
				oldest = entry.lastUpdated
			}
		}
		delete(m.channels, oldestID)
		m.logger.Info("memory: evicted idle channel from cache",
			"channel_id", oldestID,
			"last_updated", oldest,
		)
	}
	m.channels[channelID] = e
}

// entryLocked returns the cached entry for a channel, re-creating an
// empty one when the entry was evicted since the caller last resolved
// it. Caller must hold m.mu.
func (m *Manager) entryLocked(channelID string) *channelEntry {
	if e, ok := m.channels[channelID]; ok {
		return e
	}
	e := &channelEntry{lastUpdated: m.now()}
	m.insertLocked(channelID, e)
	return e
}

// Append records a message for a channel, truncates the window to the
// most recent entries, and upserts the durable record. The in-memory
// mutation always succeeds; the returned error is the persist outcome,
// so callers can observe (and log) durable-write failures without the
// append itself ever blocking chat function.
func (m *Manager) Append(ctx context.Context, channelID string, role Role, content, author, channelName string) error {
	m.GetOrCreate(ctx, channelID)

	m.mu.Lock()
	// The entry may have been evicted between GetOrCreate releasing the
	// lock and this critical section; entryLocked re-creates it so the
	// append cannot dereference a missing entry.
	e := m.entryLocked(channelID)
	e.messages = append(e.messages, Message{
		Role:      role,
		Content:   content,
		Author:    author,
		Timestamp: m.now(),
	})
	if len(e.messages) > maxMessages {
		e.messages = e.messages[len(e.messages)-maxMessages:]
	}
	e.lastUpdated = m.now()
	rec := m.recordLocked(channelID, channelName, e)
	m.mu.Unlock()

	return m.persist(ctx, rec)
}

// SetSummary replaces the running summary for a channel in place.
// It is a no-op for channels not in the cache and does not trigger a
// persistence write; the next append carries the updated summary.
func (m *Manager) SetSummary(channelID, summary string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.channels[channelID]; ok {
		e.summary = summary
		e.lastUpdated = m.now()
	}
}

// Clear removes a channel from the cache and deletes its durable
// record. Clearing an already-absent channel is a no-op. The returned
// error is the store outcome only.
func (m *Manager) Clear(ctx context.Context, channelID string) error {
	m.mu.Lock()
	delete(m.channels, channelID)
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(ctx, channelID); err != nil {
		m.logger.Error("memory: durable delete failed",
			"channel_id", channelID,
			"error", err,
		)
		return err
	}
	return nil
}

// Len returns the number of messages currently cached for a channel.
func (m *Manager) Len(channelID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.channels[channelID]; ok {
		return len(e.messages)
	}
	return 0
}

// ChannelCount returns the number of channels currently in the cache.
func (m *Manager) ChannelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channels)
}

// PersistFailures returns the total number of durable upserts that
// have failed since the Manager was created.
func (m *Manager) PersistFailures() int64 {
	return m.persistFailures.Load()
}

// ListAll returns a snapshot of every cached channel. It never touches
// the durable store.
func (m *Manager) ListAll() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Snapshot, 0, len(m.channels))
	for id, e := range m.channels {
		out = append(out, Snapshot{
			ChannelID:    id,
			MessageCount: len(e.messages),
			Summary:      e.summary,
			LastUpdated:  e.lastUpdated,
		})
	}
	return out
}

// recordLocked builds the durable record for a channel entry.
// Caller must hold m.mu.
func (m *Manager) recordLocked(channelID, channelName string, e *channelEntry) ConversationRecord {
	now := m.now()
	msgs := make([]Message, len(e.messages))
	copy(msgs, e.messages)
	return ConversationRecord{
		ChannelID:      channelID,
		ChannelName:    channelName,
		RunningSummary: displaySummary(e.summary, e.messages),
		MessageCount:   len(e.messages),
		Messages:       msgs,
		LastMessageAt:  now,
		UpdatedAt:      now,
	}
}

// persist upserts the record, swallowing nothing: failures are logged,
// counted, and returned, but the caller decides whether to care.
func (m *Manager) persist(ctx context.Context, rec ConversationRecord) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Upsert(ctx, rec); err != nil {
		m.persistFailures.Add(1)
		m.logger.Error("memory: persist failed",
			"channel_id", rec.ChannelID,
			"channel_name", rec.ChannelName,
			"error", err,
		)
		return err
	}
	m.logger.Debug("memory: persisted conversation",
		"channel_id", rec.ChannelID,
		"message_count", rec.MessageCount,
	)
	return nil
}

// displaySummary is the running summary when one exists, otherwise a
// synopsis derived from the trailing messages.
func displaySummary(summary string, messages []Message) string {
	if summary != "" {
		return summary
	}
	start := len(messages) - synopsisMessages
	if start < 0 {
		start = 0
	}
	var b []byte
	for i, msg := range messages[start:] {
		if i > 0 {
			b = append(b, '\n')
		}
		content := runePrefix(msg.Content, synopsisChars)
		b = append(b, msg.Author...)
		b = append(b, ": "...)
		b = append(b, content...)
		b = append(b, "..."...)
	}
	return string(b)
}

// runePrefix returns at most n runes of s, cutting on a rune boundary
// so multi-byte characters are never split.
func runePrefix(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

func (e *channelEntry) copyOut() ChannelMemory {
	msgs := make([]Message, len(e.messages))
	copy(msgs, e.messages)
	return ChannelMemory{
		Messages:    msgs,
		Summary:     e.summary,
		LastUpdated: e.lastUpdated,
	}
}
