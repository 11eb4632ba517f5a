package heartbeat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/figmenta/copilot/internal/memory"
	"github.com/figmenta/copilot/internal/metrics"
	"github.com/figmenta/copilot/internal/store"
)

// memStatus is an in-memory store.StatusStore.
type memStatus struct {
	mu      sync.Mutex
	status  *store.BotStatus
	upserts int
	err     error
}

func (s *memStatus) UpsertStatus(_ context.Context, status store.BotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.status = &status
	s.upserts++
	return nil
}

func (s *memStatus) GetStatus(context.Context) (store.BotStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		return store.BotStatus{}, store.ErrNotFound
	}
	return *s.status, nil
}

func TestStatusJob_Run(t *testing.T) {
	t.Parallel()

	mgr := memory.NewManager(nil)
	ctx := context.Background()
	for _, id := range []string{"c1", "c2"} {
		if err := mgr.Append(ctx, id, memory.RoleUser, "hello", "alice", "general"); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	m := metrics.New()
	m.RecordMessage()
	m.RecordMessage()
	m.RecordMessage()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	status := &memStatus{}
	job := &StatusJob{
		Status:  status,
		Manager: mgr,
		Metrics: m,
		Now:     func() time.Time { return now },
	}

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, err := status.GetStatus(ctx)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if !got.Online {
		t.Error("Online = false, want true")
	}
	if !got.LastHeartbeat.Equal(now) {
		t.Errorf("LastHeartbeat = %v, want %v", got.LastHeartbeat, now)
	}
	if got.MessagesHandled != 3 {
		t.Errorf("MessagesHandled = %d, want 3", got.MessagesHandled)
	}
	if got.ActiveChannels != 2 {
		t.Errorf("ActiveChannels = %d, want 2", got.ActiveChannels)
	}
}

func TestStatusJob_NoStoreIsNoop(t *testing.T) {
	t.Parallel()

	job := &StatusJob{Manager: memory.NewManager(nil)}
	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

func TestStatusJob_PropagatesStoreError(t *testing.T) {
	t.Parallel()

	status := &memStatus{err: errors.New("disk full")}
	job := &StatusJob{Status: status}
	if err := job.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want store error")
	}
}

func TestScheduler_DuplicateJob(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	if err := s.RegisterJob(&StatusJob{}); err != nil {
		t.Fatalf("RegisterJob() error = %v", err)
	}
	if err := s.RegisterJob(&StatusJob{}); err == nil {
		t.Error("RegisterJob() error = nil, want duplicate name error")
	}
}

type badScheduleJob struct{}

func (badScheduleJob) Name() string              { return "broken" }
func (badScheduleJob) Schedule() string          { return "not a schedule" }
func (badScheduleJob) Run(context.Context) error { return nil }

func TestScheduler_InvalidSchedule(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	if err := s.RegisterJob(badScheduleJob{}); err != nil {
		t.Fatalf("RegisterJob() error = %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("Start() error = nil, want invalid schedule error")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	if err := s.RegisterJob(&StatusJob{Status: &memStatus{}}); err != nil {
		t.Fatalf("RegisterJob() error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
