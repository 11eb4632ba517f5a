package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"github.com/figmenta/copilot/internal/memory"
	"github.com/figmenta/copilot/internal/metrics"
	"github.com/figmenta/copilot/internal/store"
)

// StatusJob upserts the bot's liveness record: online flag, heartbeat
// timestamp, processed message count, and active channel count. When no
// status store is configured the job is a silent no-op so the bot can
// run memory-only.
type StatusJob struct {
	Status  store.StatusStore
	Manager *memory.Manager
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// ScheduleExpr overrides the default every-minute schedule.
	ScheduleExpr string

	// Now is injectable for testing.
	Now func() time.Time
}

// Compile-time interface check.
var _ Job = (*StatusJob)(nil)

// Name implements Job.
func (j *StatusJob) Name() string {
	return "bot_status"
}

// Schedule implements Job.
func (j *StatusJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "* * * * *"
}

// Run writes one heartbeat record.
func (j *StatusJob) Run(ctx context.Context) error {
	if j.Status == nil {
		return nil
	}

	now := time.Now
	if j.Now != nil {
		now = j.Now
	}

	status := store.BotStatus{
		Online:        true,
		LastHeartbeat: now(),
	}
	if j.Metrics != nil {
		status.MessagesHandled = j.Metrics.Messages()
	}
	if j.Manager != nil {
		status.ActiveChannels = j.Manager.ChannelCount()
	}

	return j.Status.UpsertStatus(ctx, status)
}
