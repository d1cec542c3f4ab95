package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

// Job type constants; these must match the JobHandler.Type() values.
const (
	JobTypeReconcileStreaks    = "reconcile_streaks"
	JobTypeExpireSubscriptions = "expire_subscriptions"
	JobTypeCleanupSessions     = "cleanup_sessions"
	JobTypePurgeJobs           = "purge_jobs"
)

// SweepJobTypes are the maintenance sweeps queued together by the scheduler.
var SweepJobTypes = []string{
	JobTypeExpireSubscriptions,
	JobTypeReconcileStreaks,
	JobTypeCleanupSessions,
	JobTypePurgeJobs,
}

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// SweepPayload is the payload of every maintenance sweep.
type SweepPayload struct {
	RequestedAt time.Time `json:"requested_at"`
	Reason      string    `json:"reason"`
}

// Queue is the job table as seen by producers. *repository.Queries
// satisfies it.
type Queue interface {
	EnqueueJob(ctx context.Context, arg repository.EnqueueJobParams) (repository.Job, error)
	CountPendingJobsByType(ctx context.Context, jobType string) (int64, error)
}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = p.ScheduledAt.Add(delay)
	}
}

// EnqueueJob marshals payload and inserts a pending job.
func EnqueueJob(ctx context.Context, queue Queue, jobType string, payload any, opts ...EnqueueOption) (repository.Job, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&params)
	}

	job, err := queue.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}

// Scheduler queues the maintenance sweeps, at most one pending job of each
// type at a time.
type Scheduler struct {
	queue  Queue
	logger *slog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(queue Queue, logger *slog.Logger) *Scheduler {
	return &Scheduler{queue: queue, logger: logger}
}

// ScheduleReconcile queues every sweep that is not already pending and
// returns the types it queued.
func (s *Scheduler) ScheduleReconcile(ctx context.Context) ([]string, error) {
	return s.schedule(ctx, "manual")
}

func (s *Scheduler) schedule(ctx context.Context, reason string) ([]string, error) {
	queued := make([]string, 0, len(SweepJobTypes))
	payload := SweepPayload{RequestedAt: time.Now().UTC(), Reason: reason}

	for _, jobType := range SweepJobTypes {
		pending, err := s.queue.CountPendingJobsByType(ctx, jobType)
		if err != nil {
			return queued, fmt.Errorf("count pending %s: %w", jobType, err)
		}
		if pending > 0 {
			s.logger.Debug("sweep already pending", "job_type", jobType)
			continue
		}

		job, err := EnqueueJob(ctx, s.queue, jobType, payload, WithPriority(PriorityLow))
		if err != nil {
			return queued, err
		}
		s.logger.Info("sweep queued", "job_type", jobType, "job_id", job.ID, "reason", reason)
		queued = append(queued, jobType)
	}
	return queued, nil
}

// Run queues the sweeps once at startup and then every interval until ctx
// is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	if _, err := s.schedule(ctx, "startup"); err != nil {
		s.logger.Error("failed to queue startup sweeps", "error", err)
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.schedule(ctx, "interval"); err != nil {
				s.logger.Error("failed to queue sweeps", "error", err)
			}
		}
	}
}
