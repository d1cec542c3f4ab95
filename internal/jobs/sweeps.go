// Package jobs holds the background job handlers run by the worker.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/metrics"
	"github.com/crlx1q/Tester-FLAI/internal/worker"
)

// decodeSweep validates the payload. A malformed payload can never
// succeed, so it fails the job permanently.
func decodeSweep(payload []byte) (worker.SweepPayload, error) {
	var p worker.SweepPayload
	if len(payload) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, worker.NewPermanentError(err)
	}
	return p, nil
}

// retryable marks invalid-input failures as permanent and leaves the rest
// to the worker's backoff.
func retryable(err error) error {
	if domain.ErrorCode(err) == domain.EINVALID {
		return worker.NewPermanentError(err)
	}
	return err
}

// =============================================================================
// Streaks
// =============================================================================

// StreakReconciler is the part of the streak service the sweep needs.
type StreakReconciler interface {
	ReconcileAll(ctx context.Context) (int64, error)
}

// ReconcileStreaksHandler zeroes streaks whose owners missed a day.
type ReconcileStreaksHandler struct {
	streaks StreakReconciler
	logger  *slog.Logger
}

// NewReconcileStreaksHandler creates a new ReconcileStreaksHandler.
func NewReconcileStreaksHandler(streaks StreakReconciler, logger *slog.Logger) *ReconcileStreaksHandler {
	return &ReconcileStreaksHandler{streaks: streaks, logger: logger}
}

// Type returns the job type identifier.
func (h *ReconcileStreaksHandler) Type() string { return worker.JobTypeReconcileStreaks }

// Handle runs the sweep. Running it twice is harmless.
func (h *ReconcileStreaksHandler) Handle(ctx context.Context, payload []byte) error {
	p, err := decodeSweep(payload)
	if err != nil {
		return err
	}
	n, err := h.streaks.ReconcileAll(ctx)
	if err != nil {
		return retryable(err)
	}
	metrics.SweepRows(h.Type(), n)
	h.logger.Info("streaks reconciled", "reset", n, "reason", p.Reason)
	return nil
}

// =============================================================================
// Subscriptions
// =============================================================================

// SubscriptionExpirer is the part of the subscription service the sweep needs.
type SubscriptionExpirer interface {
	ExpireAll(ctx context.Context) (int64, error)
}

// ExpireSubscriptionsHandler downgrades lapsed pro plans.
type ExpireSubscriptionsHandler struct {
	subscriptions SubscriptionExpirer
	logger        *slog.Logger
}

// NewExpireSubscriptionsHandler creates a new ExpireSubscriptionsHandler.
func NewExpireSubscriptionsHandler(subscriptions SubscriptionExpirer, logger *slog.Logger) *ExpireSubscriptionsHandler {
	return &ExpireSubscriptionsHandler{subscriptions: subscriptions, logger: logger}
}

// Type returns the job type identifier.
func (h *ExpireSubscriptionsHandler) Type() string { return worker.JobTypeExpireSubscriptions }

// Handle runs the sweep.
func (h *ExpireSubscriptionsHandler) Handle(ctx context.Context, payload []byte) error {
	p, err := decodeSweep(payload)
	if err != nil {
		return err
	}
	n, err := h.subscriptions.ExpireAll(ctx)
	if err != nil {
		return retryable(err)
	}
	metrics.SweepRows(h.Type(), n)
	h.logger.Info("subscriptions expired", "downgraded", n, "reason", p.Reason)
	return nil
}

// =============================================================================
// Sessions
// =============================================================================

// SessionCleaner is the part of the user service the sweep needs.
type SessionCleaner interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// CleanupSessionsHandler deletes expired session rows.
type CleanupSessionsHandler struct {
	sessions SessionCleaner
	logger   *slog.Logger
}

// NewCleanupSessionsHandler creates a new CleanupSessionsHandler.
func NewCleanupSessionsHandler(sessions SessionCleaner, logger *slog.Logger) *CleanupSessionsHandler {
	return &CleanupSessionsHandler{sessions: sessions, logger: logger}
}

// Type returns the job type identifier.
func (h *CleanupSessionsHandler) Type() string { return worker.JobTypeCleanupSessions }

// Handle runs the sweep.
func (h *CleanupSessionsHandler) Handle(ctx context.Context, payload []byte) error {
	if _, err := decodeSweep(payload); err != nil {
		return err
	}
	n, err := h.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		return retryable(err)
	}
	metrics.SweepRows(h.Type(), n)
	if n > 0 {
		h.logger.Info("expired sessions deleted", "count", n)
	}
	return nil
}

// =============================================================================
// Job table
// =============================================================================

// DefaultJobRetention is how long finished jobs are kept.
const DefaultJobRetention = 7 * 24 * time.Hour

// FinishedJobDeleter is satisfied by *repository.Queries.
type FinishedJobDeleter interface {
	DeleteFinishedJobs(ctx context.Context, before time.Time) (int64, error)
}

// PurgeJobsHandler trims completed and failed jobs past the retention.
type PurgeJobsHandler struct {
	store     FinishedJobDeleter
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewPurgeJobsHandler creates a new PurgeJobsHandler. A non-positive
// retention uses DefaultJobRetention.
func NewPurgeJobsHandler(store FinishedJobDeleter, retention time.Duration, logger *slog.Logger) *PurgeJobsHandler {
	if retention <= 0 {
		retention = DefaultJobRetention
	}
	return &PurgeJobsHandler{store: store, retention: retention, now: time.Now, logger: logger}
}

// Type returns the job type identifier.
func (h *PurgeJobsHandler) Type() string { return worker.JobTypePurgeJobs }

// Handle runs the sweep.
func (h *PurgeJobsHandler) Handle(ctx context.Context, payload []byte) error {
	if _, err := decodeSweep(payload); err != nil {
		return err
	}
	n, err := h.store.DeleteFinishedJobs(ctx, h.now().Add(-h.retention))
	if err != nil {
		return err
	}
	metrics.SweepRows(h.Type(), n)
	if n > 0 {
		h.logger.Info("finished jobs purged", "count", n)
	}
	return nil
}
