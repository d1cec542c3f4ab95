package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/metrics"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

// StreakService tracks consecutive days of activity.
type StreakService interface {
	// RecordActivity counts today as active. Repeats on the same local day
	// are no-ops and write nothing.
	RecordActivity(ctx context.Context, userID uuid.UUID) (domain.Streak, error)

	// Get returns the streak as it stands now. A lapsed streak reads as zero
	// even before the nightly reconcile has stored it.
	Get(ctx context.Context, userID uuid.UUID) (domain.Streak, error)

	// ReconcileAll zeroes every streak whose last activity is two or more
	// local days old and returns how many were reset.
	ReconcileAll(ctx context.Context) (int64, error)
}

// StreakStore is the persistence needed by StreakService.
type StreakStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	UpdateUserStreak(ctx context.Context, arg repository.UpdateUserStreakParams) error
	ListActiveStreaks(ctx context.Context, before time.Time) ([]repository.ListActiveStreaksRow, error)
	ResetUserStreak(ctx context.Context, arg repository.ResetUserStreakParams) (int64, error)
}

type streakService struct {
	store  StreakStore
	cal    *domain.Calendar
	clock  Clock
	logger *slog.Logger
}

var _ StreakService = (*streakService)(nil)

// NewStreakService creates a new StreakService instance.
func NewStreakService(store StreakStore, cal *domain.Calendar, clock Clock, logger *slog.Logger) StreakService {
	return &streakService{
		store:  store,
		cal:    cal,
		clock:  clockOrNow(clock),
		logger: logger,
	}
}

func (s *streakService) load(ctx context.Context, op string, userID uuid.UUID) (domain.Streak, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Streak{}, domain.NotFound(op, "user", userID.String())
		}
		return domain.Streak{}, domain.Internal(err, op, "Failed to retrieve user")
	}
	return domain.Streak{
		Current:   int(u.StreakCurrent),
		Longest:   int(u.StreakLongest),
		LastVisit: domain.NullTimeValue(u.StreakLastVisit),
	}, nil
}

func (s *streakService) RecordActivity(ctx context.Context, userID uuid.UUID) (domain.Streak, error) {
	const op = "StreakService.RecordActivity"

	current, err := s.load(ctx, op, userID)
	if err != nil {
		return domain.Streak{}, err
	}

	next, changed := current.RecordActivity(s.cal, s.clock())
	if !changed {
		return current, nil
	}

	if err := s.store.UpdateUserStreak(ctx, repository.UpdateUserStreakParams{
		ID:              userID,
		StreakCurrent:   int32(next.Current),
		StreakLongest:   int32(next.Longest),
		StreakLastVisit: domain.ToNullTime(next.LastVisit),
	}); err != nil {
		return domain.Streak{}, domain.Internal(err, op, "Failed to update streak")
	}

	s.logger.Debug("streak updated", "user_id", userID, "current", next.Current, "longest", next.Longest)
	return next, nil
}

func (s *streakService) Get(ctx context.Context, userID uuid.UUID) (domain.Streak, error) {
	const op = "StreakService.Get"

	current, err := s.load(ctx, op, userID)
	if err != nil {
		return domain.Streak{}, err
	}
	view, _ := current.Reconcile(s.cal, s.clock())
	return view, nil
}

func (s *streakService) ReconcileAll(ctx context.Context) (int64, error) {
	const op = "StreakService.ReconcileAll"

	now := s.clock()
	// Anything touched since the start of yesterday is still alive.
	cutoff := s.cal.AddDays(now, -1)

	rows, err := s.store.ListActiveStreaks(ctx, cutoff)
	if err != nil {
		return 0, domain.Internal(err, op, "Failed to list streaks")
	}

	var reset int64
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return reset, err
		}

		streak := domain.Streak{
			Current:   int(row.StreakCurrent),
			Longest:   int(row.StreakLongest),
			LastVisit: domain.NullTimeValue(row.StreakLastVisit),
		}
		if _, changed := streak.Reconcile(s.cal, now); !changed {
			continue
		}

		n, err := s.store.ResetUserStreak(ctx, repository.ResetUserStreakParams{
			ID:              row.ID,
			StreakLastVisit: row.StreakLastVisit.Time,
		})
		if err != nil {
			s.logger.Error("failed to reset streak", "user_id", row.ID, "error", err)
			continue
		}
		reset += n
	}

	metrics.StreaksReset(reset)
	s.logger.Info("streaks reconciled", "candidates", len(rows), "reset", reset)
	return reset, nil
}
