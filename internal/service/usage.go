package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/metrics"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

// UsageService reads and bumps the rolling daily usage bucket.
type UsageService interface {
	// Current returns the user's bucket as of today. A bucket from an
	// earlier day reads as all zero.
	Current(user *domain.User) domain.UsageBucket

	// Increment adds one action of kind, resetting a stale bucket first.
	Increment(ctx context.Context, userID uuid.UUID, kind domain.UsageKind) (domain.UsageBucket, error)

	// Today returns the local date key the buckets are compared against.
	Today() string
}

// UsageStore is the persistence needed by UsageService. The increment must
// reset and bump in one statement so concurrent calls never lose counts.
type UsageStore interface {
	IncrementUserUsage(ctx context.Context, arg repository.IncrementUserUsageParams) (repository.IncrementUserUsageRow, error)
}

type usageService struct {
	store  UsageStore
	cal    *domain.Calendar
	clock  Clock
	logger *slog.Logger
}

var _ UsageService = (*usageService)(nil)

// NewUsageService creates a new UsageService instance.
func NewUsageService(store UsageStore, cal *domain.Calendar, clock Clock, logger *slog.Logger) UsageService {
	return &usageService{
		store:  store,
		cal:    cal,
		clock:  clockOrNow(clock),
		logger: logger,
	}
}

func (s *usageService) Today() string {
	return s.cal.DateKey(s.clock())
}

func (s *usageService) Current(user *domain.User) domain.UsageBucket {
	return domain.CurrentUsage(user.Usage, s.Today())
}

func (s *usageService) Increment(ctx context.Context, userID uuid.UUID, kind domain.UsageKind) (domain.UsageBucket, error) {
	const op = "UsageService.Increment"

	if !kind.IsValid() {
		return domain.UsageBucket{}, domain.Invalid(op, "Unknown usage kind "+string(kind))
	}

	row, err := s.store.IncrementUserUsage(ctx, repository.IncrementUserUsageParams{
		ID:        userID,
		UsageDate: s.Today(),
		Kind:      string(kind),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UsageBucket{}, domain.NotFound(op, "user", userID.String())
		}
		return domain.UsageBucket{}, domain.Internal(err, op, "Failed to record usage")
	}

	metrics.UsageIncremented(string(kind))

	bucket := domain.UsageBucket{
		Date:          domain.NullStringValue(row.UsageDate),
		PhotosCount:   int(row.UsagePhotos),
		MessagesCount: int(row.UsageMessages),
		RecipesCount:  int(row.UsageRecipes),
	}
	s.logger.Debug("usage incremented", "user_id", userID, "kind", kind, "count", bucket.Count(kind))
	return bucket, nil
}
