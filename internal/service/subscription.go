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

// SubscriptionService applies subscription expiry and admin grants.
type SubscriptionService interface {
	// Effective returns the plan that applies now. An expired pro plan is
	// downgraded and the downgrade is written back.
	Effective(ctx context.Context, user *domain.User) domain.Subscription

	// Grant sets a user's plan. Unknown types and non-positive durations are
	// rejected with domain.EINVALID before anything is read or written.
	Grant(ctx context.Context, userID uuid.UUID, subscriptionType string, durationDays *int) (*domain.User, error)

	// ExpireAll downgrades every expired pro plan and returns how many.
	ExpireAll(ctx context.Context) (int64, error)

	// RemainingDays returns whole local days left on a plan, -1 for no expiry.
	RemainingDays(sub domain.Subscription) int
}

// SubscriptionStore is the persistence needed by SubscriptionService.
type SubscriptionStore interface {
	UpdateUserSubscription(ctx context.Context, arg repository.UpdateUserSubscriptionParams) (repository.User, error)
	DowngradeUserSubscription(ctx context.Context, arg repository.DowngradeUserSubscriptionParams) (int64, error)
	DowngradeExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error)
}

type subscriptionService struct {
	store  SubscriptionStore
	cal    *domain.Calendar
	clock  Clock
	logger *slog.Logger
}

var _ SubscriptionService = (*subscriptionService)(nil)

// NewSubscriptionService creates a new SubscriptionService instance.
func NewSubscriptionService(store SubscriptionStore, cal *domain.Calendar, clock Clock, logger *slog.Logger) SubscriptionService {
	return &subscriptionService{
		store:  store,
		cal:    cal,
		clock:  clockOrNow(clock),
		logger: logger,
	}
}

// Effective never fails: when the write-back errors the computed plan is
// still correct, and the next read will try the write again.
func (s *subscriptionService) Effective(ctx context.Context, user *domain.User) domain.Subscription {
	now := s.clock()
	eff, needsPersist := domain.EffectiveSubscription(user.Subscription, now)
	if !needsPersist {
		return eff
	}

	n, err := s.store.DowngradeUserSubscription(ctx, repository.DowngradeUserSubscriptionParams{
		ID:  user.ID,
		Now: now,
	})
	if err != nil {
		s.logger.Error("failed to persist subscription downgrade", "user_id", user.ID, "error", err)
	} else if n > 0 {
		metrics.SubscriptionsDowngraded(n)
		s.logger.Info("subscription expired", "user_id", user.ID, "expired_at", user.Subscription.ExpiresAt)
	}

	user.Subscription = eff
	return eff
}

func (s *subscriptionService) Grant(ctx context.Context, userID uuid.UUID, subscriptionType string, durationDays *int) (*domain.User, error) {
	const op = "SubscriptionService.Grant"

	t, err := domain.ParseSubscriptionType(subscriptionType)
	if err != nil {
		return nil, err
	}
	sub, err := domain.GrantSubscription(s.cal, t, durationDays, s.clock())
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateUserSubscription(ctx, repository.UpdateUserSubscriptionParams{
		ID:                    userID,
		SubscriptionType:      sub.Type.String(),
		SubscriptionExpiresAt: domain.ToNullTime(sub.ExpiresAt),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", userID.String())
		}
		return nil, domain.Internal(err, op, "Failed to update subscription")
	}

	s.logger.Info("subscription granted",
		"user_id", userID,
		"type", sub.Type,
		"expires_at", sub.ExpiresAt,
	)

	user := repoUserToDomain(updated)
	user.PasswordHash = ""
	return user, nil
}

func (s *subscriptionService) ExpireAll(ctx context.Context) (int64, error) {
	const op = "SubscriptionService.ExpireAll"

	n, err := s.store.DowngradeExpiredSubscriptions(ctx, s.clock())
	if err != nil {
		return 0, domain.Internal(err, op, "Failed to expire subscriptions")
	}
	metrics.SubscriptionsDowngraded(n)
	return n, nil
}

func (s *subscriptionService) RemainingDays(sub domain.Subscription) int {
	return domain.RemainingDays(s.cal, sub.ExpiresAt, s.clock())
}
