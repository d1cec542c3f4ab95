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

// LimitService decides whether a metered action may proceed.
type LimitService interface {
	// Check loads the user, applies subscription expiry and compares today's
	// usage of kind with the plan's ceiling. A spent allowance returns a
	// domain.ELIMIT error carrying limitType, current, max and isPro.
	Check(ctx context.Context, userID uuid.UUID, kind domain.UsageKind) (*domain.LimitInfo, error)

	// RequirePro returns the user when their effective plan is pro and a
	// domain.EPRO error otherwise.
	RequirePro(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// Summary reports the plan and every kind's current, max and remaining.
	Summary(ctx context.Context, userID uuid.UUID) (*LimitSummary, error)
}

// LimitSummary is the per-user view of plan and daily allowances.
type LimitSummary struct {
	Subscription  domain.Subscription
	RemainingDays int
	Date          string
	Usage         map[domain.UsageKind]domain.KindLimit
}

// UserLookup loads a user row.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error)
}

type limitService struct {
	users         UserLookup
	subscriptions SubscriptionService
	usage         UsageService
	logger        *slog.Logger
}

var _ LimitService = (*limitService)(nil)

// NewLimitService creates a new LimitService instance.
func NewLimitService(users UserLookup, subscriptions SubscriptionService, usage UsageService, logger *slog.Logger) LimitService {
	return &limitService{
		users:         users,
		subscriptions: subscriptions,
		usage:         usage,
		logger:        logger,
	}
}

func (s *limitService) load(ctx context.Context, op string, userID uuid.UUID) (*domain.User, error) {
	repoUser, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", userID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}
	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	s.subscriptions.Effective(ctx, user)
	return user, nil
}

func (s *limitService) Check(ctx context.Context, userID uuid.UUID, kind domain.UsageKind) (*domain.LimitInfo, error) {
	const op = "LimitService.Check"

	if !kind.IsValid() {
		return nil, domain.Invalid(op, "Unknown usage kind "+string(kind))
	}

	user, err := s.load(ctx, op, userID)
	if err != nil {
		return nil, err
	}

	sub := user.Subscription
	info := &domain.LimitInfo{
		SubscriptionType: sub.Type,
		IsPro:            sub.IsPro(),
		Kind:             kind,
		Current:          s.usage.Current(user).Count(kind),
		Max:              domain.GetTierLimits(sub.Type).For(kind),
	}

	if info.Current >= info.Max {
		metrics.LimitRejected(string(kind))
		s.logger.Info("daily limit reached",
			"user_id", userID,
			"kind", kind,
			"current", info.Current,
			"max", info.Max,
			"is_pro", info.IsPro,
		)
		return nil, domain.LimitReached(op, kind, info.Current, info.Max, info.IsPro)
	}
	return info, nil
}

func (s *limitService) RequirePro(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	const op = "LimitService.RequirePro"

	user, err := s.load(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	if !user.Subscription.IsPro() {
		metrics.LimitRejected("pro")
		return nil, domain.RequiresPro(op)
	}
	return user, nil
}

func (s *limitService) Summary(ctx context.Context, userID uuid.UUID) (*LimitSummary, error) {
	const op = "LimitService.Summary"

	user, err := s.load(ctx, op, userID)
	if err != nil {
		return nil, err
	}

	sub := user.Subscription
	bucket := s.usage.Current(user)
	limits := domain.GetTierLimits(sub.Type)

	summary := &LimitSummary{
		Subscription:  sub,
		RemainingDays: s.subscriptions.RemainingDays(sub),
		Date:          bucket.Date,
		Usage:         make(map[domain.UsageKind]domain.KindLimit, len(domain.UsageKinds)),
	}
	for _, kind := range domain.UsageKinds {
		summary.Usage[kind] = domain.NewKindLimit(bucket.Count(kind), limits.For(kind))
	}
	return summary, nil
}
