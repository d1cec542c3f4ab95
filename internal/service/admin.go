package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

// Default and maximum page sizes for the admin user list.
const (
	DefaultAdminPageSize = 100
	MaxAdminPageSize     = 1000
)

// AdminUser is a user row as the operator sees it.
type AdminUser struct {
	User          *domain.User
	Usage         domain.UsageBucket
	RemainingDays int
}

// Stats summarizes the user base and today's metered activity.
type Stats struct {
	TotalUsers    int64
	FreeUsers     int64
	ProUsers      int64
	ActiveToday   int64
	PhotosToday   int64
	MessagesToday int64
	RecipesToday  int64
	FoodEntries   int64
	UserRecipes   int64
}

// AdminService backs the operator endpoints.
type AdminService interface {
	ListUsers(ctx context.Context, limit, offset int) ([]AdminUser, error)
	Grant(ctx context.Context, userID uuid.UUID, subscriptionType string, durationDays *int) (*domain.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)

	// Settings returns the app-wide switches.
	Settings(ctx context.Context) (*domain.AppSettings, error)

	// ToggleRegistration opens or closes sign-ups and returns the new state.
	ToggleRegistration(ctx context.Context) (*domain.AppSettings, error)

	// PublishVersion announces a new client release. Clients below it are
	// told to update.
	PublishVersion(ctx context.Context, version, description string) (*domain.AppSettings, error)
}

// AdminStore is the persistence needed by AdminService.
type AdminStore interface {
	ListUsers(ctx context.Context, arg repository.ListUsersParams) ([]repository.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (int64, error)
	CountUsersBySubscription(ctx context.Context) ([]repository.CountUsersBySubscriptionRow, error)
	SumUsageOn(ctx context.Context, date string) (repository.SumUsageOnRow, error)
	CountFoodEntries(ctx context.Context) (int64, error)
	CountUserRecipes(ctx context.Context) (int64, error)
	GetAppSettings(ctx context.Context) (repository.AppSettings, error)
	ToggleRegistration(ctx context.Context) (repository.AppSettings, error)
	UpdateAppVersion(ctx context.Context, arg repository.UpdateAppVersionParams) (repository.AppSettings, error)
}

type adminService struct {
	store         AdminStore
	subscriptions SubscriptionService
	usage         UsageService
	logger        *slog.Logger
}

var _ AdminService = (*adminService)(nil)

// NewAdminService creates a new AdminService instance.
func NewAdminService(store AdminStore, subscriptions SubscriptionService, usage UsageService, logger *slog.Logger) AdminService {
	return &adminService{
		store:         store,
		subscriptions: subscriptions,
		usage:         usage,
		logger:        logger,
	}
}

func (s *adminService) ListUsers(ctx context.Context, limit, offset int) ([]AdminUser, error) {
	const op = "AdminService.ListUsers"

	if limit <= 0 {
		limit = DefaultAdminPageSize
	}
	rows, err := s.store.ListUsers(ctx, repository.ListUsersParams{
		Limit:  int32(min(limit, MaxAdminPageSize)),
		Offset: int32(max(offset, 0)),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list users")
	}

	out := make([]AdminUser, 0, len(rows))
	for _, row := range rows {
		u := repoUserToDomain(row)
		u.PasswordHash = ""
		sub := s.subscriptions.Effective(ctx, u)
		out = append(out, AdminUser{
			User:          u,
			Usage:         s.usage.Current(u),
			RemainingDays: s.subscriptions.RemainingDays(sub),
		})
	}
	return out, nil
}

func (s *adminService) Grant(ctx context.Context, userID uuid.UUID, subscriptionType string, durationDays *int) (*domain.User, error) {
	return s.subscriptions.Grant(ctx, userID, subscriptionType, durationDays)
}

func (s *adminService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	const op = "AdminService.DeleteUser"

	n, err := s.store.DeleteUser(ctx, userID)
	if err != nil {
		return domain.Internal(err, op, "Failed to delete user")
	}
	if n == 0 {
		return domain.NotFound(op, "user", userID.String())
	}
	s.logger.Info("user deleted by admin", "user_id", userID)
	return nil
}

// Stats runs the independent aggregate queries concurrently.
func (s *adminService) Stats(ctx context.Context) (*Stats, error) {
	const op = "AdminService.Stats"

	var (
		stats  Stats
		counts []repository.CountUsersBySubscriptionRow
		usage  repository.SumUsageOnRow
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) (err error) {
		counts, err = s.store.CountUsersBySubscription(ctx)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		usage, err = s.store.SumUsageOn(ctx, s.usage.Today())
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		stats.FoodEntries, err = s.store.CountFoodEntries(ctx)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		stats.UserRecipes, err = s.store.CountUserRecipes(ctx)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, domain.Internal(err, op, "Failed to compute stats")
	}

	for _, c := range counts {
		stats.TotalUsers += c.Count
		if domain.SubscriptionType(c.SubscriptionType) == domain.SubscriptionPro {
			stats.ProUsers += c.Count
		} else {
			stats.FreeUsers += c.Count
		}
	}
	stats.ActiveToday = usage.ActiveUsers
	stats.PhotosToday = usage.Photos
	stats.MessagesToday = usage.Messages
	stats.RecipesToday = usage.Recipes
	return &stats, nil
}

// =============================================================================
// App Settings
// =============================================================================

func (s *adminService) Settings(ctx context.Context) (*domain.AppSettings, error) {
	const op = "AdminService.Settings"

	row, err := s.store.GetAppSettings(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load settings")
	}
	return repoSettingsToDomain(row), nil
}

func (s *adminService) ToggleRegistration(ctx context.Context) (*domain.AppSettings, error) {
	const op = "AdminService.ToggleRegistration"

	row, err := s.store.ToggleRegistration(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to toggle registration")
	}
	s.logger.Info("registration toggled", "enabled", row.RegistrationEnabled)
	return repoSettingsToDomain(row), nil
}

func (s *adminService) PublishVersion(ctx context.Context, version, description string) (*domain.AppSettings, error) {
	const op = "AdminService.PublishVersion"

	if err := domain.ValidateVersion("version", version); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if len([]rune(description)) > domain.MaxUpdateDescriptionLength {
		return nil, domain.NewValidationError(op, "description", "Description is too long")
	}

	row, err := s.store.UpdateAppVersion(ctx, repository.UpdateAppVersionParams{
		CurrentVersion:    strings.TrimSpace(version),
		UpdateDescription: description,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to update version")
	}
	s.logger.Info("client version published", "version", row.CurrentVersion)
	return repoSettingsToDomain(row), nil
}
