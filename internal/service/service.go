// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories, the AI provider,
// the image pipeline and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement (limits, subscriptions, streaks)
// - Error translation (database and provider errors -> domain errors)
//
// Each service depends on a narrow store interface that *repository.Queries
// satisfies, so tests can run against an in-memory store.
package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sqlc-dev/pqtype"

	"github.com/crlx1q/Tester-FLAI/internal/ai"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// aiError maps a provider failure to the error surfaced to clients.
func aiError(err error, op, message string) error {
	if ai.IsUpstream(err) {
		return domain.UpstreamUnavailable(err, op)
	}
	return domain.Internal(err, op, message)
}

// =============================================================================
// Repository -> Domain Conversion
// =============================================================================

// repoUserToDomain converts a repository.User to domain.User.
func repoUserToDomain(u repository.User) *domain.User {
	return &domain.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Avatar:       imageFromColumns(u.Avatar, u.AvatarContentType),
		Subscription: domain.Subscription{
			Type:      domain.SubscriptionType(u.SubscriptionType),
			ExpiresAt: domain.NullTimeValue(u.SubscriptionExpiresAt),
		},
		Usage: domain.UsageBucket{
			Date:          domain.NullStringValue(u.UsageDate),
			PhotosCount:   int(u.UsagePhotos),
			MessagesCount: int(u.UsageMessages),
			RecipesCount:  int(u.UsageRecipes),
		},
		Streak: domain.Streak{
			Current:   int(u.StreakCurrent),
			Longest:   int(u.StreakLongest),
			LastVisit: domain.NullTimeValue(u.StreakLastVisit),
		},
		Profile: domain.Profile{
			Goal:                domain.NullStringValue(u.Goal),
			Gender:              domain.NullStringValue(u.Gender),
			Age:                 domain.NullInt32Value(u.Age),
			HeightCm:            domain.NullFloat64Value(u.HeightCm),
			WeightKg:            domain.NullFloat64Value(u.WeightKg),
			TargetWeightKg:      domain.NullFloat64Value(u.TargetWeightKg),
			ActivityLevel:       domain.NullStringValue(u.ActivityLevel),
			Allergies:           u.Allergies,
			DailyCalories:       int(u.DailyCalories),
			ProteinTarget:       int(u.ProteinTarget),
			FatTarget:           int(u.FatTarget),
			CarbsTarget:         int(u.CarbsTarget),
			WaterTargetMl:       int(u.WaterTargetMl),
			OnboardingCompleted: u.OnboardingCompleted,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// profileParams builds the full-row profile update for a user.
func profileParams(u *domain.User, name string, p domain.Profile) repository.UpdateUserProfileParams {
	return repository.UpdateUserProfileParams{
		ID:                  u.ID,
		Name:                name,
		Goal:                domain.ToNullString(p.Goal),
		Gender:              domain.ToNullString(p.Gender),
		Age:                 domain.ToNullInt32(p.Age),
		HeightCm:            domain.ToNullFloat64(p.HeightCm),
		WeightKg:            domain.ToNullFloat64(p.WeightKg),
		TargetWeightKg:      domain.ToNullFloat64(p.TargetWeightKg),
		ActivityLevel:       domain.ToNullString(p.ActivityLevel),
		Allergies:           p.Allergies,
		DailyCalories:       int32(p.DailyCalories),
		ProteinTarget:       int32(p.ProteinTarget),
		FatTarget:           int32(p.FatTarget),
		CarbsTarget:         int32(p.CarbsTarget),
		WaterTargetMl:       int32(p.WaterTargetMl),
		OnboardingCompleted: p.OnboardingCompleted,
	}
}

func repoFoodToDomain(f repository.FoodEntry) *domain.FoodEntry {
	return &domain.FoodEntry{
		ID:       f.ID,
		UserID:   f.UserID,
		Name:     f.Name,
		Calories: int(f.Calories),
		Macros: domain.Macros{
			Protein: f.Protein,
			Fat:     f.Fat,
			Carbs:   f.Carbs,
		},
		HealthScore: int(f.HealthScore),
		MealType:    domain.MealType(f.MealType),
		Image:       imageFromColumns(f.Image, f.ImageContentType),
		EatenAt:     f.EatenAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func repoFavoriteToDomain(f repository.FavoriteFood) *domain.FavoriteFood {
	return &domain.FavoriteFood{
		ID:        f.ID,
		UserID:    f.UserID,
		Name:      f.Name,
		Calories:  int(f.Calories),
		Macros:    domain.Macros{Protein: f.Protein, Fat: f.Fat, Carbs: f.Carbs},
		CreatedAt: f.CreatedAt,
	}
}

func repoSettingsToDomain(s repository.AppSettings) *domain.AppSettings {
	return &domain.AppSettings{
		RegistrationEnabled: s.RegistrationEnabled,
		CurrentVersion:      s.CurrentVersion,
		UpdateDescription:   s.UpdateDescription,
		HasUpdate:           s.HasUpdate,
		UpdatedAt:           s.UpdatedAt,
	}
}

func repoRecipeToDomain(r repository.RecipeRow) (*domain.Recipe, error) {
	recipe := &domain.Recipe{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Calories:     int(r.Calories),
		Macros:       domain.Macros{Protein: r.Protein, Fat: r.Fat, Carbs: r.Carbs},
		PrepMinutes:  int(r.PrepMinutes),
		CookTime:     r.CookTime,
		Difficulty:   r.Difficulty,
		Servings:     int(r.Servings),
		Ingredients:  []domain.Ingredient{},
		Instructions: r.Instructions,
		Image:        imageFromColumns(r.Image, r.ImageContentType),
		IsFavorite:   r.IsFavorite,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.UserID.Valid {
		owner := r.UserID.UUID
		recipe.UserID = &owner
	}
	if recipe.Instructions == nil {
		recipe.Instructions = []string{}
	}
	if r.Ingredients.Valid && len(r.Ingredients.RawMessage) > 0 {
		if err := json.Unmarshal(r.Ingredients.RawMessage, &recipe.Ingredients); err != nil {
			return nil, err
		}
	}
	return recipe, nil
}

func ingredientsToJSON(in []domain.Ingredient) (pqtype.NullRawMessage, error) {
	if in == nil {
		in = []domain.Ingredient{}
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

func imageFromColumns(data []byte, contentType sql.NullString) *domain.Image {
	if len(data) == 0 {
		return nil
	}
	ct := domain.NullStringValue(contentType)
	if ct == "" {
		ct = domain.OutputContentType
	}
	return &domain.Image{Data: data, ContentType: ct}
}

func imageColumns(img *domain.Image) ([]byte, sql.NullString) {
	if img.IsEmpty() {
		return nil, sql.NullString{}
	}
	return img.Data, domain.ToNullString(img.ContentType)
}
