package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crlx1q/Tester-FLAI/internal/ai"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

// DefaultFoodEmoji prefixes text-logged dishes when the model gave none.
const DefaultFoodEmoji = "🍽️"

// MaxDescriptionLength bounds a free-form dish description.
const MaxDescriptionLength = 1000

// Default and maximum page sizes for the diary history.
const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 500
)

// =============================================================================
// Interface Definition
// =============================================================================

// FoodService manages the food diary.
type FoodService interface {
	// AnalyzeImage estimates a processed photo and logs it. Counts one photo
	// and marks the day active.
	AnalyzeImage(ctx context.Context, userID uuid.UUID, img *domain.Image) (*domain.FoodEntry, error)

	// AnalyzeText estimates a description and logs it. Not metered, but
	// marks the day active.
	AnalyzeText(ctx context.Context, userID uuid.UUID, description string) (*domain.FoodEntry, *domain.FoodAnalysis, error)

	// AnalyzeOnly estimates a description without logging anything.
	AnalyzeOnly(ctx context.Context, userID uuid.UUID, description string) (*domain.FoodAnalysis, error)

	// History lists entries newest first.
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.FoodEntry, error)

	// DailySummary totals a local day. An empty date means today.
	DailySummary(ctx context.Context, userID uuid.UUID, date string) (*domain.DailySummary, error)

	// WeeklyProgress totals the last seven local days, today included,
	// against the user's calorie target.
	WeeklyProgress(ctx context.Context, userID uuid.UUID) ([]domain.DayProgress, error)

	// MonthlyActiveDays lists the local dates of a month with at least one entry.
	MonthlyActiveDays(ctx context.Context, userID uuid.UUID, year, month int) ([]string, error)

	// Update edits an entry the user owns.
	Update(ctx context.Context, params domain.UpdateFoodEntryParams) (*domain.FoodEntry, error)

	// UpdateWithImage re-estimates an owned entry from a new photo and the
	// user's name for the dish, replacing its name and nutrition. Counts one
	// photo.
	UpdateWithImage(ctx context.Context, userID, entryID uuid.UUID, name string, img *domain.Image) (*domain.FoodEntry, *domain.FoodAnalysis, error)

	// Delete removes an entry the user owns.
	Delete(ctx context.Context, userID, entryID uuid.UUID) error

	// AddFavorite saves an owned entry as a favourite dish.
	AddFavorite(ctx context.Context, userID, entryID uuid.UUID) (*domain.FavoriteFood, error)
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]domain.FavoriteFood, error)
	RemoveFavorite(ctx context.Context, userID, favoriteID uuid.UUID) error

	// AddFavoriteToDiary logs a favourite dish as a new entry eaten now.
	AddFavoriteToDiary(ctx context.Context, userID, favoriteID uuid.UUID) (*domain.FoodEntry, error)
}

// FoodStore is the persistence needed by FoodService.
type FoodStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	CreateFoodEntry(ctx context.Context, arg repository.CreateFoodEntryParams) (repository.FoodEntry, error)
	GetFoodEntryByID(ctx context.Context, id uuid.UUID) (repository.FoodEntry, error)
	ListFoodEntriesByUser(ctx context.Context, arg repository.ListFoodEntriesByUserParams) ([]repository.FoodEntry, error)
	ListFoodEntriesBetween(ctx context.Context, arg repository.ListFoodEntriesBetweenParams) ([]repository.FoodEntry, error)
	UpdateFoodEntry(ctx context.Context, arg repository.UpdateFoodEntryParams) (repository.FoodEntry, error)
	DeleteFoodEntry(ctx context.Context, arg repository.DeleteFoodEntryParams) (int64, error)
	CreateFavoriteFood(ctx context.Context, arg repository.CreateFavoriteFoodParams) (repository.FavoriteFood, error)
	GetFavoriteFood(ctx context.Context, arg repository.GetFavoriteFoodParams) (repository.FavoriteFood, error)
	ListFavoriteFoods(ctx context.Context, userID uuid.UUID) ([]repository.FavoriteFood, error)
	DeleteFavoriteFood(ctx context.Context, arg repository.DeleteFavoriteFoodParams) (int64, error)
}

// =============================================================================
// Implementation
// =============================================================================

type foodService struct {
	store    FoodStore
	provider ai.Provider
	meter    *Meter
	cal      *domain.Calendar
	clock    Clock
	logger   *slog.Logger
}

var _ FoodService = (*foodService)(nil)

// NewFoodService creates a new FoodService instance.
func NewFoodService(store FoodStore, provider ai.Provider, meter *Meter, cal *domain.Calendar, clock Clock, logger *slog.Logger) FoodService {
	return &foodService{
		store:    store,
		provider: provider,
		meter:    meter,
		cal:      cal,
		clock:    clockOrNow(clock),
		logger:   logger,
	}
}

func (s *foodService) AnalyzeImage(ctx context.Context, userID uuid.UUID, img *domain.Image) (*domain.FoodEntry, error) {
	const op = "FoodService.AnalyzeImage"

	if img.IsEmpty() {
		return nil, domain.Invalid(op, "Image is required")
	}

	result, err := s.provider.AnalyzeFoodImage(ctx, ai.FoodImageParams{UserID: userID, Image: *img})
	if err != nil {
		return nil, aiError(err, op, "Failed to analyze image")
	}

	params := domain.NewFoodEntryParams(s.cal, userID, result.Analysis, img, s.clock())
	entry, err := s.create(ctx, op, params)
	if err != nil {
		return nil, err
	}

	s.meter.Record(ctx, userID, domain.UsagePhotos)
	s.logger.Info("food logged from photo", "user_id", userID, "entry_id", entry.ID, "calories", entry.Calories)
	return entry, nil
}

func (s *foodService) AnalyzeText(ctx context.Context, userID uuid.UUID, description string) (*domain.FoodEntry, *domain.FoodAnalysis, error) {
	const op = "FoodService.AnalyzeText"

	analysis, err := s.analyzeText(ctx, op, userID, description)
	if err != nil {
		return nil, nil, err
	}

	named := *analysis
	emoji := analysis.Emoji
	if emoji == "" {
		emoji = DefaultFoodEmoji
	}
	named.Name = emoji + " " + analysis.Name

	params := domain.NewFoodEntryParams(s.cal, userID, named, nil, s.clock())
	entry, err := s.create(ctx, op, params)
	if err != nil {
		return nil, nil, err
	}

	s.meter.Activity(ctx, userID)
	s.logger.Info("food logged from description", "user_id", userID, "entry_id", entry.ID, "calories", entry.Calories)
	return entry, analysis, nil
}

func (s *foodService) AnalyzeOnly(ctx context.Context, userID uuid.UUID, description string) (*domain.FoodAnalysis, error) {
	return s.analyzeText(ctx, "FoodService.AnalyzeOnly", userID, description)
}

func (s *foodService) analyzeText(ctx context.Context, op string, userID uuid.UUID, description string) (*domain.FoodAnalysis, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, domain.NewValidationError(op, "description", "Description is required")
	}
	if len([]rune(description)) > MaxDescriptionLength {
		return nil, domain.NewValidationError(op, "description", "Description is too long")
	}

	result, err := s.provider.AnalyzeFoodText(ctx, ai.FoodTextParams{UserID: userID, Description: description})
	if err != nil {
		return nil, aiError(err, op, "Failed to analyze description")
	}
	analysis := result.Analysis.Normalize()
	return &analysis, nil
}

func (s *foodService) create(ctx context.Context, op string, p domain.CreateFoodEntryParams) (*domain.FoodEntry, error) {
	data, ct := imageColumns(p.Image)
	row, err := s.store.CreateFoodEntry(ctx, repository.CreateFoodEntryParams{
		UserID:           p.UserID,
		Name:             p.Name,
		Calories:         int32(p.Calories),
		Protein:          p.Macros.Protein,
		Fat:              p.Macros.Fat,
		Carbs:            p.Macros.Carbs,
		HealthScore:      int32(p.HealthScore),
		MealType:         string(p.MealType),
		Image:            data,
		ImageContentType: ct,
		EatenAt:          p.EatenAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to save food entry")
	}
	return repoFoodToDomain(row), nil
}

// =============================================================================
// Diary Reads
// =============================================================================

func (s *foodService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.FoodEntry, error) {
	const op = "FoodService.History"

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)
	offset = max(offset, 0)

	rows, err := s.store.ListFoodEntriesByUser(ctx, repository.ListFoodEntriesByUserParams{
		UserID: userID,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list food entries")
	}
	return foodEntries(rows), nil
}

func (s *foodService) DailySummary(ctx context.Context, userID uuid.UUID, date string) (*domain.DailySummary, error) {
	const op = "FoodService.DailySummary"

	day := s.clock()
	if date != "" {
		parsed, err := s.cal.ParseDate(date)
		if err != nil {
			return nil, domain.NewValidationError(op, "date", "Date must be YYYY-MM-DD")
		}
		day = parsed
	}

	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", userID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	foods, err := s.dayEntries(ctx, userID, day)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list food entries")
	}

	summary := domain.SummarizeDay(s.cal.DateKey(day), repoUserToDomain(u).Profile, foods)
	return &summary, nil
}

func (s *foodService) WeeklyProgress(ctx context.Context, userID uuid.UUID) ([]domain.DayProgress, error) {
	const op = "FoodService.WeeklyProgress"

	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", userID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	today := s.clock()
	rows, err := s.store.ListFoodEntriesBetween(ctx, repository.ListFoodEntriesBetweenParams{
		UserID: userID,
		Start:  s.cal.AddDays(today, 1-domain.ProgressDays),
		End:    s.cal.AddDays(today, 1),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list food entries")
	}

	return domain.WeeklyProgress(s.cal, today, int(u.DailyCalories), foodEntries(rows)), nil
}

func (s *foodService) MonthlyActiveDays(ctx context.Context, userID uuid.UUID, year, month int) ([]string, error) {
	const op = "FoodService.MonthlyActiveDays"

	start, end, err := s.cal.MonthBounds(year, time.Month(month))
	if err != nil {
		return nil, domain.NewValidationError(op, "month", "Year and month are required")
	}

	rows, err := s.store.ListFoodEntriesBetween(ctx, repository.ListFoodEntriesBetweenParams{
		UserID: userID,
		Start:  start,
		End:    end,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list food entries")
	}
	return domain.ActiveDays(s.cal, foodEntries(rows)), nil
}

func (s *foodService) dayEntries(ctx context.Context, userID uuid.UUID, day time.Time) ([]domain.FoodEntry, error) {
	start, end := s.cal.DayBounds(day)
	rows, err := s.store.ListFoodEntriesBetween(ctx, repository.ListFoodEntriesBetweenParams{
		UserID: userID,
		Start:  start,
		End:    end,
	})
	if err != nil {
		return nil, err
	}
	return foodEntries(rows), nil
}

func foodEntries(rows []repository.FoodEntry) []domain.FoodEntry {
	out := make([]domain.FoodEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, *repoFoodToDomain(r))
	}
	return out
}

// =============================================================================
// Diary Writes
// =============================================================================

func (s *foodService) Update(ctx context.Context, params domain.UpdateFoodEntryParams) (*domain.FoodEntry, error) {
	const op = "FoodService.Update"

	if err := params.Validate(); err != nil {
		return nil, err
	}

	current, err := s.owned(ctx, op, params.UserID, params.ID)
	if err != nil {
		return nil, err
	}
	next := params.Apply(*current)

	row, err := s.store.UpdateFoodEntry(ctx, repository.UpdateFoodEntryParams{
		ID:          next.ID,
		UserID:      next.UserID,
		Name:        next.Name,
		Calories:    int32(next.Calories),
		Protein:     next.Macros.Protein,
		Fat:         next.Macros.Fat,
		Carbs:       next.Macros.Carbs,
		HealthScore: int32(next.HealthScore),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "food", params.ID.String())
		}
		return nil, domain.Internal(err, op, "Failed to update food entry")
	}
	return repoFoodToDomain(row), nil
}

func (s *foodService) UpdateWithImage(ctx context.Context, userID, entryID uuid.UUID, name string, img *domain.Image) (*domain.FoodEntry, *domain.FoodAnalysis, error) {
	const op = "FoodService.UpdateWithImage"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, domain.NewValidationError(op, "name", "Name is required")
	}
	if len([]rune(name)) > MaxDishNameLength {
		return nil, nil, domain.NewValidationError(op, "name", "Name is too long")
	}
	if img.IsEmpty() {
		return nil, nil, domain.Invalid(op, "Image is required")
	}

	if _, err := s.owned(ctx, op, userID, entryID); err != nil {
		return nil, nil, err
	}

	result, err := s.provider.AnalyzeFoodImage(ctx, ai.FoodImageParams{UserID: userID, Image: *img, NameHint: name})
	if err != nil {
		return nil, nil, aiError(err, op, "Failed to analyze image")
	}
	raw := result.Analysis
	if strings.TrimSpace(raw.Name) == "" {
		raw.Name = name
	}
	analysis := raw.Normalize()

	emoji := analysis.Emoji
	if emoji == "" {
		emoji = DefaultFoodEmoji
	}
	label := emoji + " " + analysis.Name

	entry, err := s.Update(ctx, domain.UpdateFoodEntryParams{
		ID:          entryID,
		UserID:      userID,
		Name:        &label,
		Calories:    &analysis.Calories,
		Macros:      &analysis.Macros,
		HealthScore: &analysis.HealthScore,
	})
	if err != nil {
		return nil, nil, err
	}

	s.meter.Record(ctx, userID, domain.UsagePhotos)
	s.logger.Info("food re-estimated from photo", "user_id", userID, "entry_id", entry.ID, "calories", entry.Calories)
	return entry, &analysis, nil
}

func (s *foodService) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	const op = "FoodService.Delete"

	n, err := s.store.DeleteFoodEntry(ctx, repository.DeleteFoodEntryParams{ID: entryID, UserID: userID})
	if err != nil {
		return domain.Internal(err, op, "Failed to delete food entry")
	}
	if n == 0 {
		return domain.NotFound(op, "food", entryID.String())
	}
	return nil
}

// owned loads an entry, hiding entries of other users as not found.
func (s *foodService) owned(ctx context.Context, op string, userID, entryID uuid.UUID) (*domain.FoodEntry, error) {
	row, err := s.store.GetFoodEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "food", entryID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve food entry")
	}
	if row.UserID != userID {
		return nil, domain.NotFound(op, "food", entryID.String())
	}
	return repoFoodToDomain(row), nil
}

// =============================================================================
// Favourites
// =============================================================================

func (s *foodService) AddFavorite(ctx context.Context, userID, entryID uuid.UUID) (*domain.FavoriteFood, error) {
	const op = "FoodService.AddFavorite"

	entry, err := s.owned(ctx, op, userID, entryID)
	if err != nil {
		return nil, err
	}

	row, err := s.store.CreateFavoriteFood(ctx, repository.CreateFavoriteFoodParams{
		UserID:   userID,
		Name:     entry.Name,
		Calories: int32(entry.Calories),
		Protein:  entry.Macros.Protein,
		Fat:      entry.Macros.Fat,
		Carbs:    entry.Macros.Carbs,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to save favorite")
	}
	return repoFavoriteToDomain(row), nil
}

func (s *foodService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]domain.FavoriteFood, error) {
	const op = "FoodService.ListFavorites"

	rows, err := s.store.ListFavoriteFoods(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list favorites")
	}
	out := make([]domain.FavoriteFood, 0, len(rows))
	for _, r := range rows {
		out = append(out, *repoFavoriteToDomain(r))
	}
	return out, nil
}

func (s *foodService) RemoveFavorite(ctx context.Context, userID, favoriteID uuid.UUID) error {
	const op = "FoodService.RemoveFavorite"

	n, err := s.store.DeleteFavoriteFood(ctx, repository.DeleteFavoriteFoodParams{ID: favoriteID, UserID: userID})
	if err != nil {
		return domain.Internal(err, op, "Failed to remove favorite")
	}
	if n == 0 {
		return domain.NotFound(op, "favorite", favoriteID.String())
	}
	return nil
}

func (s *foodService) AddFavoriteToDiary(ctx context.Context, userID, favoriteID uuid.UUID) (*domain.FoodEntry, error) {
	const op = "FoodService.AddFavoriteToDiary"

	fav, err := s.store.GetFavoriteFood(ctx, repository.GetFavoriteFoodParams{ID: favoriteID, UserID: userID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "favorite", favoriteID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve favorite")
	}

	now := s.clock()
	entry, err := s.create(ctx, op, domain.CreateFoodEntryParams{
		UserID:      userID,
		Name:        fav.Name,
		Calories:    int(fav.Calories),
		Macros:      domain.Macros{Protein: fav.Protein, Fat: fav.Fat, Carbs: fav.Carbs},
		HealthScore: domain.DefaultHealthScore,
		MealType:    domain.MealTypeAt(s.cal, now),
		EatenAt:     now,
	})
	if err != nil {
		return nil, err
	}

	s.meter.Activity(ctx, userID)
	return entry, nil
}
