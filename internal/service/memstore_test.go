package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

// memStore is an in-memory stand-in for *repository.Queries that follows
// the same row semantics as the SQL it replaces.
type memStore struct {
	mu  sync.Mutex
	now func() time.Time

	users     map[uuid.UUID]repository.User
	sessions  map[string]repository.Session
	foods     map[uuid.UUID]repository.FoodEntry
	favorites map[uuid.UUID]repository.FavoriteFood
	recipes   map[uuid.UUID]repository.Recipe
	favRecipe map[[2]uuid.UUID]bool
	water     map[string]repository.WaterIntake
	settings  repository.AppSettings

	// failNext makes the next call of the named method return the error.
	failNext map[string]error
	// calls counts writes per method for no-write assertions.
	calls map[string]int
}

func newMemStore(now func() time.Time) *memStore {
	if now == nil {
		now = time.Now
	}
	return &memStore{
		now:       now,
		users:     map[uuid.UUID]repository.User{},
		sessions:  map[string]repository.Session{},
		foods:     map[uuid.UUID]repository.FoodEntry{},
		favorites: map[uuid.UUID]repository.FavoriteFood{},
		recipes:   map[uuid.UUID]repository.Recipe{},
		favRecipe: map[[2]uuid.UUID]bool{},
		water:     map[string]repository.WaterIntake{},
		settings:  repository.AppSettings{RegistrationEnabled: true, CurrentVersion: "1.2.0"},
		failNext:  map[string]error{},
		calls:     map[string]int{},
	}
}

func (m *memStore) fail(method string) error {
	m.calls[method]++
	if err, ok := m.failNext[method]; ok {
		delete(m.failNext, method)
		return err
	}
	return nil
}

// seedUser inserts a user with schema defaults and lets mutate adjust it.
func (m *memStore) seedUser(mutate func(u *repository.User)) repository.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.newUser(uuid.NewString()+"@example.com", "", "Test User")
	if mutate != nil {
		mutate(&u)
	}
	m.users[u.ID] = u
	return u
}

func (m *memStore) user(id uuid.UUID) repository.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memStore) newUser(email, hash, name string) repository.User {
	now := m.now()
	return repository.User{
		ID:               uuid.New(),
		Email:            email,
		PasswordHash:     hash,
		Name:             name,
		SubscriptionType: string(domain.SubscriptionFree),
		Allergies:        []string{},
		DailyCalories:    domain.DefaultDailyCalories,
		ProteinTarget:    domain.DefaultProteinTarget,
		FatTarget:        domain.DefaultFatTarget,
		CarbsTarget:      domain.DefaultCarbsTarget,
		WaterTargetMl:    domain.DefaultWaterTargetMl,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// =============================================================================
// Users
// =============================================================================

func (m *memStore) CreateUser(_ context.Context, arg repository.CreateUserParams) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateUser"); err != nil {
		return repository.User{}, err
	}
	for _, u := range m.users {
		if u.Email == arg.Email {
			return repository.User{}, &pgconn.PgError{Code: pgUniqueViolation}
		}
	}
	u := m.newUser(arg.Email, arg.PasswordHash, arg.Name)
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetUserByID"); err != nil {
		return repository.User{}, err
	}
	u, ok := m.users[id]
	if !ok {
		return repository.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, sql.ErrNoRows
}

func (m *memStore) ListUsers(_ context.Context, arg repository.ListUsersParams) ([]repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return page(out, arg.Limit, arg.Offset), nil
}

func (m *memStore) DeleteUser(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return 0, nil
	}
	delete(m.users, id)
	for k, s := range m.sessions {
		if s.UserID == id {
			delete(m.sessions, k)
		}
	}
	for k, f := range m.foods {
		if f.UserID == id {
			delete(m.foods, k)
		}
	}
	return 1, nil
}

func (m *memStore) UpdateUserProfile(_ context.Context, arg repository.UpdateUserProfileParams) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[arg.ID]
	if !ok {
		return repository.User{}, sql.ErrNoRows
	}
	u.Name = arg.Name
	u.Goal = arg.Goal
	u.Gender = arg.Gender
	u.Age = arg.Age
	u.HeightCm = arg.HeightCm
	u.WeightKg = arg.WeightKg
	u.TargetWeightKg = arg.TargetWeightKg
	u.ActivityLevel = arg.ActivityLevel
	u.Allergies = arg.Allergies
	u.DailyCalories = arg.DailyCalories
	u.ProteinTarget = arg.ProteinTarget
	u.FatTarget = arg.FatTarget
	u.CarbsTarget = arg.CarbsTarget
	u.WaterTargetMl = arg.WaterTargetMl
	u.OnboardingCompleted = arg.OnboardingCompleted
	u.UpdatedAt = m.now()
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) UpdateUserAvatar(_ context.Context, arg repository.UpdateUserAvatarParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[arg.ID]
	u.Avatar = arg.Avatar
	u.AvatarContentType = arg.AvatarContentType
	m.users[arg.ID] = u
	return nil
}

func (m *memStore) UpdateUserPassword(_ context.Context, arg repository.UpdateUserPasswordParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[arg.ID]
	u.PasswordHash = arg.PasswordHash
	m.users[arg.ID] = u
	return nil
}

// =============================================================================
// Subscriptions
// =============================================================================

func (m *memStore) UpdateUserSubscription(_ context.Context, arg repository.UpdateUserSubscriptionParams) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[arg.ID]
	if !ok {
		return repository.User{}, sql.ErrNoRows
	}
	u.SubscriptionType = arg.SubscriptionType
	u.SubscriptionExpiresAt = arg.SubscriptionExpiresAt
	m.users[u.ID] = u
	return u, nil
}

func expiredPro(u repository.User, now time.Time) bool {
	return u.SubscriptionType == string(domain.SubscriptionPro) &&
		u.SubscriptionExpiresAt.Valid &&
		u.SubscriptionExpiresAt.Time.Before(now)
}

func (m *memStore) DowngradeUserSubscription(_ context.Context, arg repository.DowngradeUserSubscriptionParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DowngradeUserSubscription"); err != nil {
		return 0, err
	}
	u, ok := m.users[arg.ID]
	if !ok || !expiredPro(u, arg.Now) {
		return 0, nil
	}
	u.SubscriptionType = string(domain.SubscriptionFree)
	u.SubscriptionExpiresAt = sql.NullTime{}
	m.users[u.ID] = u
	return 1, nil
}

func (m *memStore) DowngradeExpiredSubscriptions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, u := range m.users {
		if expiredPro(u, now) {
			u.SubscriptionType = string(domain.SubscriptionFree)
			u.SubscriptionExpiresAt = sql.NullTime{}
			m.users[id] = u
			n++
		}
	}
	return n, nil
}

// =============================================================================
// Usage and Streaks
// =============================================================================

func (m *memStore) IncrementUserUsage(_ context.Context, arg repository.IncrementUserUsageParams) (repository.IncrementUserUsageRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("IncrementUserUsage"); err != nil {
		return repository.IncrementUserUsageRow{}, err
	}
	u, ok := m.users[arg.ID]
	if !ok {
		return repository.IncrementUserUsageRow{}, sql.ErrNoRows
	}
	if !u.UsageDate.Valid || u.UsageDate.String != arg.UsageDate {
		u.UsagePhotos, u.UsageMessages, u.UsageRecipes = 0, 0, 0
	}
	switch arg.Kind {
	case "photos":
		u.UsagePhotos++
	case "messages":
		u.UsageMessages++
	case "recipes":
		u.UsageRecipes++
	}
	u.UsageDate = sql.NullString{String: arg.UsageDate, Valid: true}
	m.users[u.ID] = u
	return repository.IncrementUserUsageRow{
		UsageDate:     u.UsageDate,
		UsagePhotos:   u.UsagePhotos,
		UsageMessages: u.UsageMessages,
		UsageRecipes:  u.UsageRecipes,
	}, nil
}

func (m *memStore) UpdateUserStreak(_ context.Context, arg repository.UpdateUserStreakParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateUserStreak"); err != nil {
		return err
	}
	u := m.users[arg.ID]
	u.StreakCurrent = arg.StreakCurrent
	u.StreakLongest = arg.StreakLongest
	u.StreakLastVisit = arg.StreakLastVisit
	m.users[arg.ID] = u
	return nil
}

func (m *memStore) ListActiveStreaks(_ context.Context, before time.Time) ([]repository.ListActiveStreaksRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.ListActiveStreaksRow
	for _, u := range m.users {
		if u.StreakCurrent > 0 && u.StreakLastVisit.Valid && u.StreakLastVisit.Time.Before(before) {
			out = append(out, repository.ListActiveStreaksRow{
				ID:              u.ID,
				StreakCurrent:   u.StreakCurrent,
				StreakLongest:   u.StreakLongest,
				StreakLastVisit: u.StreakLastVisit,
			})
		}
	}
	return out, nil
}

func (m *memStore) ResetUserStreak(_ context.Context, arg repository.ResetUserStreakParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[arg.ID]
	if !ok || u.StreakCurrent == 0 || !u.StreakLastVisit.Time.Equal(arg.StreakLastVisit) {
		return 0, nil
	}
	u.StreakCurrent = 0
	m.users[u.ID] = u
	return 1, nil
}

func (m *memStore) CountUsersBySubscription(_ context.Context) ([]repository.CountUsersBySubscriptionRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, u := range m.users {
		counts[u.SubscriptionType]++
	}
	var out []repository.CountUsersBySubscriptionRow
	for t, c := range counts {
		out = append(out, repository.CountUsersBySubscriptionRow{SubscriptionType: t, Count: c})
	}
	return out, nil
}

func (m *memStore) SumUsageOn(_ context.Context, date string) (repository.SumUsageOnRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var row repository.SumUsageOnRow
	for _, u := range m.users {
		if u.UsageDate.Valid && u.UsageDate.String == date {
			row.ActiveUsers++
			row.Photos += int64(u.UsagePhotos)
			row.Messages += int64(u.UsageMessages)
			row.Recipes += int64(u.UsageRecipes)
		}
	}
	return row, nil
}

// =============================================================================
// Sessions
// =============================================================================

func (m *memStore) CreateSession(_ context.Context, arg repository.CreateSessionParams) (repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := repository.Session{
		ID:        uuid.New(),
		UserID:    arg.UserID,
		TokenHash: arg.TokenHash,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: m.now(),
	}
	m.sessions[arg.TokenHash] = s
	return s, nil
}

func (m *memStore) GetSessionByTokenHash(_ context.Context, tokenHash string) (repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[tokenHash]
	if !ok || !s.ExpiresAt.After(m.now()) {
		return repository.Session{}, sql.ErrNoRows
	}
	return s, nil
}

func (m *memStore) DeleteSession(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tokenHash)
	return nil
}

func (m *memStore) DeleteUserSessions(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, k)
		}
	}
	return nil
}

func (m *memStore) DeleteExpiredSessions(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, s := range m.sessions {
		if !s.ExpiresAt.After(m.now()) {
			delete(m.sessions, k)
			n++
		}
	}
	return n, nil
}

// =============================================================================
// Food
// =============================================================================

func (m *memStore) CreateFoodEntry(_ context.Context, arg repository.CreateFoodEntryParams) (repository.FoodEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateFoodEntry"); err != nil {
		return repository.FoodEntry{}, err
	}
	now := m.now()
	f := repository.FoodEntry{
		ID:               uuid.New(),
		UserID:           arg.UserID,
		Name:             arg.Name,
		Calories:         arg.Calories,
		Protein:          arg.Protein,
		Fat:              arg.Fat,
		Carbs:            arg.Carbs,
		HealthScore:      arg.HealthScore,
		MealType:         arg.MealType,
		Image:            arg.Image,
		ImageContentType: arg.ImageContentType,
		EatenAt:          arg.EatenAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.foods[f.ID] = f
	return f, nil
}

func (m *memStore) GetFoodEntryByID(_ context.Context, id uuid.UUID) (repository.FoodEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.foods[id]
	if !ok {
		return repository.FoodEntry{}, sql.ErrNoRows
	}
	return f, nil
}

func (m *memStore) userFoods(userID uuid.UUID, keep func(repository.FoodEntry) bool) []repository.FoodEntry {
	var out []repository.FoodEntry
	for _, f := range m.foods {
		if f.UserID == userID && keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EatenAt.After(out[j].EatenAt) })
	return out
}

func (m *memStore) ListFoodEntriesByUser(_ context.Context, arg repository.ListFoodEntriesByUserParams) ([]repository.FoodEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.userFoods(arg.UserID, func(repository.FoodEntry) bool { return true })
	return page(all, arg.Limit, arg.Offset), nil
}

func (m *memStore) ListFoodEntriesBetween(_ context.Context, arg repository.ListFoodEntriesBetweenParams) ([]repository.FoodEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userFoods(arg.UserID, func(f repository.FoodEntry) bool {
		return !f.EatenAt.Before(arg.Start) && f.EatenAt.Before(arg.End)
	}), nil
}

func (m *memStore) UpdateFoodEntry(_ context.Context, arg repository.UpdateFoodEntryParams) (repository.FoodEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.foods[arg.ID]
	if !ok || f.UserID != arg.UserID {
		return repository.FoodEntry{}, sql.ErrNoRows
	}
	f.Name = arg.Name
	f.Calories = arg.Calories
	f.Protein = arg.Protein
	f.Fat = arg.Fat
	f.Carbs = arg.Carbs
	f.HealthScore = arg.HealthScore
	f.UpdatedAt = m.now()
	m.foods[f.ID] = f
	return f, nil
}

func (m *memStore) DeleteFoodEntry(_ context.Context, arg repository.DeleteFoodEntryParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.foods[arg.ID]
	if !ok || f.UserID != arg.UserID {
		return 0, nil
	}
	delete(m.foods, arg.ID)
	return 1, nil
}

func (m *memStore) CountFoodEntries(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.foods)), nil
}

func (m *memStore) CreateFavoriteFood(_ context.Context, arg repository.CreateFavoriteFoodParams) (repository.FavoriteFood, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := repository.FavoriteFood{
		ID:        uuid.New(),
		UserID:    arg.UserID,
		Name:      arg.Name,
		Calories:  arg.Calories,
		Protein:   arg.Protein,
		Fat:       arg.Fat,
		Carbs:     arg.Carbs,
		CreatedAt: m.now(),
	}
	m.favorites[f.ID] = f
	return f, nil
}

func (m *memStore) GetFavoriteFood(_ context.Context, arg repository.GetFavoriteFoodParams) (repository.FavoriteFood, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.favorites[arg.ID]
	if !ok || f.UserID != arg.UserID {
		return repository.FavoriteFood{}, sql.ErrNoRows
	}
	return f, nil
}

func (m *memStore) ListFavoriteFoods(_ context.Context, userID uuid.UUID) ([]repository.FavoriteFood, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.FavoriteFood
	for _, f := range m.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memStore) DeleteFavoriteFood(_ context.Context, arg repository.DeleteFavoriteFoodParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.favorites[arg.ID]
	if !ok || f.UserID != arg.UserID {
		return 0, nil
	}
	delete(m.favorites, arg.ID)
	return 1, nil
}

// =============================================================================
// Recipes
// =============================================================================

// seedRecipe inserts a recipe; owner nil makes it built-in.
func (m *memStore) seedRecipe(owner *uuid.UUID, name string) repository.Recipe {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := repository.Recipe{ID: uuid.New(), Name: name, CreatedAt: m.now(), UpdatedAt: m.now()}
	if owner != nil {
		r.UserID = uuid.NullUUID{UUID: *owner, Valid: true}
	}
	m.recipes[r.ID] = r
	return r
}

func (m *memStore) recipeRow(r repository.Recipe, userID uuid.UUID) repository.RecipeRow {
	return repository.RecipeRow{Recipe: r, IsFavorite: m.favRecipe[[2]uuid.UUID{userID, r.ID}]}
}

func (m *memStore) CreateRecipe(_ context.Context, arg repository.CreateRecipeParams) (repository.RecipeRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	r := repository.Recipe{
		ID:               uuid.New(),
		UserID:           arg.UserID,
		Name:             arg.Name,
		Description:      arg.Description,
		Calories:         arg.Calories,
		Protein:          arg.Protein,
		Fat:              arg.Fat,
		Carbs:            arg.Carbs,
		PrepMinutes:      arg.PrepMinutes,
		CookTime:         arg.CookTime,
		Difficulty:       arg.Difficulty,
		Servings:         arg.Servings,
		Ingredients:      arg.Ingredients,
		Instructions:     arg.Instructions,
		Image:            arg.Image,
		ImageContentType: arg.ImageContentType,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.recipes[r.ID] = r
	return m.recipeRow(r, arg.UserID.UUID), nil
}

func (m *memStore) GetRecipeForUser(_ context.Context, arg repository.GetRecipeForUserParams) (repository.RecipeRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[arg.ID]
	if !ok {
		return repository.RecipeRow{}, sql.ErrNoRows
	}
	return m.recipeRow(r, arg.UserID), nil
}

func (m *memStore) ListRecipesForUser(_ context.Context, arg repository.ListRecipesForUserParams) ([]repository.RecipeRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.RecipeRow
	for _, r := range m.recipes {
		if !r.UserID.Valid || r.UserID.UUID == arg.UserID {
			out = append(out, m.recipeRow(r, arg.UserID))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID.Valid != out[j].UserID.Valid {
			return out[i].UserID.Valid
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, arg.Limit, arg.Offset), nil
}

func (m *memStore) ListFavoriteRecipes(_ context.Context, userID uuid.UUID) ([]repository.RecipeRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.RecipeRow
	for key := range m.favRecipe {
		if key[0] != userID {
			continue
		}
		if r, ok := m.recipes[key[1]]; ok {
			out = append(out, repository.RecipeRow{Recipe: r, IsFavorite: true})
		}
	}
	return out, nil
}

func (m *memStore) UpdateRecipe(_ context.Context, arg repository.UpdateRecipeParams) (repository.RecipeRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateRecipe"); err != nil {
		return repository.RecipeRow{}, err
	}
	r, ok := m.recipes[arg.ID]
	if !ok || !r.UserID.Valid || r.UserID.UUID != arg.UserID {
		return repository.RecipeRow{}, sql.ErrNoRows
	}
	r.Name = arg.Name
	r.Description = arg.Description
	r.Calories = arg.Calories
	r.Protein, r.Fat, r.Carbs = arg.Protein, arg.Fat, arg.Carbs
	r.PrepMinutes = arg.PrepMinutes
	r.CookTime = arg.CookTime
	r.Difficulty = arg.Difficulty
	r.Servings = arg.Servings
	r.Ingredients = arg.Ingredients
	r.Instructions = arg.Instructions
	r.UpdatedAt = m.now()
	m.recipes[r.ID] = r
	return m.recipeRow(r, arg.UserID), nil
}

func (m *memStore) DeleteRecipe(_ context.Context, arg repository.DeleteRecipeParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[arg.ID]
	if !ok || !r.UserID.Valid || r.UserID.UUID != arg.UserID {
		return 0, nil
	}
	delete(m.recipes, arg.ID)
	return 1, nil
}

func (m *memStore) AddFavoriteRecipe(_ context.Context, arg repository.AddFavoriteRecipeParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.favRecipe[[2]uuid.UUID{arg.UserID, arg.RecipeID}] = true
	return nil
}

func (m *memStore) RemoveFavoriteRecipe(_ context.Context, arg repository.RemoveFavoriteRecipeParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.favRecipe, [2]uuid.UUID{arg.UserID, arg.RecipeID})
	return nil
}

func (m *memStore) CountUserRecipes(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.recipes {
		if r.UserID.Valid {
			n++
		}
	}
	return n, nil
}

// =============================================================================
// Water
// =============================================================================

func (m *memStore) GetWaterIntake(_ context.Context, arg repository.GetWaterIntakeParams) (repository.WaterIntake, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.water[arg.UserID.String()+"/"+arg.Date]
	if !ok {
		return repository.WaterIntake{}, sql.ErrNoRows
	}
	return w, nil
}

func (m *memStore) UpsertWaterIntake(_ context.Context, arg repository.UpsertWaterIntakeParams) (repository.WaterIntake, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := repository.WaterIntake{UserID: arg.UserID, Date: arg.Date, AmountMl: arg.AmountMl, UpdatedAt: m.now()}
	m.water[arg.UserID.String()+"/"+arg.Date] = w
	return w, nil
}

func page[T any](items []T, limit, offset int32) []T {
	if int(offset) >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}

var (
	_ UserStore         = (*memStore)(nil)
	_ SubscriptionStore = (*memStore)(nil)
	_ UsageStore        = (*memStore)(nil)
	_ StreakStore       = (*memStore)(nil)
	_ FoodStore         = (*memStore)(nil)
	_ RecipeStore       = (*memStore)(nil)
	_ WaterStore        = (*memStore)(nil)
	_ ChatStore         = (*memStore)(nil)
	_ AdminStore        = (*memStore)(nil)
)

// =============================================================================
// App Settings
// =============================================================================

func (m *memStore) GetAppSettings(_ context.Context) (repository.AppSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetAppSettings"); err != nil {
		return repository.AppSettings{}, err
	}
	return m.settings, nil
}

func (m *memStore) ToggleRegistration(_ context.Context) (repository.AppSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ToggleRegistration"); err != nil {
		return repository.AppSettings{}, err
	}
	m.settings.RegistrationEnabled = !m.settings.RegistrationEnabled
	m.settings.UpdatedAt = m.now()
	return m.settings, nil
}

func (m *memStore) UpdateAppVersion(_ context.Context, arg repository.UpdateAppVersionParams) (repository.AppSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateAppVersion"); err != nil {
		return repository.AppSettings{}, err
	}
	m.settings.CurrentVersion = arg.CurrentVersion
	m.settings.UpdateDescription = arg.UpdateDescription
	m.settings.HasUpdate = true
	m.settings.UpdatedAt = m.now()
	return m.settings, nil
}
