package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

// =============================================================================
// Users
// =============================================================================

type subscriptionResponse struct {
	Type          string     `json:"type"`
	IsPro         bool       `json:"isPro"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	RemainingDays *int       `json:"remainingDays,omitempty"`
}

type streakResponse struct {
	Current   int        `json:"current"`
	Longest   int        `json:"longest"`
	LastVisit *time.Time `json:"lastVisit"`
}

type profileResponse struct {
	Goal                string   `json:"goal,omitempty"`
	Gender              string   `json:"gender,omitempty"`
	Age                 int      `json:"age,omitempty"`
	HeightCm            float64  `json:"height,omitempty"`
	WeightKg            float64  `json:"weight,omitempty"`
	TargetWeightKg      float64  `json:"targetWeight,omitempty"`
	ActivityLevel       string   `json:"activityLevel,omitempty"`
	Allergies           []string `json:"allergies"`
	DailyCalories       int      `json:"dailyCalories"`
	ProteinTarget       int      `json:"proteinTarget"`
	FatTarget           int      `json:"fatTarget"`
	CarbsTarget         int      `json:"carbsTarget"`
	WaterTargetMl       int      `json:"waterTarget"`
	OnboardingCompleted bool     `json:"onboardingCompleted"`
}

type userResponse struct {
	ID           uuid.UUID            `json:"id"`
	Email        string               `json:"email"`
	Name         string               `json:"name"`
	Avatar       *string              `json:"avatar"`
	Subscription subscriptionResponse `json:"subscription"`
	Streak       streakResponse       `json:"streak"`
	Profile      profileResponse      `json:"profile"`
	CreatedAt    time.Time            `json:"createdAt"`
}

func toSubscriptionResponse(s domain.Subscription) subscriptionResponse {
	return subscriptionResponse{Type: s.Type.String(), IsPro: s.IsPro(), ExpiresAt: s.ExpiresAt}
}

func toStreakResponse(s domain.Streak) streakResponse {
	return streakResponse{Current: s.Current, Longest: s.Longest, LastVisit: s.LastVisit}
}

func toUserResponse(u *domain.User) userResponse {
	p := u.Profile
	allergies := p.Allergies
	if allergies == nil {
		allergies = []string{}
	}
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Avatar:       imageURI(u.Avatar),
		Subscription: toSubscriptionResponse(u.Subscription),
		Streak:       toStreakResponse(u.Streak),
		Profile: profileResponse{
			Goal:                p.Goal,
			Gender:              p.Gender,
			Age:                 p.Age,
			HeightCm:            p.HeightCm,
			WeightKg:            p.WeightKg,
			TargetWeightKg:      p.TargetWeightKg,
			ActivityLevel:       p.ActivityLevel,
			Allergies:           allergies,
			DailyCalories:       p.DailyCalories,
			ProteinTarget:       p.ProteinTarget,
			FatTarget:           p.FatTarget,
			CarbsTarget:         p.CarbsTarget,
			WaterTargetMl:       p.WaterTargetMl,
			OnboardingCompleted: p.OnboardingCompleted,
		},
		CreatedAt: u.CreatedAt,
	}
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type limitsResponse struct {
	Subscription subscriptionResponse        `json:"subscription"`
	Date         string                      `json:"date"`
	Photos       domain.KindLimit            `json:"photos"`
	Messages     domain.KindLimit            `json:"messages"`
	Recipes      domain.KindLimit            `json:"recipes"`
	Usage        map[string]domain.KindLimit `json:"usage"`
}

func toLimitsResponse(s *service.LimitSummary) limitsResponse {
	sub := toSubscriptionResponse(s.Subscription)
	days := s.RemainingDays
	sub.RemainingDays = &days

	usage := make(map[string]domain.KindLimit, len(s.Usage))
	for kind, l := range s.Usage {
		usage[string(kind)] = l
	}
	return limitsResponse{
		Subscription: sub,
		Date:         s.Date,
		Photos:       s.Usage[domain.UsagePhotos],
		Messages:     s.Usage[domain.UsageMessages],
		Recipes:      s.Usage[domain.UsageRecipes],
		Usage:        usage,
	}
}

// =============================================================================
// Food
// =============================================================================

type foodEntryResponse struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Calories    int           `json:"calories"`
	Macros      domain.Macros `json:"macros"`
	HealthScore int           `json:"healthScore"`
	MealType    string        `json:"mealType"`
	Image       *string       `json:"image"`
	EatenAt     time.Time     `json:"eatenAt"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func toFoodEntryResponse(e *domain.FoodEntry) foodEntryResponse {
	return foodEntryResponse{
		ID:          e.ID,
		Name:        e.Name,
		Calories:    e.Calories,
		Macros:      e.Macros,
		HealthScore: e.HealthScore,
		MealType:    string(e.MealType),
		Image:       imageURI(e.Image),
		EatenAt:     e.EatenAt,
		CreatedAt:   e.CreatedAt,
	}
}

func toFoodEntryResponses(entries []domain.FoodEntry) []foodEntryResponse {
	out := make([]foodEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toFoodEntryResponse(&entries[i]))
	}
	return out
}

type favoriteFoodResponse struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Calories  int           `json:"calories"`
	Macros    domain.Macros `json:"macros"`
	CreatedAt time.Time     `json:"createdAt"`
}

func toFavoriteFoodResponse(f *domain.FavoriteFood) favoriteFoodResponse {
	return favoriteFoodResponse{ID: f.ID, Name: f.Name, Calories: f.Calories, Macros: f.Macros, CreatedAt: f.CreatedAt}
}

type dailySummaryResponse struct {
	Date              string              `json:"date"`
	TotalCalories     int                 `json:"totalCalories"`
	TargetCalories    int                 `json:"targetCalories"`
	RemainingCalories int                 `json:"remainingCalories"`
	Consumed          domain.Macros       `json:"consumed"`
	Target            domain.Macros       `json:"target"`
	Foods             []foodEntryResponse `json:"foods"`
}

func toDailySummaryResponse(s *domain.DailySummary) dailySummaryResponse {
	return dailySummaryResponse{
		Date:              s.Date,
		TotalCalories:     s.TotalCalories,
		TargetCalories:    s.TargetCalories,
		RemainingCalories: s.RemainingCalories,
		Consumed:          s.Consumed,
		Target:            s.Target,
		Foods:             toFoodEntryResponses(s.Foods),
	}
}

type dayProgressResponse struct {
	Date           string `json:"date"`
	TotalCalories  int    `json:"totalCalories"`
	TargetCalories int    `json:"targetCalories"`
	Percentage     int    `json:"percentage"`
	FoodCount      int    `json:"foodCount"`
}

func toDayProgressResponses(days []domain.DayProgress) []dayProgressResponse {
	out := make([]dayProgressResponse, 0, len(days))
	for _, d := range days {
		out = append(out, dayProgressResponse(d))
	}
	return out
}

type waterResponse struct {
	Date      string     `json:"date"`
	Amount    int        `json:"amount"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func toWaterResponse(w *domain.WaterIntake) waterResponse {
	resp := waterResponse{Date: w.Date, Amount: w.AmountMl}
	if !w.UpdatedAt.IsZero() {
		t := w.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}

// =============================================================================
// Recipes
// =============================================================================

type recipeResponse struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Calories     int                 `json:"calories"`
	Macros       domain.Macros       `json:"macros"`
	PrepTime     int                 `json:"prepTime"`
	CookTime     string              `json:"cookTime"`
	Difficulty   string              `json:"difficulty"`
	Servings     int                 `json:"servings"`
	Ingredients  []domain.Ingredient `json:"ingredients"`
	Instructions []string            `json:"instructions"`
	Image        *string             `json:"image"`
	IsFavorite   bool                `json:"isFavorite"`
	IsSystem     bool                `json:"isSystem"`
	CreatedAt    time.Time           `json:"createdAt"`
}

func toRecipeResponse(r *domain.Recipe) recipeResponse {
	return recipeResponse{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Calories:     r.Calories,
		Macros:       r.Macros,
		PrepTime:     r.PrepMinutes,
		CookTime:     r.CookTime,
		Difficulty:   r.Difficulty,
		Servings:     r.Servings,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		Image:        imageURI(r.Image),
		IsFavorite:   r.IsFavorite,
		IsSystem:     r.IsSystem(),
		CreatedAt:    r.CreatedAt,
	}
}

func toRecipeResponses(recipes []domain.Recipe) []recipeResponse {
	out := make([]recipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, toRecipeResponse(&recipes[i]))
	}
	return out
}

// imageURI renders a stored image as an inline data URI, nil when absent.
func imageURI(img *domain.Image) *string {
	if img.IsEmpty() {
		return nil
	}
	uri := img.DataURI()
	return &uri
}
