// Package domain contains core business types and interfaces.
//
// This file defines food diary entries, AI food analyses, favourites and
// the per-day nutrition summary.
package domain

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Meal Type
// =============================================================================

// MealType tags an entry by the local time it was logged.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealTypeForHour maps a local hour (0-23) to a meal type.
func MealTypeForHour(hour int) MealType {
	switch {
	case hour >= 6 && hour < 12:
		return MealBreakfast
	case hour >= 12 && hour < 16:
		return MealLunch
	case hour >= 16 && hour < 21:
		return MealDinner
	default:
		return MealSnack
	}
}

// MealTypeAt returns the meal type for the local hour of t.
func MealTypeAt(cal *Calendar, t time.Time) MealType {
	return MealTypeForHour(t.In(cal.Location()).Hour())
}

// =============================================================================
// Nutrition
// =============================================================================

// Macros are grams of protein, fat and carbohydrates.
type Macros struct {
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Carbs   float64 `json:"carbs"`
}

// Add returns the element-wise sum.
func (m Macros) Add(o Macros) Macros {
	return Macros{Protein: m.Protein + o.Protein, Fat: m.Fat + o.Fat, Carbs: m.Carbs + o.Carbs}
}

// Rounded rounds each value to one decimal place.
func (m Macros) Rounded() Macros {
	r := func(v float64) float64 { return math.Round(v*10) / 10 }
	return Macros{Protein: r(m.Protein), Fat: r(m.Fat), Carbs: r(m.Carbs)}
}

// DefaultHealthScore applies when the analysis did not rate the dish.
const DefaultHealthScore = 50

// DefaultFoodName is used when the analysis returned no name.
const DefaultFoodName = "Unknown dish"

// FoodAnalysis is the nutrition estimate returned by the AI provider.
type FoodAnalysis struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji,omitempty"`
	Calories    int    `json:"calories"`
	Macros      Macros `json:"macros"`
	HealthScore int    `json:"healthScore"`
}

// Normalize clamps the estimate into storable ranges.
func (a FoodAnalysis) Normalize() FoodAnalysis {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		a.Name = DefaultFoodName
	}
	if a.Calories < 0 {
		a.Calories = 0
	}
	a.Macros.Protein = math.Max(a.Macros.Protein, 0)
	a.Macros.Fat = math.Max(a.Macros.Fat, 0)
	a.Macros.Carbs = math.Max(a.Macros.Carbs, 0)
	a.HealthScore = clampHealthScore(a.HealthScore)
	return a
}

func clampHealthScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// =============================================================================
// Food Entry
// =============================================================================

// FoodEntry is one logged dish in a user's diary.
type FoodEntry struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Calories    int
	Macros      Macros
	HealthScore int
	MealType    MealType
	Image       *Image
	EatenAt     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateFoodEntryParams contains the fields of a new entry.
type CreateFoodEntryParams struct {
	UserID      uuid.UUID
	Name        string
	Calories    int
	Macros      Macros
	HealthScore int
	MealType    MealType
	Image       *Image
	EatenAt     time.Time
}

// NewFoodEntryParams builds create params from a normalized analysis.
func NewFoodEntryParams(cal *Calendar, userID uuid.UUID, a FoodAnalysis, img *Image, now time.Time) CreateFoodEntryParams {
	a = a.Normalize()
	return CreateFoodEntryParams{
		UserID:      userID,
		Name:        a.Name,
		Calories:    a.Calories,
		Macros:      a.Macros,
		HealthScore: a.HealthScore,
		MealType:    MealTypeAt(cal, now),
		Image:       img,
		EatenAt:     now,
	}
}

// UpdateFoodEntryParams is a partial edit of an entry. Nil fields are unchanged.
type UpdateFoodEntryParams struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        *string
	Calories    *int
	Macros      *Macros
	HealthScore *int
}

// Validate checks the supplied fields.
func (p UpdateFoodEntryParams) Validate() error {
	const op = "food.update.validate"

	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return NewValidationError(op, "name", "Name cannot be empty")
	}
	if p.Calories != nil && *p.Calories < 0 {
		return NewValidationError(op, "calories", "Calories must not be negative")
	}
	if p.Macros != nil && (p.Macros.Protein < 0 || p.Macros.Fat < 0 || p.Macros.Carbs < 0) {
		return NewValidationError(op, "macros", "Macros must not be negative")
	}
	if p.HealthScore != nil && (*p.HealthScore < 0 || *p.HealthScore > 100) {
		return NewValidationError(op, "healthScore", "Health score must be between 0 and 100")
	}
	return nil
}

// Apply returns e with the edit applied.
func (p UpdateFoodEntryParams) Apply(e FoodEntry) FoodEntry {
	if p.Name != nil {
		e.Name = strings.TrimSpace(*p.Name)
	}
	if p.Calories != nil {
		e.Calories = *p.Calories
	}
	if p.Macros != nil {
		e.Macros = *p.Macros
	}
	if p.HealthScore != nil {
		e.HealthScore = *p.HealthScore
	}
	return e
}

// FavoriteFood is a saved dish that can be re-logged without analysis.
type FavoriteFood struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Calories  int
	Macros    Macros
	CreatedAt time.Time
}

// =============================================================================
// Daily Summary
// =============================================================================

// DailySummary totals one local day against the user's targets.
type DailySummary struct {
	Date              string
	TotalCalories     int
	TargetCalories    int
	RemainingCalories int
	Consumed          Macros
	Target            Macros
	Foods             []FoodEntry
}

// SummarizeDay totals the entries of a day.
func SummarizeDay(date string, profile Profile, foods []FoodEntry) DailySummary {
	s := DailySummary{
		Date:           date,
		TargetCalories: profile.DailyCalories,
		Target: Macros{
			Protein: float64(profile.ProteinTarget),
			Fat:     float64(profile.FatTarget),
			Carbs:   float64(profile.CarbsTarget),
		},
		Foods: foods,
	}
	for _, f := range foods {
		s.TotalCalories += f.Calories
		s.Consumed = s.Consumed.Add(f.Macros)
	}
	s.Consumed = s.Consumed.Rounded()
	s.RemainingCalories = s.TargetCalories - s.TotalCalories
	return s
}

// =============================================================================
// Progress
// =============================================================================

// ProgressDays is the length of the weekly progress window, today included.
const ProgressDays = 7

// DayProgress is one day of the weekly calorie chart.
type DayProgress struct {
	Date           string
	TotalCalories  int
	TargetCalories int
	Percentage     int
	FoodCount      int
}

// WeeklyProgress buckets foods into the ProgressDays local days ending with
// the day of today, oldest first. Days without entries are still present.
func WeeklyProgress(cal *Calendar, today time.Time, target int, foods []FoodEntry) []DayProgress {
	days := make([]DayProgress, ProgressDays)
	index := make(map[string]int, ProgressDays)
	for i := range days {
		key := cal.DateKey(cal.AddDays(today, i-(ProgressDays-1)))
		days[i] = DayProgress{Date: key, TargetCalories: target}
		index[key] = i
	}

	for _, f := range foods {
		i, ok := index[cal.DateKey(f.EatenAt)]
		if !ok {
			continue
		}
		days[i].TotalCalories += f.Calories
		days[i].FoodCount++
	}

	for i := range days {
		if target > 0 {
			days[i].Percentage = int(math.Round(float64(days[i].TotalCalories) / float64(target) * 100))
		}
	}
	return days
}

// ActiveDays returns the distinct local dates of foods in ascending order.
func ActiveDays(cal *Calendar, foods []FoodEntry) []string {
	seen := make(map[string]struct{}, len(foods))
	out := make([]string, 0)
	for _, f := range foods {
		key := cal.DateKey(f.EatenAt)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}
