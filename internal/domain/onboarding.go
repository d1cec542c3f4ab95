package domain

import (
	"math"

	"github.com/google/uuid"
)

// Goals recognised by the calorie calculation.
const (
	GoalLoseWeight = "lose_weight"
	GoalMaintain   = "maintain"
	GoalGainMuscle = "gain_muscle"
)

var activityMultipliers = map[string]float64{
	"low":      1.2,
	"moderate": 1.5,
	"high":     1.8,
}

// OnboardingParams are the answers of the first-run questionnaire.
type OnboardingParams struct {
	UserID        uuid.UUID
	Goal          string
	Gender        string
	Age           int
	HeightCm      float64
	WeightKg      float64
	ActivityLevel string
	Allergies     []string
}

// Validate checks that the calculation has what it needs.
func (p OnboardingParams) Validate() error {
	const op = "onboarding.validate"

	var ve *ValidationError
	add := func(field, msg string) {
		if ve == nil {
			ve = NewValidationError(op, field, msg)
			return
		}
		ve.Fields[field] = msg
	}

	if p.Age < 1 || p.Age > 120 {
		add("age", "Age must be between 1 and 120")
	}
	if p.HeightCm < 50 || p.HeightCm > 300 {
		add("height", "Height must be between 50 and 300 cm")
	}
	if p.WeightKg < 20 || p.WeightKg > 500 {
		add("weight", "Weight must be between 20 and 500 kg")
	}
	if _, ok := activityMultipliers[p.ActivityLevel]; !ok {
		add("activityLevel", `Activity level must be "low", "moderate" or "high"`)
	}
	switch p.Goal {
	case GoalLoseWeight, GoalMaintain, GoalGainMuscle:
	default:
		add("goal", `Goal must be "lose_weight", "maintain" or "gain_muscle"`)
	}

	if ve != nil {
		return ve
	}
	return nil
}

// Targets computes the daily calorie and macro targets with the
// Mifflin-St Jeor equation. Macros split 30/25/45 percent of calories.
func (p OnboardingParams) Targets() (calories, protein, fat, carbs int) {
	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Gender == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	multiplier, ok := activityMultipliers[p.ActivityLevel]
	if !ok {
		multiplier = activityMultipliers["moderate"]
	}
	kcal := math.Round(bmr * multiplier)

	switch p.Goal {
	case GoalLoseWeight:
		kcal = math.Round(kcal * 0.85)
	case GoalGainMuscle:
		kcal = math.Round(kcal * 1.15)
	}

	calories = int(kcal)
	protein = int(math.Round(kcal * 0.30 / 4))
	fat = int(math.Round(kcal * 0.25 / 9))
	carbs = int(math.Round(kcal * 0.45 / 4))
	return calories, protein, fat, carbs
}

// Apply returns the profile produced by completing onboarding.
func (p OnboardingParams) Apply(profile Profile) Profile {
	profile.Goal = p.Goal
	profile.Gender = p.Gender
	profile.Age = p.Age
	profile.HeightCm = p.HeightCm
	profile.WeightKg = p.WeightKg
	profile.ActivityLevel = p.ActivityLevel
	profile.Allergies = p.Allergies
	if profile.Allergies == nil {
		profile.Allergies = []string{}
	}
	profile.DailyCalories, profile.ProteinTarget, profile.FatTarget, profile.CarbsTarget = p.Targets()
	profile.OnboardingCompleted = true
	return profile
}
