package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboardingParams_Targets(t *testing.T) {
	tests := []struct {
		name                         string
		params                       OnboardingParams
		calories, protein, fat, carb int
	}{
		{
			name:     "male maintain moderate",
			params:   OnboardingParams{Goal: GoalMaintain, Gender: "male", Age: 30, HeightCm: 180, WeightKg: 80, ActivityLevel: "moderate"},
			calories: 2670, protein: 200, fat: 74, carb: 300,
		},
		{
			name:     "female losing weight low activity",
			params:   OnboardingParams{Goal: GoalLoseWeight, Gender: "female", Age: 25, HeightCm: 165, WeightKg: 60, ActivityLevel: "low"},
			calories: 1372, protein: 103, fat: 38, carb: 154,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calories, protein, fat, carbs := tt.params.Targets()
			assert.Equal(t, tt.calories, calories)
			assert.Equal(t, tt.protein, protein)
			assert.Equal(t, tt.fat, fat)
			assert.Equal(t, tt.carb, carbs)
		})
	}
}

func TestOnboardingParams_Validate(t *testing.T) {
	valid := OnboardingParams{Goal: GoalGainMuscle, Gender: "male", Age: 30, HeightCm: 180, WeightKg: 80, ActivityLevel: "high"}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.Age = 0
	bad.ActivityLevel = "extreme"
	err := bad.Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "age")
	assert.Contains(t, ve.Fields, "activityLevel")
}

func TestOnboardingParams_Apply(t *testing.T) {
	p := OnboardingParams{Goal: GoalMaintain, Gender: "male", Age: 30, HeightCm: 180, WeightKg: 80, ActivityLevel: "moderate"}
	profile := p.Apply(Profile{WaterTargetMl: DefaultWaterTargetMl})

	assert.True(t, profile.OnboardingCompleted)
	assert.Equal(t, 2670, profile.DailyCalories)
	assert.Equal(t, DefaultWaterTargetMl, profile.WaterTargetMl)
	assert.NotNil(t, profile.Allergies)
}
