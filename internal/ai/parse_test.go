package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    string
		wantErr bool
	}{
		{name: "bare object", answer: `{"name":"Суп"}`, want: `{"name":"Суп"}`},
		{name: "fenced", answer: "```json\n{\"name\":\"Суп\"}\n```", want: `{"name":"Суп"}`},
		{name: "prose around", answer: `Вот результат: {"name":"Суп"} Приятного аппетита!`, want: `{"name":"Суп"}`},
		{name: "array takes first", answer: `[{"name":"Суп"},{"name":"Хлеб"}]`, want: `{"name":"Суп"}`},
		{name: "no object", answer: "Не могу определить блюдо", wantErr: true},
		{name: "broken object", answer: `{"name": "Суп"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.answer)
			if tt.wantErr {
				assert.ErrorIs(t, err, EAIInvalidResponse)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestParseFoodAnalysis(t *testing.T) {
	t.Run("full answer", func(t *testing.T) {
		a, err := ParseFoodAnalysis(`{"name":"шаурма с курицей","emoji":"🌯","calories":612.6,
			"macros":{"protein":"32,4","fat":27,"carbs":55.56},"healthScore":35}`)
		require.NoError(t, err)

		assert.Equal(t, "Шаурма с курицей", a.Name)
		assert.Equal(t, "🌯", a.Emoji)
		assert.Equal(t, 613, a.Calories)
		assert.Equal(t, domain.Macros{Protein: 32.4, Fat: 27, Carbs: 55.6}, a.Macros)
		assert.Equal(t, 35, a.HealthScore)
	})

	t.Run("missing health score defaults to 50", func(t *testing.T) {
		a, err := ParseFoodAnalysis(`{"name":"Яблоко","calories":95,"macros":{"protein":0.5,"fat":0.3,"carbs":25}}`)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultHealthScore, a.HealthScore)
	})

	t.Run("loose numbers", func(t *testing.T) {
		a, err := ParseFoodAnalysis(`{"name":"Каша","calories":"~150 ккал","macros":{}}`)
		require.NoError(t, err)
		assert.Equal(t, 150, a.Calories)
	})

	t.Run("empty name falls back", func(t *testing.T) {
		a, err := ParseFoodAnalysis(`{"calories":100}`)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultFoodName, a.Name)
	})

	t.Run("out of range values are clamped", func(t *testing.T) {
		a, err := ParseFoodAnalysis(`{"name":"x","calories":-5,"healthScore":140}`)
		require.NoError(t, err)
		assert.Equal(t, 0, a.Calories)
		assert.Equal(t, 100, a.HealthScore)
	})
}

func TestParseRecipe(t *testing.T) {
	r, err := ParseRecipe(`{
		"name": "борщ",
		"calories": 320,
		"macros": {"protein": 12, "fat": 10, "carbs": 40},
		"prepTime": "45",
		"cookTime": "01:30",
		"difficulty": "Средне",
		"servings": 4,
		"ingredients": [
			{"name": "Свёкла", "amount": 2, "unit": "шт", "calories": 70},
			{"name": "Капуста", "amount": "300", "unit": "г", "calories": 75}
		],
		"instructions": ["Шаг 1: Сварите бульон", "Шаг 2: Добавьте овощи"]
	}`)
	require.NoError(t, err)

	assert.Equal(t, "Борщ", r.Name)
	assert.Equal(t, 45, r.PrepMinutes)
	assert.Equal(t, "01:30", r.CookTime)
	assert.Equal(t, domain.DifficultyMedium, r.Difficulty)
	assert.Equal(t, 4, r.Servings)
	require.Len(t, r.Ingredients, 2)
	assert.Equal(t, "2", r.Ingredients[0].Amount)
	assert.Equal(t, "Капуста", r.Ingredients[1].Name)
	assert.Equal(t, []string{"Шаг 1: Сварите бульон", "Шаг 2: Добавьте овощи"}, r.Instructions)
}

func TestDishName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"плов с курицей", "Плов с курицей"},
		{"  «салат   цезарь»  ", "Салат цезарь"},
		{"BBQ ribs", "BBQ ribs"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DishName(tt.in), tt.in)
	}
}
