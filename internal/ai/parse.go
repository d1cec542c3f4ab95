package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
)

// ExtractJSON returns the JSON object in a model answer. The answer may be
// bare JSON, a fenced block, prose around an object, or an array whose first
// element is the object.
func ExtractJSON(answer string) ([]byte, error) {
	trimmed := strings.TrimSpace(answer)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if obj, ok := firstObject([]byte(trimmed)); ok {
		return obj, nil
	}

	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", EAIInvalidResponse)
	}
	candidate := []byte(trimmed[start : end+1])
	if !json.Valid(candidate) {
		return nil, fmt.Errorf("%w: malformed JSON object", EAIInvalidResponse)
	}
	return candidate, nil
}

func firstObject(data []byte) ([]byte, bool) {
	if !json.Valid(data) {
		return nil, false
	}
	switch {
	case bytes.HasPrefix(data, []byte("{")):
		return data, true
	case bytes.HasPrefix(data, []byte("[")):
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil || len(items) == 0 {
			return nil, false
		}
		return firstObject(bytes.TrimSpace(items[0]))
	}
	return nil, false
}

// number accepts 12, 12.5 and "12.5".
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Values such as "~120" or "150 ккал" still carry a usable number.
		f, err = leadingNumber(s)
		if err != nil {
			return nil
		}
	}
	*n = number(f)
	return nil
}

func (n number) int() int {
	return int(math.Round(float64(n)))
}

func leadingNumber(s string) (float64, error) {
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return 0, fmt.Errorf("no digits in %q", s)
	}
	end := start
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	return strconv.ParseFloat(s[start:end], 64)
}

// text accepts strings and numbers.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = text(s)
		return nil
	}
	*t = text(strings.Trim(string(b), `"`))
	if *t == "null" {
		*t = ""
	}
	return nil
}

type rawMacros struct {
	Protein number `json:"protein"`
	Fat     number `json:"fat"`
	Carbs   number `json:"carbs"`
}

func (m rawMacros) domain() domain.Macros {
	return domain.Macros{
		Protein: float64(m.Protein),
		Fat:     float64(m.Fat),
		Carbs:   float64(m.Carbs),
	}.Rounded()
}

type rawFood struct {
	Name        text      `json:"name"`
	Emoji       text      `json:"emoji"`
	Calories    number    `json:"calories"`
	Macros      rawMacros `json:"macros"`
	HealthScore *number   `json:"healthScore"`
}

// ParseFoodAnalysis reads a nutrition estimate out of a model answer.
// A missing health score becomes the default of 50.
func ParseFoodAnalysis(answer string) (domain.FoodAnalysis, error) {
	data, err := ExtractJSON(answer)
	if err != nil {
		return domain.FoodAnalysis{}, err
	}
	var raw rawFood
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.FoodAnalysis{}, fmt.Errorf("%w: %v", EAIInvalidResponse, err)
	}

	score := domain.DefaultHealthScore
	if raw.HealthScore != nil {
		score = raw.HealthScore.int()
	}
	a := domain.FoodAnalysis{
		Name:        DishName(string(raw.Name)),
		Emoji:       strings.TrimSpace(string(raw.Emoji)),
		Calories:    raw.Calories.int(),
		Macros:      raw.Macros.domain(),
		HealthScore: score,
	}
	return a.Normalize(), nil
}

type rawIngredient struct {
	Name     text   `json:"name"`
	Amount   text   `json:"amount"`
	Unit     text   `json:"unit"`
	Calories number `json:"calories"`
}

type rawRecipe struct {
	Name         text            `json:"name"`
	Description  text            `json:"description"`
	Calories     number          `json:"calories"`
	Macros       rawMacros       `json:"macros"`
	PrepTime     number          `json:"prepTime"`
	CookTime     text            `json:"cookTime"`
	Difficulty   text            `json:"difficulty"`
	Servings     number          `json:"servings"`
	Ingredients  []rawIngredient `json:"ingredients"`
	Instructions []text          `json:"instructions"`
}

var difficultyAliases = map[string]string{
	"легко":  domain.DifficultyEasy,
	"просто": domain.DifficultyEasy,
	"средне": domain.DifficultyMedium,
	"сложно": domain.DifficultyHard,
}

// ParseRecipe reads a recipe out of a model answer. The result is not
// normalized; callers apply GeneratedRecipe.Normalize with their fallback name.
func ParseRecipe(answer string) (domain.GeneratedRecipe, error) {
	data, err := ExtractJSON(answer)
	if err != nil {
		return domain.GeneratedRecipe{}, err
	}
	var raw rawRecipe
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.GeneratedRecipe{}, fmt.Errorf("%w: %v", EAIInvalidResponse, err)
	}

	difficulty := strings.ToLower(strings.TrimSpace(string(raw.Difficulty)))
	if alias, ok := difficultyAliases[difficulty]; ok {
		difficulty = alias
	}

	r := domain.GeneratedRecipe{
		Name:         DishName(string(raw.Name)),
		Description:  strings.TrimSpace(string(raw.Description)),
		Calories:     raw.Calories.int(),
		Macros:       raw.Macros.domain(),
		PrepMinutes:  raw.PrepTime.int(),
		CookTime:     strings.TrimSpace(string(raw.CookTime)),
		Difficulty:   difficulty,
		Servings:     raw.Servings.int(),
		Ingredients:  make([]domain.Ingredient, 0, len(raw.Ingredients)),
		Instructions: make([]string, 0, len(raw.Instructions)),
	}
	for _, in := range raw.Ingredients {
		r.Ingredients = append(r.Ingredients, domain.Ingredient{
			Name:     strings.TrimSpace(string(in.Name)),
			Amount:   strings.TrimSpace(string(in.Amount)),
			Unit:     strings.TrimSpace(string(in.Unit)),
			Calories: in.Calories.int(),
		})
	}
	for _, step := range raw.Instructions {
		r.Instructions = append(r.Instructions, string(step))
	}
	return r, nil
}

// DishName trims a model-supplied name and capitalizes its first word.
// The rest of the name keeps the model's casing.
func DishName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, `"'«»`)
	if name == "" {
		return ""
	}
	first, rest, _ := strings.Cut(name, " ")
	if r, _ := utf8.DecodeRuneInString(first); r == utf8.RuneError {
		return name
	}
	// Casers are stateful, so one is built per call.
	first = cases.Title(language.Und, cases.NoLower).String(first)
	if rest == "" {
		return first
	}
	return first + " " + rest
}
