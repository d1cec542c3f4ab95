package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recipe difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Ingredient is one ordered row of a recipe.
type Ingredient struct {
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Unit     string `json:"unit"`
	Calories int    `json:"calories"`
}

// Recipe is a generated or built-in recipe. Built-in recipes have no owner.
type Recipe struct {
	ID           uuid.UUID
	UserID       *uuid.UUID
	Name         string
	Description  string
	Calories     int
	Macros       Macros
	PrepMinutes  int
	CookTime     string // HH:MM
	Difficulty   string
	Servings     int
	Ingredients  []Ingredient
	Instructions []string
	Image        *Image
	IsFavorite   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSystem returns true for built-in recipes.
func (r *Recipe) IsSystem() bool {
	return r.UserID == nil
}

// OwnedBy returns true if userID created the recipe.
func (r *Recipe) OwnedBy(userID uuid.UUID) bool {
	return r.UserID != nil && *r.UserID == userID
}

// VisibleTo returns true if the user may read the recipe.
func (r *Recipe) VisibleTo(userID uuid.UUID) bool {
	return r.IsSystem() || r.OwnedBy(userID)
}

// GeneratedRecipe is the recipe body returned by the AI provider.
type GeneratedRecipe struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Calories     int          `json:"calories"`
	Macros       Macros       `json:"macros"`
	PrepMinutes  int          `json:"prepTime"`
	CookTime     string       `json:"cookTime"`
	Difficulty   string       `json:"difficulty"`
	Servings     int          `json:"servings"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
}

// Normalize fills defaults and drops empty rows.
func (g GeneratedRecipe) Normalize(fallbackName string) GeneratedRecipe {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		g.Name = strings.TrimSpace(fallbackName)
	}
	if g.Calories < 0 {
		g.Calories = 0
	}
	if g.PrepMinutes <= 0 {
		g.PrepMinutes = 30
	}
	if g.CookTime == "" {
		g.CookTime = "00:30"
	}
	switch strings.ToLower(g.Difficulty) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		g.Difficulty = strings.ToLower(g.Difficulty)
	default:
		g.Difficulty = DifficultyMedium
	}
	if g.Servings <= 0 {
		g.Servings = 1
	}

	ingredients := make([]Ingredient, 0, len(g.Ingredients))
	for _, in := range g.Ingredients {
		if strings.TrimSpace(in.Name) == "" {
			continue
		}
		ingredients = append(ingredients, in)
	}
	g.Ingredients = ingredients

	steps := make([]string, 0, len(g.Instructions))
	for _, s := range g.Instructions {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	g.Instructions = steps
	return g
}

// CreateRecipeParams contains the fields of a new recipe.
type CreateRecipeParams struct {
	UserID *uuid.UUID
	GeneratedRecipe
	Image *Image
}

// UpdateRecipeParams is a partial edit of an owned recipe. Nil fields are
// unchanged.
type UpdateRecipeParams struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Name         *string
	Description  *string
	Calories     *int
	Macros       *Macros
	PrepMinutes  *int
	CookTime     *string
	Difficulty   *string
	Servings     *int
	Ingredients  []Ingredient
	Instructions []string
}

// Validate checks the supplied fields.
func (p UpdateRecipeParams) Validate() error {
	const op = "recipe.update.validate"

	var verr *ValidationError
	add := func(field, msg string) {
		if verr == nil {
			verr = NewValidationError(op, field, msg)
			return
		}
		verr.Fields[field] = msg
	}

	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		add("name", "Name cannot be empty")
	}
	if p.Calories != nil && *p.Calories < 0 {
		add("calories", "Calories must not be negative")
	}
	if p.Macros != nil && (p.Macros.Protein < 0 || p.Macros.Fat < 0 || p.Macros.Carbs < 0) {
		add("macros", "Macros must not be negative")
	}
	if p.PrepMinutes != nil && *p.PrepMinutes <= 0 {
		add("prepTime", "Preparation time must be positive")
	}
	if p.Servings != nil && *p.Servings <= 0 {
		add("servings", "Servings must be positive")
	}
	if p.Difficulty != nil {
		switch strings.ToLower(*p.Difficulty) {
		case DifficultyEasy, DifficultyMedium, DifficultyHard:
		default:
			add("difficulty", "Difficulty must be easy, medium or hard")
		}
	}
	if verr != nil {
		return verr
	}
	return nil
}

// Apply returns r with the edit applied. Ingredient rows without a name and
// blank steps are dropped, as for generated recipes.
func (p UpdateRecipeParams) Apply(r Recipe) Recipe {
	if p.Name != nil {
		r.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		r.Description = strings.TrimSpace(*p.Description)
	}
	if p.Calories != nil {
		r.Calories = *p.Calories
	}
	if p.Macros != nil {
		r.Macros = *p.Macros
	}
	if p.PrepMinutes != nil {
		r.PrepMinutes = *p.PrepMinutes
	}
	if p.CookTime != nil && strings.TrimSpace(*p.CookTime) != "" {
		r.CookTime = strings.TrimSpace(*p.CookTime)
	}
	if p.Difficulty != nil {
		r.Difficulty = strings.ToLower(*p.Difficulty)
	}
	if p.Servings != nil {
		r.Servings = *p.Servings
	}
	if p.Ingredients != nil || p.Instructions != nil {
		cleaned := GeneratedRecipe{Name: r.Name, Ingredients: p.Ingredients, Instructions: p.Instructions}.Normalize(r.Name)
		if p.Ingredients != nil {
			r.Ingredients = cleaned.Ingredients
		}
		if p.Instructions != nil {
			r.Instructions = cleaned.Instructions
		}
	}
	return r
}
