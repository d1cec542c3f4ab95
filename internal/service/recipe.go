package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/crlx1q/Tester-FLAI/internal/ai"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

// MaxDishNameLength bounds the dish name sent for generation.
const MaxDishNameLength = 200

// RecipeService generates and manages recipes.
type RecipeService interface {
	// Generate asks the provider for a recipe tailored to the user's goal and
	// allergies and stores it. Counts one recipe and marks the day active.
	Generate(ctx context.Context, userID uuid.UUID, dishName string, img *domain.Image) (*domain.Recipe, error)

	// List returns the user's own recipes followed by built-in ones.
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Recipe, error)

	// Get returns a recipe the user may read. Other users' recipes are
	// reported as not found.
	Get(ctx context.Context, userID, recipeID uuid.UUID) (*domain.Recipe, error)

	// Update edits a recipe the user owns. Built-in recipes are read-only
	// and return domain.EFORBIDDEN.
	Update(ctx context.Context, params domain.UpdateRecipeParams) (*domain.Recipe, error)

	// Delete removes a recipe the user owns. Built-in recipes cannot be deleted.
	Delete(ctx context.Context, userID, recipeID uuid.UUID) error

	Favorite(ctx context.Context, userID, recipeID uuid.UUID) error
	Unfavorite(ctx context.Context, userID, recipeID uuid.UUID) error
	Favorites(ctx context.Context, userID uuid.UUID) ([]domain.Recipe, error)
}

// RecipeStore is the persistence needed by RecipeService.
type RecipeStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	CreateRecipe(ctx context.Context, arg repository.CreateRecipeParams) (repository.RecipeRow, error)
	GetRecipeForUser(ctx context.Context, arg repository.GetRecipeForUserParams) (repository.RecipeRow, error)
	ListRecipesForUser(ctx context.Context, arg repository.ListRecipesForUserParams) ([]repository.RecipeRow, error)
	ListFavoriteRecipes(ctx context.Context, userID uuid.UUID) ([]repository.RecipeRow, error)
	UpdateRecipe(ctx context.Context, arg repository.UpdateRecipeParams) (repository.RecipeRow, error)
	DeleteRecipe(ctx context.Context, arg repository.DeleteRecipeParams) (int64, error)
	AddFavoriteRecipe(ctx context.Context, arg repository.AddFavoriteRecipeParams) error
	RemoveFavoriteRecipe(ctx context.Context, arg repository.RemoveFavoriteRecipeParams) error
}

type recipeService struct {
	store    RecipeStore
	provider ai.Provider
	meter    *Meter
	logger   *slog.Logger
}

var _ RecipeService = (*recipeService)(nil)

// NewRecipeService creates a new RecipeService instance.
func NewRecipeService(store RecipeStore, provider ai.Provider, meter *Meter, logger *slog.Logger) RecipeService {
	return &recipeService{
		store:    store,
		provider: provider,
		meter:    meter,
		logger:   logger,
	}
}

func (s *recipeService) Generate(ctx context.Context, userID uuid.UUID, dishName string, img *domain.Image) (*domain.Recipe, error) {
	const op = "RecipeService.Generate"

	dishName = strings.TrimSpace(dishName)
	if dishName == "" {
		return nil, domain.NewValidationError(op, "dishName", "Dish name is required")
	}
	if len([]rune(dishName)) > MaxDishNameLength {
		return nil, domain.NewValidationError(op, "dishName", "Dish name is too long")
	}

	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", userID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}
	profile := repoUserToDomain(u).Profile

	params := ai.RecipeParams{
		UserID:    userID,
		DishName:  dishName,
		Goal:      profile.Goal,
		Allergies: profile.Allergies,
	}
	if !img.IsEmpty() {
		params.Image = img
	}

	result, err := s.provider.GenerateRecipe(ctx, params)
	if err != nil {
		return nil, aiError(err, op, "Failed to generate recipe")
	}
	generated := result.Recipe.Normalize(dishName)

	ingredients, err := ingredientsToJSON(generated.Ingredients)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to encode ingredients")
	}
	data, ct := imageColumns(params.Image)

	row, err := s.store.CreateRecipe(ctx, repository.CreateRecipeParams{
		UserID:           uuid.NullUUID{UUID: userID, Valid: true},
		Name:             generated.Name,
		Description:      generated.Description,
		Calories:         int32(generated.Calories),
		Protein:          generated.Macros.Protein,
		Fat:              generated.Macros.Fat,
		Carbs:            generated.Macros.Carbs,
		PrepMinutes:      int32(generated.PrepMinutes),
		CookTime:         generated.CookTime,
		Difficulty:       generated.Difficulty,
		Servings:         int32(generated.Servings),
		Ingredients:      ingredients,
		Instructions:     generated.Instructions,
		Image:            data,
		ImageContentType: ct,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to save recipe")
	}

	recipe, err := repoRecipeToDomain(row)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to decode recipe")
	}

	s.meter.Record(ctx, userID, domain.UsageRecipes)
	s.logger.Info("recipe generated", "user_id", userID, "recipe_id", recipe.ID, "name", recipe.Name)
	return recipe, nil
}

func (s *recipeService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Recipe, error) {
	const op = "RecipeService.List"

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.store.ListRecipesForUser(ctx, repository.ListRecipesForUserParams{
		UserID: userID,
		Limit:  int32(min(limit, MaxHistoryLimit)),
		Offset: int32(max(offset, 0)),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list recipes")
	}
	return s.recipes(op, rows)
}

func (s *recipeService) Get(ctx context.Context, userID, recipeID uuid.UUID) (*domain.Recipe, error) {
	const op = "RecipeService.Get"

	row, err := s.store.GetRecipeForUser(ctx, repository.GetRecipeForUserParams{ID: recipeID, UserID: userID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "recipe", recipeID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve recipe")
	}
	recipe, err := repoRecipeToDomain(row)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to decode recipe")
	}
	if !recipe.VisibleTo(userID) {
		return nil, domain.NotFound(op, "recipe", recipeID.String())
	}
	return recipe, nil
}

func (s *recipeService) Update(ctx context.Context, params domain.UpdateRecipeParams) (*domain.Recipe, error) {
	const op = "RecipeService.Update"

	if err := params.Validate(); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, params.UserID, params.ID)
	if err != nil {
		return nil, err
	}
	if !current.OwnedBy(params.UserID) {
		return nil, domain.Forbidden(op, "Built-in recipes cannot be edited")
	}
	next := params.Apply(*current)

	ingredients, err := ingredientsToJSON(next.Ingredients)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to encode ingredients")
	}

	row, err := s.store.UpdateRecipe(ctx, repository.UpdateRecipeParams{
		ID:           next.ID,
		UserID:       params.UserID,
		Name:         next.Name,
		Description:  next.Description,
		Calories:     int32(next.Calories),
		Protein:      next.Macros.Protein,
		Fat:          next.Macros.Fat,
		Carbs:        next.Macros.Carbs,
		PrepMinutes:  int32(next.PrepMinutes),
		CookTime:     next.CookTime,
		Difficulty:   next.Difficulty,
		Servings:     int32(next.Servings),
		Ingredients:  ingredients,
		Instructions: next.Instructions,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "recipe", params.ID.String())
		}
		return nil, domain.Internal(err, op, "Failed to update recipe")
	}

	recipe, err := repoRecipeToDomain(row)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to decode recipe")
	}
	s.logger.Info("recipe updated", "user_id", params.UserID, "recipe_id", recipe.ID)
	return recipe, nil
}

func (s *recipeService) Delete(ctx context.Context, userID, recipeID uuid.UUID) error {
	const op = "RecipeService.Delete"

	n, err := s.store.DeleteRecipe(ctx, repository.DeleteRecipeParams{ID: recipeID, UserID: userID})
	if err != nil {
		return domain.Internal(err, op, "Failed to delete recipe")
	}
	if n == 0 {
		return domain.NotFound(op, "recipe", recipeID.String())
	}
	return nil
}

func (s *recipeService) Favorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	const op = "RecipeService.Favorite"

	if _, err := s.Get(ctx, userID, recipeID); err != nil {
		return err
	}
	if err := s.store.AddFavoriteRecipe(ctx, repository.AddFavoriteRecipeParams{UserID: userID, RecipeID: recipeID}); err != nil {
		return domain.Internal(err, op, "Failed to add favorite")
	}
	return nil
}

func (s *recipeService) Unfavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	const op = "RecipeService.Unfavorite"

	if err := s.store.RemoveFavoriteRecipe(ctx, repository.RemoveFavoriteRecipeParams{UserID: userID, RecipeID: recipeID}); err != nil {
		return domain.Internal(err, op, "Failed to remove favorite")
	}
	return nil
}

func (s *recipeService) Favorites(ctx context.Context, userID uuid.UUID) ([]domain.Recipe, error) {
	const op = "RecipeService.Favorites"

	rows, err := s.store.ListFavoriteRecipes(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list favorites")
	}
	return s.recipes(op, rows)
}

func (s *recipeService) recipes(op string, rows []repository.RecipeRow) ([]domain.Recipe, error) {
	out := make([]domain.Recipe, 0, len(rows))
	for _, row := range rows {
		r, err := repoRecipeToDomain(row)
		if err != nil {
			return nil, domain.Internal(err, op, "Failed to decode recipe")
		}
		out = append(out, *r)
	}
	return out, nil
}
