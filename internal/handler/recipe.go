package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/crlx1q/Tester-FLAI/internal/auth"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

// Recipe list page sizes.
const (
	DefaultRecipeLimit = 50
	MaxRecipeLimit     = 200
)

// RecipeHandler serves recipe generation and the recipe book.
type RecipeHandler struct {
	recipes service.RecipeService
	images  service.ImageService
	logger  *slog.Logger
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(recipes service.RecipeService, images service.ImageService, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, images: images, logger: logger}
}

// RegisterRoutes registers the recipe routes.
func (h *RecipeHandler) RegisterRoutes(mux *http.ServeMux, mw RouteMiddleware) {
	authed := orPassthrough(mw.Authenticated)
	metered := passthrough
	if mw.Metered != nil {
		metered = mw.Metered(domain.UsageRecipes)
	}

	mux.Handle("POST /api/recipes/generate", metered(http.HandlerFunc(h.Generate)))
	mux.Handle("GET /api/recipes", authed(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/recipes/favorites", authed(http.HandlerFunc(h.Favorites)))
	mux.Handle("GET /api/recipes/{id}", authed(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/recipes/{id}", authed(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/recipes/{id}", authed(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /api/recipes/{id}/favorite", authed(http.HandlerFunc(h.Favorite)))
	mux.Handle("DELETE /api/recipes/{id}/favorite", authed(http.HandlerFunc(h.Unfavorite)))
}

type generateRecipeRequest struct {
	DishName string `json:"dishName"`
}

// Generate creates a recipe for dishName. A multipart request may attach a
// photo of the dish as "image".
func (h *RecipeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var (
		dishName string
		img      *domain.Image
	)
	if isMultipart(r) {
		form, err := readUpload(w, r, h.images, "image", domain.ImagePurposeRecipe, isProRequest(r), false)
		if err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		dishName, img = form.Fields["dishName"], form.Image
	} else {
		var req generateRecipeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		dishName = req.DishName
	}

	recipe, err := h.recipes.Generate(r.Context(), auth.GetUser(r.Context()).ID, dishName, img)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"recipe": toRecipeResponse(recipe)})
}

// List returns the user's recipes followed by built-in ones.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, DefaultRecipeLimit, MaxRecipeLimit)
	recipes, err := h.recipes.List(r.Context(), auth.GetUser(r.Context()).ID, limit, offset)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"recipes": toRecipeResponses(recipes)})
}

// Get returns one visible recipe.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	recipe, err := h.recipes.Get(r.Context(), auth.GetUser(r.Context()).ID, id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"recipe": toRecipeResponse(recipe)})
}

type updateRecipeRequest struct {
	Name         *string             `json:"name"`
	Description  *string             `json:"description"`
	Calories     *int                `json:"calories"`
	Macros       *domain.Macros      `json:"macros"`
	PrepTime     *int                `json:"prepTime"`
	CookTime     *string             `json:"cookTime"`
	Difficulty   *string             `json:"difficulty"`
	Servings     *int                `json:"servings"`
	Ingredients  []domain.Ingredient `json:"ingredients"`
	Instructions []string            `json:"instructions"`
}

// Update edits an owned recipe. Omitted fields keep their values.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	var req updateRecipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	recipe, err := h.recipes.Update(r.Context(), domain.UpdateRecipeParams{
		ID:           id,
		UserID:       auth.GetUser(r.Context()).ID,
		Name:         req.Name,
		Description:  req.Description,
		Calories:     req.Calories,
		Macros:       req.Macros,
		PrepMinutes:  req.PrepTime,
		CookTime:     req.CookTime,
		Difficulty:   req.Difficulty,
		Servings:     req.Servings,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"recipe": toRecipeResponse(recipe)})
}

// Delete removes an owned recipe.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.recipes.Delete)
}

// Favorite marks a visible recipe as a favourite.
func (h *RecipeHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.recipes.Favorite)
}

// Unfavorite clears the favourite mark.
func (h *RecipeHandler) Unfavorite(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.recipes.Unfavorite)
}

// Favorites lists favourite recipes.
func (h *RecipeHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.Favorites(r.Context(), auth.GetUser(r.Context()).ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"recipes": toRecipeResponses(recipes)})
}

func (h *RecipeHandler) byID(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := action(r.Context(), auth.GetUser(r.Context()).ID, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
