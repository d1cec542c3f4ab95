package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

type stubRecipeService struct {
	service.RecipeService

	dishName string
	img      *domain.Image
	err      error
	actions  []string
	updated  domain.UpdateRecipeParams
}

func (s *stubRecipeService) Update(_ context.Context, params domain.UpdateRecipeParams) (*domain.Recipe, error) {
	s.updated = params
	if s.err != nil {
		return nil, s.err
	}
	recipe := params.Apply(domain.Recipe{ID: params.ID, UserID: &params.UserID, Name: "Borscht", Servings: 4})
	return &recipe, nil
}

func (s *stubRecipeService) Generate(_ context.Context, userID uuid.UUID, dishName string, img *domain.Image) (*domain.Recipe, error) {
	s.dishName, s.img = dishName, img
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Recipe{ID: uuid.New(), UserID: &userID, Name: dishName, Calories: 520, Servings: 2}, nil
}

func (s *stubRecipeService) Favorite(_ context.Context, _, recipeID uuid.UUID) error {
	s.actions = append(s.actions, "favorite:"+recipeID.String())
	return s.err
}

func (s *stubRecipeService) Unfavorite(_ context.Context, _, recipeID uuid.UUID) error {
	s.actions = append(s.actions, "unfavorite:"+recipeID.String())
	return s.err
}

func (s *stubRecipeService) Delete(_ context.Context, _, recipeID uuid.UUID) error {
	s.actions = append(s.actions, "delete:"+recipeID.String())
	return s.err
}

func TestRecipeHandler_GenerateJSON(t *testing.T) {
	recipes := &stubRecipeService{}
	images := &fakeImages{}
	h := NewRecipeHandler(recipes, images, discardLogger())

	rec := serve(t, h, testUser(), jsonRequest(http.MethodPost, "/api/recipes/generate", map[string]string{"dishName": "Kuyrdak"}))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Kuyrdak", recipes.dishName)
	assert.Nil(t, recipes.img)
	assert.Zero(t, images.calls)

	got := decodeBody(t, rec)["recipe"].(map[string]any)
	assert.Equal(t, "Kuyrdak", got["name"])
	assert.Equal(t, false, got["isSystem"])
}

func TestRecipeHandler_GenerateMultipart(t *testing.T) {
	tests := []struct {
		name      string
		withImage bool
	}{
		{name: "with photo", withImage: true},
		{name: "photo is optional", withImage: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipes := &stubRecipeService{}
			images := &fakeImages{}
			h := NewRecipeHandler(recipes, images, discardLogger())

			fileField := ""
			if tt.withImage {
				fileField = "image"
			}
			req := multipartRequest(t, "/api/recipes/generate", map[string]string{"dishName": "Samsa"}, fileField, []byte("photo"))
			rec := serve(t, h, testUser(), req)

			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			assert.Equal(t, "Samsa", recipes.dishName)
			assert.Equal(t, tt.withImage, recipes.img != nil)
			if tt.withImage {
				assert.Equal(t, domain.ImagePurposeRecipe, images.purpose)
			}
		})
	}
}

func TestRecipeHandler_GenerateValidation(t *testing.T) {
	recipes := &stubRecipeService{err: domain.NewValidationError("test", "dishName", "Dish name is required")}
	h := NewRecipeHandler(recipes, &fakeImages{}, discardLogger())

	rec := serve(t, h, testUser(), jsonRequest(http.MethodPost, "/api/recipes/generate", map[string]string{"dishName": ""}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error.Fields, "dishName")
}

func TestRecipeHandler_ByIDActions(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		method     string
		path       string
		wantAction string
	}{
		{method: http.MethodPost, path: "/api/recipes/" + id.String() + "/favorite", wantAction: "favorite:" + id.String()},
		{method: http.MethodDelete, path: "/api/recipes/" + id.String() + "/favorite", wantAction: "unfavorite:" + id.String()},
		{method: http.MethodDelete, path: "/api/recipes/" + id.String(), wantAction: "delete:" + id.String()},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			recipes := &stubRecipeService{}
			h := NewRecipeHandler(recipes, &fakeImages{}, discardLogger())

			rec := serve(t, h, testUser(), jsonRequest(tt.method, tt.path, nil))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, []string{tt.wantAction}, recipes.actions)
		})
	}
}

func TestRecipeHandler_DeleteSystemRecipeForbidden(t *testing.T) {
	recipes := &stubRecipeService{err: domain.Errorf(domain.EFORBIDDEN, "test", "Built-in recipes cannot be deleted")}
	h := NewRecipeHandler(recipes, &fakeImages{}, discardLogger())

	rec := serve(t, h, testUser(), jsonRequest(http.MethodDelete, "/api/recipes/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRecipeHandler_Update(t *testing.T) {
	user := testUser()
	id := uuid.New()

	tests := []struct {
		name       string
		path       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "updated", path: id.String(), body: `{"name":"Борщ","prepTime":20,"instructions":["Варить"]}`, wantStatus: http.StatusOK},
		{name: "built-in recipe", path: id.String(), body: `{"name":"x"}`, err: domain.Forbidden("test", "Built-in recipes cannot be edited"), wantStatus: http.StatusForbidden},
		{name: "invisible recipe", path: id.String(), body: `{"name":"x"}`, err: domain.NotFound("test", "recipe", id.String()), wantStatus: http.StatusNotFound},
		{name: "bad id", path: "nope", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "malformed body", path: id.String(), body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipes := &stubRecipeService{err: tt.err}
			h := NewRecipeHandler(recipes, &fakeImages{}, discardLogger())

			rec := serve(t, h, user, jsonRequest(http.MethodPut, "/api/recipes/"+tt.path, tt.body))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, id, recipes.updated.ID)
			assert.Equal(t, user.ID, recipes.updated.UserID)
			require.NotNil(t, recipes.updated.PrepMinutes)
			assert.Equal(t, 20, *recipes.updated.PrepMinutes)
			got := decodeBody(t, rec)["recipe"].(map[string]any)
			assert.Equal(t, "Борщ", got["name"])
			assert.EqualValues(t, 20, got["prepTime"])
		})
	}
}
