package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crlx1q/Tester-FLAI/internal/auth"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

// Food history page sizes.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// FoodHandler serves the food diary.
type FoodHandler struct {
	food   service.FoodService
	images service.ImageService
	logger *slog.Logger
}

// NewFoodHandler creates a new FoodHandler.
func NewFoodHandler(food service.FoodService, images service.ImageService, logger *slog.Logger) *FoodHandler {
	return &FoodHandler{food: food, images: images, logger: logger}
}

// RegisterRoutes registers the diary routes.
func (h *FoodHandler) RegisterRoutes(mux *http.ServeMux, mw RouteMiddleware) {
	authed := orPassthrough(mw.Authenticated)
	photos := passthrough
	if mw.Metered != nil {
		photos = mw.Metered(domain.UsagePhotos)
	}

	mux.Handle("POST /api/food/analyze", photos(http.HandlerFunc(h.AnalyzeUpload)))
	mux.Handle("POST /api/food/analyze-image", photos(http.HandlerFunc(h.AnalyzeBase64)))
	mux.Handle("POST /api/food/analyze-description", authed(http.HandlerFunc(h.AnalyzeDescription)))
	mux.Handle("POST /api/food/analyze-only", authed(http.HandlerFunc(h.AnalyzeOnly)))

	mux.Handle("GET /api/food/history", authed(http.HandlerFunc(h.History)))
	mux.Handle("GET /api/food/daily-summary", authed(http.HandlerFunc(h.DailySummary)))
	mux.Handle("GET /api/food/weekly-progress", authed(http.HandlerFunc(h.WeeklyProgress)))
	mux.Handle("GET /api/food/monthly-active-days", authed(http.HandlerFunc(h.MonthlyActiveDays)))
	mux.Handle("PUT /api/food/{id}", authed(http.HandlerFunc(h.Update)))
	mux.Handle("PUT /api/food/{id}/update-with-image", photos(http.HandlerFunc(h.UpdateWithImage)))
	mux.Handle("DELETE /api/food/{id}", authed(http.HandlerFunc(h.Delete)))

	mux.Handle("POST /api/food/{id}/favorite", authed(http.HandlerFunc(h.AddFavorite)))
	mux.Handle("GET /api/food/favorites", authed(http.HandlerFunc(h.ListFavorites)))
	mux.Handle("DELETE /api/food/favorites/{id}", authed(http.HandlerFunc(h.RemoveFavorite)))
	mux.Handle("POST /api/food/favorites/{id}/add-to-diary", authed(http.HandlerFunc(h.AddFavoriteToDiary)))
}

// =============================================================================
// Analysis
// =============================================================================

// AnalyzeUpload estimates the multipart "image" photo and logs it.
func (h *FoodHandler) AnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	form, err := readUpload(w, r, h.images, "image", domain.ImagePurposeFood, isProRequest(r), true)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	h.analyzeImage(w, r, form.Image)
}

type analyzeImageRequest struct {
	Image string `json:"image"`
}

// AnalyzeBase64 estimates a base64 photo and logs it.
func (h *FoodHandler) AnalyzeBase64(w http.ResponseWriter, r *http.Request) {
	var req analyzeImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	img, err := h.images.ProcessBase64(r.Context(), req.Image, domain.ImagePurposeFood, isProRequest(r))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	h.analyzeImage(w, r, img)
}

func (h *FoodHandler) analyzeImage(w http.ResponseWriter, r *http.Request, img *domain.Image) {
	entry, err := h.food.AnalyzeImage(r.Context(), auth.GetUser(r.Context()).ID, img)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"food": toFoodEntryResponse(entry)})
}

type describeRequest struct {
	Description string `json:"description"`
}

// AnalyzeDescription estimates a text description and logs it.
func (h *FoodHandler) AnalyzeDescription(w http.ResponseWriter, r *http.Request) {
	var req describeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	entry, analysis, err := h.food.AnalyzeText(r.Context(), auth.GetUser(r.Context()).ID, req.Description)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{
		"food":     toFoodEntryResponse(entry),
		"analysis": analysis,
	})
}

// AnalyzeOnly estimates a description without logging it.
func (h *FoodHandler) AnalyzeOnly(w http.ResponseWriter, r *http.Request) {
	var req describeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	analysis, err := h.food.AnalyzeOnly(r.Context(), auth.GetUser(r.Context()).ID, req.Description)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"analysis": analysis})
}

// =============================================================================
// Diary
// =============================================================================

// History lists entries newest first.
func (h *FoodHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, DefaultHistoryLimit, MaxHistoryLimit)

	entries, err := h.food.History(r.Context(), auth.GetUser(r.Context()).ID, limit, offset)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"foods": toFoodEntryResponses(entries)})
}

// DailySummary totals the ?date= day, today when omitted.
func (h *FoodHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.food.DailySummary(r.Context(), auth.GetUser(r.Context()).ID, r.URL.Query().Get("date"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, toDailySummaryResponse(summary))
}

// WeeklyProgress reports calories against the target for the last seven days.
func (h *FoodHandler) WeeklyProgress(w http.ResponseWriter, r *http.Request) {
	days, err := h.food.WeeklyProgress(r.Context(), auth.GetUser(r.Context()).ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "progress": toDayProgressResponses(days)})
}

// MonthlyActiveDays lists the ?year=&month= dates that have entries.
func (h *FoodHandler) MonthlyActiveDays(w http.ResponseWriter, r *http.Request) {
	const op = "handler.MonthlyActiveDays"

	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "year", "Year and month are required"))
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "month", "Year and month are required"))
		return
	}

	dates, err := h.food.MonthlyActiveDays(r.Context(), auth.GetUser(r.Context()).ID, year, month)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "activeDays": dates})
}

type updateFoodRequest struct {
	Name        *string        `json:"name"`
	Calories    *int           `json:"calories"`
	Macros      *domain.Macros `json:"macros"`
	HealthScore *int           `json:"healthScore"`
}

// Update edits an owned entry.
func (h *FoodHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	var req updateFoodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	entry, err := h.food.Update(r.Context(), domain.UpdateFoodEntryParams{
		ID:          id,
		UserID:      auth.GetUser(r.Context()).ID,
		Name:        req.Name,
		Calories:    req.Calories,
		Macros:      req.Macros,
		HealthScore: req.HealthScore,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"food": toFoodEntryResponse(entry)})
}

// UpdateWithImage re-estimates an owned entry from a multipart "image" photo
// and an optional "name" hint.
func (h *FoodHandler) UpdateWithImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	form, err := readUpload(w, r, h.images, "image", domain.ImagePurposeFood, isProRequest(r), true)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	entry, analysis, err := h.food.UpdateWithImage(r.Context(), auth.GetUser(r.Context()).ID, id, form.Fields["name"], form.Image)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"food":     toFoodEntryResponse(entry),
		"analysis": analysis,
	})
}

// Delete removes an owned entry.
func (h *FoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := h.food.Delete(r.Context(), auth.GetUser(r.Context()).ID, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// =============================================================================
// Favourites
// =============================================================================

// AddFavorite saves an owned entry as a favourite dish.
func (h *FoodHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	fav, err := h.food.AddFavorite(r.Context(), auth.GetUser(r.Context()).ID, id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"favorite": toFavoriteFoodResponse(fav)})
}

// ListFavorites lists favourite dishes.
func (h *FoodHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := h.food.ListFavorites(r.Context(), auth.GetUser(r.Context()).ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	out := make([]favoriteFoodResponse, 0, len(favs))
	for i := range favs {
		out = append(out, toFavoriteFoodResponse(&favs[i]))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"favorites": out})
}

// RemoveFavorite deletes a favourite dish.
func (h *FoodHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := h.food.RemoveFavorite(r.Context(), auth.GetUser(r.Context()).ID, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// AddFavoriteToDiary logs a favourite dish as eaten now.
func (h *FoodHandler) AddFavoriteToDiary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	entry, err := h.food.AddFavoriteToDiary(r.Context(), auth.GetUser(r.Context()).ID, id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"food": toFoodEntryResponse(entry)})
}
