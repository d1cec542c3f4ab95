package handler

import (
	"log/slog"
	"net/http"

	"github.com/crlx1q/Tester-FLAI/internal/auth"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

// WaterHandler serves daily water intake.
type WaterHandler struct {
	water  service.WaterService
	logger *slog.Logger
}

// NewWaterHandler creates a new WaterHandler.
func NewWaterHandler(water service.WaterService, logger *slog.Logger) *WaterHandler {
	return &WaterHandler{water: water, logger: logger}
}

// RegisterRoutes registers the water routes.
func (h *WaterHandler) RegisterRoutes(mux *http.ServeMux, mw RouteMiddleware) {
	authed := orPassthrough(mw.Authenticated)
	mux.Handle("GET /api/food/water/{date}", authed(http.HandlerFunc(h.Get)))
	mux.Handle("POST /api/food/water", authed(http.HandlerFunc(h.Save)))
}

// Get returns the intake for a date; 0 when nothing was saved.
func (h *WaterHandler) Get(w http.ResponseWriter, r *http.Request) {
	intake, err := h.water.Get(r.Context(), auth.GetUser(r.Context()).ID, r.PathValue("date"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"water": toWaterResponse(intake)})
}

type saveWaterRequest struct {
	Date   string `json:"date"`
	Amount int    `json:"amount"`
}

// Save replaces the amount for a date.
func (h *WaterHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveWaterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	intake, err := h.water.Save(r.Context(), auth.GetUser(r.Context()).ID, req.Date, req.Amount)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"water": toWaterResponse(intake)})
}
