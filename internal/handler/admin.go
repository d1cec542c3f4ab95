package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

// ReconcileScheduler queues the streak and subscription sweeps.
type ReconcileScheduler interface {
	ScheduleReconcile(ctx context.Context) ([]string, error)
}

// AdminHandler serves the operator endpoints.
//
// Routes handled:
//   - GET    /api/admin/users
//   - POST   /api/admin/users/{id}/subscription
//   - DELETE /api/admin/users/{id}
//   - GET    /api/admin/stats
//   - POST   /api/admin/reconcile
//   - GET    /api/admin/settings
//   - POST   /api/admin/settings/toggle-registration
//   - POST   /api/admin/settings/update-version
type AdminHandler struct {
	admin     service.AdminService
	scheduler ReconcileScheduler
	logger    *slog.Logger
}

// NewAdminHandler creates a new AdminHandler. scheduler may be nil when the
// background worker is disabled.
func NewAdminHandler(admin service.AdminService, scheduler ReconcileScheduler, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		admin:     admin,
		scheduler: scheduler,
		logger:    logger,
	}
}

// RegisterRoutes registers admin routes behind mw.Admin.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, mw RouteMiddleware) {
	requireAdmin := orPassthrough(mw.Admin)

	mux.Handle("GET /api/admin/users", requireAdmin(http.HandlerFunc(h.ListUsers)))
	mux.Handle("POST /api/admin/users/{id}/subscription", requireAdmin(http.HandlerFunc(h.GrantSubscription)))
	mux.Handle("DELETE /api/admin/users/{id}", requireAdmin(http.HandlerFunc(h.DeleteUser)))
	mux.Handle("GET /api/admin/stats", requireAdmin(http.HandlerFunc(h.Stats)))
	mux.Handle("POST /api/admin/reconcile", requireAdmin(http.HandlerFunc(h.Reconcile)))
	mux.Handle("GET /api/admin/settings", requireAdmin(http.HandlerFunc(h.Settings)))
	mux.Handle("POST /api/admin/settings/toggle-registration", requireAdmin(http.HandlerFunc(h.ToggleRegistration)))
	mux.Handle("POST /api/admin/settings/update-version", requireAdmin(http.HandlerFunc(h.UpdateVersion)))
}

type adminUserResponse struct {
	userResponse
	Usage usageResponse `json:"usage"`
}

type usageResponse struct {
	Date     string `json:"date,omitempty"`
	Photos   int    `json:"photos"`
	Messages int    `json:"messages"`
	Recipes  int    `json:"recipes"`
}

// ListUsers pages through all accounts, newest first.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, service.DefaultAdminPageSize, service.MaxAdminPageSize)

	users, err := h.admin.ListUsers(r.Context(), limit, offset)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		resp := adminUserResponse{
			userResponse: toUserResponse(u.User),
			Usage: usageResponse{
				Date:     u.Usage.Date,
				Photos:   u.Usage.PhotosCount,
				Messages: u.Usage.MessagesCount,
				Recipes:  u.Usage.RecipesCount,
			},
		}
		days := u.RemainingDays
		resp.Subscription.RemainingDays = &days
		out = append(out, resp)
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"users":  out,
		"limit":  limit,
		"offset": offset,
	})
}

type grantRequest struct {
	Type         string `json:"type"`
	DurationDays *int   `json:"durationDays"`
}

// GrantSubscription sets a user's plan. A pro grant without durationDays
// never expires.
func (h *AdminHandler) GrantSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	var req grantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.admin.Grant(r.Context(), id, req.Type, req.DurationDays)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("subscription granted",
		"user_id", id,
		"type", req.Type,
		"duration_days", req.DurationDays,
	)
	WriteJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

// DeleteUser removes an account and everything it owns.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := h.admin.DeleteUser(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type statsResponse struct {
	TotalUsers    int64 `json:"totalUsers"`
	FreeUsers     int64 `json:"freeUsers"`
	ProUsers      int64 `json:"proUsers"`
	ActiveToday   int64 `json:"activeToday"`
	PhotosToday   int64 `json:"photosToday"`
	MessagesToday int64 `json:"messagesToday"`
	RecipesToday  int64 `json:"recipesToday"`
	FoodEntries   int64 `json:"foodEntries"`
	UserRecipes   int64 `json:"userRecipes"`
}

// Stats reports user counts and today's metered activity.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.admin.Stats(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"stats": statsResponse(*s)})
}

// Reconcile queues the streak and subscription sweeps.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		ErrorResponse(w, r, h.logger, &domain.Error{
			Code:    domain.EUPSTREAM,
			Op:      "AdminHandler.Reconcile",
			Message: "Background worker is disabled",
		})
		return
	}

	queued, err := h.scheduler.ScheduleReconcile(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{"queued": queued})
}

type settingsResponse struct {
	RegistrationEnabled bool      `json:"registrationEnabled"`
	CurrentVersion      string    `json:"currentVersion"`
	UpdateDescription   string    `json:"updateDescription"`
	HasUpdate           bool      `json:"hasUpdate"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func toSettingsResponse(s *domain.AppSettings) settingsResponse {
	return settingsResponse{
		RegistrationEnabled: s.RegistrationEnabled,
		CurrentVersion:      s.CurrentVersion,
		UpdateDescription:   s.UpdateDescription,
		HasUpdate:           s.HasUpdate,
		UpdatedAt:           s.UpdatedAt,
	}
}

// Settings returns the app-wide switches.
func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	s, err := h.admin.Settings(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "settings": toSettingsResponse(s)})
}

// ToggleRegistration opens or closes sign-ups.
func (h *AdminHandler) ToggleRegistration(w http.ResponseWriter, r *http.Request) {
	s, err := h.admin.ToggleRegistration(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	msg := "Registration disabled"
	if s.RegistrationEnabled {
		msg = "Registration enabled"
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  msg,
		"settings": toSettingsResponse(s),
	})
}

type updateVersionRequest struct {
	Version     string `json:"version"`
	Description string `json:"description"`
}

// UpdateVersion publishes a new client release.
func (h *AdminHandler) UpdateVersion(w http.ResponseWriter, r *http.Request) {
	var req updateVersionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	s, err := h.admin.PublishVersion(r.Context(), req.Version, req.Description)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Version updated to " + s.CurrentVersion,
		"settings": toSettingsResponse(s),
	})
}
