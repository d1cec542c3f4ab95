package handler

import (
	"log/slog"
	"net/http"

	"github.com/crlx1q/Tester-FLAI/internal/auth"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

// ProfileHandler serves the signed-in user's account, plan and streak.
//
// Routes handled:
//   - GET    /api/profile
//   - PUT    /api/profile
//   - DELETE /api/profile
//   - POST   /api/profile/onboarding
//   - POST   /api/profile/avatar
//   - POST   /api/profile/change-password
//   - GET    /api/profile/limits
//   - GET    /api/streak
//   - POST   /api/streak
type ProfileHandler struct {
	users         service.UserService
	subscriptions service.SubscriptionService
	limits        service.LimitService
	streaks       service.StreakService
	images        service.ImageService
	logger        *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(
	users service.UserService,
	subscriptions service.SubscriptionService,
	limits service.LimitService,
	streaks service.StreakService,
	images service.ImageService,
	logger *slog.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		users:         users,
		subscriptions: subscriptions,
		limits:        limits,
		streaks:       streaks,
		images:        images,
		logger:        logger,
	}
}

// RegisterRoutes registers the profile and streak routes.
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux, mw RouteMiddleware) {
	authed := orPassthrough(mw.Authenticated)

	mux.Handle("GET /api/profile", authed(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/profile", authed(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/profile", authed(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /api/profile/onboarding", authed(http.HandlerFunc(h.Onboarding)))
	mux.Handle("POST /api/profile/avatar", authed(http.HandlerFunc(h.UploadAvatar)))
	mux.Handle("POST /api/profile/change-password", authed(http.HandlerFunc(h.ChangePassword)))
	mux.Handle("GET /api/profile/limits", authed(http.HandlerFunc(h.Limits)))

	mux.Handle("GET /api/streak", authed(http.HandlerFunc(h.GetStreak)))
	mux.Handle("POST /api/streak", authed(http.HandlerFunc(h.RecordStreak)))
}

// respond writes the user with the plan as it applies now.
func (h *ProfileHandler) respond(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	sub := h.subscriptions.Effective(r.Context(), user)
	resp := toUserResponse(user)
	resp.Subscription = toSubscriptionResponse(sub)
	days := h.subscriptions.RemainingDays(sub)
	resp.Subscription.RemainingDays = &days
	WriteJSON(w, status, map[string]any{"user": resp})
}

// Get returns the profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), auth.GetUser(r.Context()).ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	h.respond(w, r, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name           *string  `json:"name"`
	Goal           *string  `json:"goal"`
	Gender         *string  `json:"gender"`
	Age            *int     `json:"age"`
	HeightCm       *float64 `json:"height"`
	WeightKg       *float64 `json:"weight"`
	TargetWeightKg *float64 `json:"targetWeight"`
	ActivityLevel  *string  `json:"activityLevel"`
	Allergies      []string `json:"allergies"`
	DailyCalories  *int     `json:"dailyCalories"`
	ProteinTarget  *int     `json:"proteinTarget"`
	FatTarget      *int     `json:"fatTarget"`
	CarbsTarget    *int     `json:"carbsTarget"`
	WaterTargetMl  *int     `json:"waterTarget"`
}

// Update applies a partial profile update.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), domain.ProfileUpdateParams{
		UserID:         auth.GetUser(r.Context()).ID,
		Name:           req.Name,
		Goal:           req.Goal,
		Gender:         req.Gender,
		Age:            req.Age,
		HeightCm:       req.HeightCm,
		WeightKg:       req.WeightKg,
		TargetWeightKg: req.TargetWeightKg,
		ActivityLevel:  req.ActivityLevel,
		Allergies:      req.Allergies,
		DailyCalories:  req.DailyCalories,
		ProteinTarget:  req.ProteinTarget,
		FatTarget:      req.FatTarget,
		CarbsTarget:    req.CarbsTarget,
		WaterTargetMl:  req.WaterTargetMl,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	h.respond(w, r, http.StatusOK, user)
}

type onboardingRequest struct {
	Goal          string   `json:"goal"`
	Gender        string   `json:"gender"`
	Age           int      `json:"age"`
	HeightCm      float64  `json:"height"`
	WeightKg      float64  `json:"weight"`
	ActivityLevel string   `json:"activityLevel"`
	Allergies     []string `json:"allergies"`
}

// Onboarding stores the questionnaire and the computed daily targets.
func (h *ProfileHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	var req onboardingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.users.CompleteOnboarding(r.Context(), domain.OnboardingParams{
		UserID:        auth.GetUser(r.Context()).ID,
		Goal:          req.Goal,
		Gender:        req.Gender,
		Age:           req.Age,
		HeightCm:      req.HeightCm,
		WeightKg:      req.WeightKg,
		ActivityLevel: req.ActivityLevel,
		Allergies:     req.Allergies,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	h.respond(w, r, http.StatusOK, user)
}

// UploadAvatar replaces the avatar with the multipart "avatar" file.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	isPro := h.subscriptions.Effective(r.Context(), user).IsPro()

	form, err := readUpload(w, r, h.images, "avatar", domain.ImagePurposeAvatar, isPro, true)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.users.UpdateAvatar(r.Context(), user.ID, form.Image); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"avatar": imageURI(form.Image)})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword verifies the current password and signs out every session.
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	err := h.users.ChangePassword(r.Context(), domain.PasswordChangeParams{
		UserID:          auth.GetUser(r.Context()).ID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Delete removes the account and everything it owns.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), auth.GetUser(r.Context()).ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Limits reports the plan and today's allowances.
func (h *ProfileHandler) Limits(w http.ResponseWriter, r *http.Request) {
	summary, err := h.limits.Summary(r.Context(), auth.GetUser(r.Context()).ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, toLimitsResponse(summary))
}

// GetStreak returns the streak as it stands now.
func (h *ProfileHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.streaks.Get(r.Context(), auth.GetUser(r.Context()).ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"streak": toStreakResponse(streak)})
}

// RecordStreak counts today as active.
func (h *ProfileHandler) RecordStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.streaks.RecordActivity(r.Context(), auth.GetUser(r.Context()).ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"streak": toStreakResponse(streak)})
}
