// Package handler contains the HTTP handlers of the FLAI JSON API.
//
// This file implements registration, login and logout with bearer session
// tokens.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/crlx1q/Tester-FLAI/internal/auth"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

// LoginAttempts lets the login handler feed outcomes back to the rate limiter.
type LoginAttempts interface {
	RecordFailedLogin(r *http.Request)
	ResetLogin(r *http.Request)
}

// AuthHandler handles authentication requests.
//
// Routes handled:
//   - POST /api/auth/register -> Register
//   - POST /api/auth/login    -> Login
//   - POST /api/auth/logout   -> Logout
//   - POST /api/auth/check-version -> CheckVersion
type AuthHandler struct {
	userService service.UserService
	attempts    LoginAttempts
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. attempts may be nil.
func NewAuthHandler(userService service.UserService, attempts LoginAttempts, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		attempts:    attempts,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth routes.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, mw RouteMiddleware) {
	mux.Handle("POST /api/auth/register", orPassthrough(mw.LimitRegister)(http.HandlerFunc(h.Register)))
	mux.Handle("POST /api/auth/login", orPassthrough(mw.LimitLogin)(http.HandlerFunc(h.Login)))
	mux.Handle("POST /api/auth/logout", orPassthrough(mw.Authenticated)(http.HandlerFunc(h.Logout)))
	mux.HandleFunc("POST /api/auth/check-version", h.CheckVersion)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns its first session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.userService.Register(r.Context(), domain.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, sessionResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      toUserResponse(result.User),
	})
}

// Login exchanges credentials for a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.attempts != nil && domain.ErrorCode(err) == domain.EUNAUTHORIZED {
			h.attempts.RecordFailedLogin(r)
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if h.attempts != nil {
		h.attempts.ResetLogin(r)
	}

	WriteJSON(w, http.StatusOK, sessionResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      toUserResponse(result.User),
	})
}

// Logout revokes the session the request authenticated with.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.GetToken(r.Context()); token != "" {
		if err := h.userService.Logout(r.Context(), token); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type checkVersionRequest struct {
	CurrentVersion string `json:"currentVersion"`
}

type checkVersionResponse struct {
	Success           bool    `json:"success"`
	NeedsUpdate       bool    `json:"needsUpdate"`
	CurrentVersion    string  `json:"currentVersion"`
	UpdateDescription string  `json:"updateDescription"`
	DownloadURL       *string `json:"downloadUrl"`
}

// CheckVersion tells the app whether a newer release is out. No session is
// needed since outdated clients may not be able to sign in.
func (h *AuthHandler) CheckVersion(w http.ResponseWriter, r *http.Request) {
	var req checkVersionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	check, err := h.userService.CheckVersion(r.Context(), req.CurrentVersion)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := checkVersionResponse{
		Success:           true,
		NeedsUpdate:       check.NeedsUpdate,
		CurrentVersion:    check.CurrentVersion,
		UpdateDescription: check.UpdateDescription,
	}
	if check.DownloadURL != "" {
		resp.DownloadURL = &check.DownloadURL
	}
	WriteJSON(w, http.StatusOK, resp)
}
