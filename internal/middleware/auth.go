// Package middleware contains HTTP middleware for the FLAI API.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/crlx1q/Tester-FLAI/internal/auth"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/handler"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

// AdminKeyHeader carries the operator API key on admin routes.
const AdminKeyHeader = "X-Admin-Key"

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware resolves bearer session tokens to users.
type AuthMiddleware struct {
	userService service.UserService
	logger      *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(userService service.UserService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		userService: userService,
		logger:      logger,
	}
}

// WithUser loads the user for an "Authorization: Bearer <token>" header when
// one is present. Requests without a valid token pass through anonymously.
//
// Usage:
//
//	mux.Handle("/", authMw.WithUser(handler))
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.userService.GetBySessionToken(r.Context(), token)
		if err != nil {
			if domain.ErrorCode(err) != domain.EUNAUTHORIZED {
				m.logger.Error("failed to resolve session", "error", err, "path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := auth.SetUser(r.Context(), user)
		ctx = auth.SetToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests without an authenticated user with 401.
// Must run after WithUser.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Authenticated is WithUser followed by RequireUser.
func (m *AuthMiddleware) Authenticated(next http.Handler) http.Handler {
	return m.WithUser(m.RequireUser(next))
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// =============================================================================
// Admin Key Middleware
// =============================================================================

// AdminKeyMiddleware protects operator routes with a shared API key.
type AdminKeyMiddleware struct {
	key    string
	logger *slog.Logger
}

// NewAdminKeyMiddleware creates a new admin key middleware. An empty key
// disables every admin route.
func NewAdminKeyMiddleware(key string, logger *slog.Logger) *AdminKeyMiddleware {
	return &AdminKeyMiddleware{key: key, logger: logger}
}

// Handler returns middleware that requires a matching X-Admin-Key header.
func (m *AdminKeyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get(AdminKeyHeader)
		if m.key == "" || provided == "" {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		// Constant-time comparison to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(provided), []byte(m.key)) != 1 {
			m.logger.Warn("invalid admin key", "ip", getClientIP(r), "path", r.URL.Path)
			handler.ForbiddenResponse(w, r, m.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Middleware Stack Helper
// =============================================================================

// Stack composes multiple middleware into a single middleware.
// Middleware are applied in order, so the first middleware wraps all others.
//
// Usage:
//
//	stack := middleware.Stack(
//	    authMw.Authenticated,
//	    locks.Handler,
//	    limitMw.Require(domain.UsagePhotos),
//	)
//	mux.Handle("POST /api/food/analyze", stack(handler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
