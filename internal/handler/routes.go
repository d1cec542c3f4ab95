package handler

import (
	"net/http"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
)

// Middleware is one http.Handler wrapper.
type Middleware = func(http.Handler) http.Handler

// RouteMiddleware bundles the wrappers handlers attach to their routes.
// The middleware package imports handler for error responses, so the
// wrappers are passed in rather than imported.
type RouteMiddleware struct {
	// Authenticated requires a bearer session.
	Authenticated Middleware

	// Metered requires a session, serialises the user's requests and checks
	// the daily allowance of kind.
	Metered func(kind domain.UsageKind) Middleware

	// Pro requires a session and an active pro plan.
	Pro Middleware

	// Admin requires the operator API key.
	Admin Middleware

	// LimitLogin and LimitRegister rate limit the public auth endpoints.
	LimitLogin    Middleware
	LimitRegister Middleware
}

func passthrough(next http.Handler) http.Handler { return next }

func orPassthrough(m Middleware) Middleware {
	if m == nil {
		return passthrough
	}
	return m
}
