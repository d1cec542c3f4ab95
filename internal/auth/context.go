// Package auth provides request context helpers shared by middleware and
// handlers without an import cycle between them.
package auth

import (
	"context"
	"net/http"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	limitContextKey contextKey = "limit"
	tokenContextKey contextKey = "token"
)

// GetUser returns the authenticated user, or nil.
//
// Usage:
//
//	user := auth.GetUser(r.Context())
//	if user == nil {
//	    // Handle unauthenticated request
//	}
func GetUser(ctx context.Context) *domain.User {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// GetUserFromRequest is GetUser for a request.
func GetUserFromRequest(r *http.Request) *domain.User {
	return GetUser(r.Context())
}

// SetUser stores the authenticated user.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetToken returns the bearer token the request authenticated with.
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// SetToken stores the bearer token so logout can revoke it.
func SetToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// GetLimitInfo returns the allowance the limit gate attached, or nil when
// the route is not metered.
func GetLimitInfo(ctx context.Context) *domain.LimitInfo {
	info, ok := ctx.Value(limitContextKey).(*domain.LimitInfo)
	if !ok {
		return nil
	}
	return info
}

// SetLimitInfo attaches an allowance to the request.
func SetLimitInfo(ctx context.Context, info *domain.LimitInfo) context.Context {
	return context.WithValue(ctx, limitContextKey, info)
}
