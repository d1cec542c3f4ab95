package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlx1q/Tester-FLAI/internal/auth"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

// =============================================================================
// Mock UserService
// =============================================================================

// mockUserService implements service.UserService; only session lookup is
// exercised by the middleware.
type mockUserService struct {
	service.UserService
	GetBySessionTokenFunc func(ctx context.Context, token string) (*domain.User, error)
}

func (m *mockUserService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	if m.GetBySessionTokenFunc != nil {
		return m.GetBySessionTokenFunc(ctx, token)
	}
	return nil, errors.New("GetBySessionTokenFunc not implemented")
}

func sessionsFor(token string, user *domain.User) *mockUserService {
	return &mockUserService{
		GetBySessionTokenFunc: func(ctx context.Context, got string) (*domain.User, error) {
			if got != token {
				return nil, domain.Unauthorized("UserService.GetBySessionToken", "Invalid or expired session")
			}
			return user, nil
		},
	}
}

func testUser() *domain.User {
	return &domain.User{
		ID:           uuid.New(),
		Email:        "aru@example.com",
		Name:         "Aru",
		Subscription: domain.Subscription{Type: domain.SubscriptionFree},
	}
}

// captureUser records what the wrapped handler saw.
type captureUser struct {
	called bool
	user   *domain.User
	token  string
}

func (c *captureUser) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.called = true
	c.user = auth.GetUser(r.Context())
	c.token = auth.GetToken(r.Context())
}

// =============================================================================
// AuthMiddleware
// =============================================================================

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Bearer   padded  ", "padded"},
		{"Basic abc123", ""},
		{"abc123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerToken(req))
		})
	}
}

func TestWithUser(t *testing.T) {
	user := testUser()
	mw := NewAuthMiddleware(sessionsFor("good-token", user), testLogger())

	tests := []struct {
		name      string
		header    string
		wantUser  bool
		wantToken string
	}{
		{"no header", "", false, ""},
		{"valid token", "Bearer good-token", true, "good-token"},
		{"unknown token", "Bearer stale-token", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			next := &captureUser{}
			mw.WithUser(next).ServeHTTP(httptest.NewRecorder(), req)

			require.True(t, next.called, "WithUser never rejects")
			if tt.wantUser {
				require.NotNil(t, next.user)
				assert.Equal(t, user.ID, next.user.ID)
			} else {
				assert.Nil(t, next.user)
			}
			assert.Equal(t, tt.wantToken, next.token)
		})
	}
}

func TestWithUser_LookupFailureContinuesAnonymously(t *testing.T) {
	mw := NewAuthMiddleware(&mockUserService{
		GetBySessionTokenFunc: func(ctx context.Context, token string) (*domain.User, error) {
			return nil, domain.Internal(errors.New("db down"), "UserService.GetBySessionToken", "Failed")
		},
	}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer any")
	next := &captureUser{}
	mw.WithUser(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, next.called)
	assert.Nil(t, next.user)
}

func TestAuthenticated(t *testing.T) {
	mw := NewAuthMiddleware(sessionsFor("good-token", testUser()), testLogger())

	t.Run("rejects missing token with 401 JSON", func(t *testing.T) {
		next := &captureUser{}
		rec := httptest.NewRecorder()
		mw.Authenticated(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

		assert.False(t, next.called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		assert.Contains(t, rec.Body.String(), `"unauthorized"`)
	})

	t.Run("passes a valid token", func(t *testing.T) {
		next := &captureUser{}
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		mw.Authenticated(next).ServeHTTP(rec, req)

		assert.True(t, next.called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

// =============================================================================
// AdminKeyMiddleware
// =============================================================================

func TestAdminKeyMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		provided   string
		status     int
	}{
		{"matching key", "s3cret", "s3cret", http.StatusOK},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong key", "s3cret", "guess", http.StatusForbidden},
		{"admin disabled", "", "anything", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

			req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
			if tt.provided != "" {
				req.Header.Set(AdminKeyHeader, tt.provided)
			}
			rec := httptest.NewRecorder()
			NewAdminKeyMiddleware(tt.configured, testLogger()).Handler(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status == http.StatusOK, called)
		})
	}
}

// =============================================================================
// Stack
// =============================================================================

func TestStack_AppliesInOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Stack(mark("auth"), mark("lock"), mark("limit"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"auth", "lock", "limit", "handler"}, order)
}
