package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlx1q/Tester-FLAI/internal/auth"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

type stubUserService struct {
	service.UserService

	registerFn func(ctx context.Context, params domain.RegisterParams) (*domain.LoginResult, error)
	loginFn    func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	loggedOut  []string
	versionFn  func(ctx context.Context, clientVersion string) (*domain.VersionCheck, error)
}

func (s *stubUserService) CheckVersion(ctx context.Context, clientVersion string) (*domain.VersionCheck, error) {
	return s.versionFn(ctx, clientVersion)
}

func (s *stubUserService) Register(ctx context.Context, params domain.RegisterParams) (*domain.LoginResult, error) {
	return s.registerFn(ctx, params)
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubUserService) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

type recordingAttempts struct {
	failed, reset int
}

func (a *recordingAttempts) RecordFailedLogin(*http.Request) { a.failed++ }
func (a *recordingAttempts) ResetLogin(*http.Request)       { a.reset++ }

func loginResult() *domain.LoginResult {
	return &domain.LoginResult{
		User:      testUser(),
		Token:     "raw-session-token",
		ExpiresAt: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestAuthHandler_Register(t *testing.T) {
	var got domain.RegisterParams
	users := &stubUserService{
		registerFn: func(_ context.Context, p domain.RegisterParams) (*domain.LoginResult, error) {
			got = p
			return loginResult(), nil
		},
	}
	h := NewAuthHandler(users, nil, discardLogger())

	rec := serve(t, h, nil, jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "aigerim@example.com", "password": "s3cret-pass", "name": "Aigerim",
	}))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, domain.RegisterParams{Email: "aigerim@example.com", Password: "s3cret-pass", Name: "Aigerim"}, got)

	body := decodeBody(t, rec)
	assert.Equal(t, "raw-session-token", body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "aigerim@example.com", user["email"])
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestAuthHandler_RegisterErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		err        error
		wantStatus int
	}{
		{name: "empty body", body: nil, wantStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"email":`, wantStatus: http.StatusBadRequest},
		{name: "duplicate email", body: map[string]string{"email": "a@b.c"}, err: domain.Errorf(domain.ECONFLICT, "test", "Email already registered"), wantStatus: http.StatusConflict},
		{name: "weak password", body: map[string]string{"email": "a@b.c"}, err: domain.NewValidationError("test", "password", "too short"), wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &stubUserService{
				registerFn: func(context.Context, domain.RegisterParams) (*domain.LoginResult, error) {
					return nil, tt.err
				},
			}
			h := NewAuthHandler(users, nil, discardLogger())

			rec := serve(t, h, nil, jsonRequest(http.MethodPost, "/api/auth/register", tt.body))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAuthHandler_LoginFeedsRateLimiter(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantFailed int
		wantReset  int
	}{
		{name: "success resets", wantStatus: http.StatusOK, wantReset: 1},
		{name: "bad credentials count", err: domain.Errorf(domain.EUNAUTHORIZED, "test", "Invalid email or password"), wantStatus: http.StatusUnauthorized, wantFailed: 1},
		{name: "server error does not count", err: domain.Internal(context.Canceled, "test", "boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &stubUserService{
				loginFn: func(context.Context, string, string) (*domain.LoginResult, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return loginResult(), nil
				},
			}
			attempts := &recordingAttempts{}
			h := NewAuthHandler(users, attempts, discardLogger())

			rec := serve(t, h, nil, jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@b.c", "password": "x"}))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantFailed, attempts.failed)
			assert.Equal(t, tt.wantReset, attempts.reset)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	users := &stubUserService{}
	h := NewAuthHandler(users, nil, discardLogger())

	req := jsonRequest(http.MethodPost, "/api/auth/logout", nil)
	req = req.WithContext(auth.SetToken(req.Context(), "tok-123"))
	rec := serve(t, h, testUser(), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"tok-123"}, users.loggedOut)
}

func TestAuthHandler_Register_ClosedRegistration(t *testing.T) {
	users := &stubUserService{
		registerFn: func(context.Context, domain.RegisterParams) (*domain.LoginResult, error) {
			return nil, domain.Forbidden("UserService.Register", "Registration is temporarily disabled")
		},
	}
	h := NewAuthHandler(users, nil, discardLogger())

	rec := serve(t, h, nil, jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"a@example.com","password":"Kokteb3ri","name":"A"}`))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.EFORBIDDEN, errorCode(t, rec))
}

func TestAuthHandler_CheckVersion(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		check      *domain.VersionCheck
		err        error
		wantStatus int
		wantURL    any
	}{
		{
			name:       "outdated",
			body:       `{"currentVersion":"1.1.0"}`,
			check:      &domain.VersionCheck{NeedsUpdate: true, CurrentVersion: "1.2.0", DownloadURL: domain.AppDownloadPath},
			wantStatus: http.StatusOK,
			wantURL:    domain.AppDownloadPath,
		},
		{
			name:       "up to date has null url",
			body:       `{"currentVersion":"1.2.0"}`,
			check:      &domain.VersionCheck{CurrentVersion: "1.2.0"},
			wantStatus: http.StatusOK,
			wantURL:    nil,
		},
		{
			name:       "missing version",
			body:       `{}`,
			err:        domain.NewValidationError("op", "currentVersion", "Client version is required"),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			users := &stubUserService{
				versionFn: func(_ context.Context, v string) (*domain.VersionCheck, error) {
					got = v
					return tt.check, tt.err
				},
			}
			h := NewAuthHandler(users, nil, discardLogger())

			// No session: the route is public.
			rec := serve(t, h, nil, jsonRequest(http.MethodPost, "/api/auth/check-version", tt.body))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.err != nil {
				return
			}
			body := decodeBody(t, rec)
			assert.Equal(t, tt.check.NeedsUpdate, body["needsUpdate"])
			assert.Equal(t, tt.wantURL, body["downloadUrl"])
			assert.NotEmpty(t, got)
		})
	}
}
