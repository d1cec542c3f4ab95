package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Request Logging Middleware Tests
// =============================================================================

func serveLogged(t *testing.T, req *http.Request, status int) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})

	rec := httptest.NewRecorder()
	NewRequestLoggingMiddleware(logger).Handler(next).ServeHTTP(rec, req)
	return buf.String(), rec
}

func TestRequestLoggingMiddleware_LogsRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/food/history", nil)
	req.RemoteAddr = "10.0.0.1:8080"
	req.Header.Set("X-Forwarded-For", "203.0.113.195")
	req.Header.Set("User-Agent", "FLAI-iOS/2.1")

	out, _ := serveLogged(t, req, http.StatusOK)

	for _, want := range []string{"GET", "/api/food/history", "status=200", "duration_ms", "203.0.113.195", "FLAI-iOS/2.1", "level=INFO"} {
		assert.Contains(t, out, want)
	}
}

func TestRequestLoggingMiddleware_ServerErrorsLogAtWarn(t *testing.T) {
	out, _ := serveLogged(t, httptest.NewRequest(http.MethodPost, "/api/ai/chat", nil), http.StatusServiceUnavailable)

	assert.Contains(t, out, "status=503")
	assert.Contains(t, out, "level=WARN")
}

func TestRequestLoggingMiddleware_IncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := middleware.RequestID(NewRequestLoggingMiddleware(logger).Handler(next))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "request_id=req-42")
}

func TestRequestLoggingMiddleware_RedactsSensitiveQueryParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
		secret string
	}{
		{"token", "/api/profile?token=secrettoken123", "secrettoken123"},
		{"api key", "/api/admin/stats?api_key=adm1n", "adm1n"},
		{"password", "/api/auth/login?password=hunter2", "hunter2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := serveLogged(t, httptest.NewRequest(http.MethodGet, tt.target, nil), http.StatusOK)
			assert.NotContains(t, out, tt.secret)
			assert.Contains(t, out, "[REDACTED]")
		})
	}
}

func TestRequestLoggingMiddleware_KeepsHarmlessQueryParams(t *testing.T) {
	out, _ := serveLogged(t, httptest.NewRequest(http.MethodGet, "/api/food/daily-summary?date=2025-03-10", nil), http.StatusOK)
	assert.Contains(t, out, "date=2025-03-10")
}

func TestRequestLoggingMiddleware_PassesResponseThrough(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom", "value")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	rec := httptest.NewRecorder()
	NewRequestLoggingMiddleware(logger).Handler(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/food/water", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "value", rec.Header().Get("X-Custom"))
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
	assert.Contains(t, buf.String(), "status=201")
}

func TestRequestLoggingMiddleware_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			out, _ := serveLogged(t, httptest.NewRequest(http.MethodGet, path, nil), http.StatusOK)
			assert.Empty(t, out)
		})
	}
}
