package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/crlx1q/Tester-FLAI/internal/handler"
)

// MetricsAuthMiddleware puts HTTP basic auth in front of /metrics.
type MetricsAuthMiddleware struct {
	username, password []byte
}

// NewMetricsAuthMiddleware creates a new MetricsAuthMiddleware. With no
// username and no password configured the endpoint is left open.
func NewMetricsAuthMiddleware(username, password string) *MetricsAuthMiddleware {
	return &MetricsAuthMiddleware{username: []byte(username), password: []byte(password)}
}

func (m *MetricsAuthMiddleware) open() bool {
	return len(m.username) == 0 && len(m.password) == 0
}

// Handler requires the configured credentials.
func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	if m.open() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		// & rather than && so both comparisons always run.
		if !ok || subtle.ConstantTimeCompare([]byte(user), m.username)&subtle.ConstantTimeCompare([]byte(pass), m.password) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
			handler.UnauthorizedResponse(w, r, discard)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// discard swallows the 401 log line; scrapers retry often.
var discard = slog.New(slog.DiscardHandler)
