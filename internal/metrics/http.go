package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

var (
	uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// routeLabel prefers the pattern the mux matched. Unmatched requests fall
// back to the raw path with ids and dates collapsed to bound cardinality.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	path := uuidPattern.ReplaceAllString(r.URL.Path, "{id}")
	return datePattern.ReplaceAllString(path, "{date}")
}

// Middleware records request count, latency and in-flight requests. The
// scrape endpoint itself is not measured.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routeLabel(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
