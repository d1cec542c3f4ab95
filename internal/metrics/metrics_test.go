package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    string
	}{
		{"matched pattern wins", "DELETE /api/food/{id}", "/api/food/3f1e2d3c-4b5a-6978-8a9b-0c1d2e3f4a5b", "DELETE /api/food/{id}"},
		{"uuid collapsed", "", "/api/recipes/3f1e2d3c-4b5a-6978-8a9b-0c1d2e3f4a5b/favorite", "/api/recipes/{id}/favorite"},
		{"date collapsed", "", "/api/food/water/2025-03-10", "/api/food/water/{date}"},
		{"plain path kept", "", "/nope", "/nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			r.Pattern = tt.pattern
			assert.Equal(t, tt.want, routeLabel(r))
		})
	}
}

func TestMiddleware_CountsStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/test-teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "GET /api/test-teapot", "418")
	before := testutil.ToFloat64(counter)

	Middleware(mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/test-teapot", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestJobFinished(t *testing.T) {
	const jobType = "test_job_finished"

	JobFinished(jobType, OutcomeRetry, time.Second)
	JobFinished(jobType, OutcomeFailed, time.Second)
	JobFinished(jobType, OutcomeCompleted, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(JobsTotal.WithLabelValues(jobType, "retry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(JobsTotal.WithLabelValues(jobType, "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(JobsTotal.WithLabelValues(jobType, "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(JobRetriesTotal.WithLabelValues(jobType)))
}

func TestSweepRowsIgnoresZero(t *testing.T) {
	const jobType = "test_sweep_rows"

	SweepRows(jobType, 0)
	SweepRows(jobType, 3)

	assert.Equal(t, 3.0, testutil.ToFloat64(SweepRowsTotal.WithLabelValues(jobType)))
}
