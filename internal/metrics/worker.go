package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SweepRowsTotal counts rows touched by maintenance sweeps.
var SweepRowsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_rows_total",
		Help:      "Rows changed by background maintenance sweeps",
	},
	[]string{"type"},
)

// JobOutcome labels one finished attempt.
type JobOutcome string

const (
	OutcomeCompleted JobOutcome = "completed"
	OutcomeFailed    JobOutcome = "failed"
	OutcomeRetry     JobOutcome = "retry"
)

// JobFinished records one attempt of jobType. Only completed attempts feed
// the duration histogram; a retry also counts toward JobRetriesTotal.
func JobFinished(jobType string, outcome JobOutcome, took time.Duration) {
	JobsTotal.WithLabelValues(jobType, string(outcome)).Inc()
	switch outcome {
	case OutcomeCompleted:
		JobDuration.WithLabelValues(jobType).Observe(took.Seconds())
	case OutcomeRetry:
		JobRetriesTotal.WithLabelValues(jobType).Inc()
	}
}

// SweepRows adds n to the sweep counter of jobType.
func SweepRows(jobType string, n int64) {
	if n > 0 {
		SweepRowsTotal.WithLabelValues(jobType).Add(float64(n))
	}
}
