package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "archprompt"

// Dispatch outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeMissingKey   = "missing_key"
	OutcomeCallFailure  = "call_failure"
	OutcomeInvalidInput = "invalid_input"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Generate actions by outcome",
		},
		[]string{"outcome", "with_image"},
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Time spent waiting on the model",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 80},
		},
	)
)

func ObserveDispatch(outcome string, withImage bool, started time.Time) {
	label := "false"
	if withImage {
		label = "true"
	}
	DispatchTotal.WithLabelValues(outcome, label).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeCallFailure {
		DispatchDuration.Observe(time.Since(started).Seconds())
	}
}
