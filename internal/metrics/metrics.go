// Package metrics provides Prometheus metrics for harness runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TestsTotal counts finished tests by outcome.
	TestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harness_tests_total",
			Help: "Total number of harness tests run, by outcome",
		},
		[]string{"status"},
	)

	// TestDuration measures wall-clock time spent inside a test body.
	TestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harness_test_duration_seconds",
			Help:    "Harness test duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	// TimersFiredTotal counts virtual timer callbacks invoked.
	TimersFiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "harness_timers_fired_total",
			Help: "Total number of virtual clock timers fired",
		},
	)

	// DependencyInvocationsTotal counts substituted dependency calls by
	// outcome. Dependency names are left out to keep cardinality bounded.
	DependencyInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harness_dependency_invocations_total",
			Help: "Total number of fake dependency invocations",
		},
		[]string{"outcome"},
	)

	// SnapshotsTotal counts snapshot comparisons by result.
	SnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harness_snapshots_total",
			Help: "Total number of snapshot matches, by result",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordTest records a finished test.
func RecordTest(status string, duration time.Duration) {
	TestsTotal.WithLabelValues(status).Inc()
	TestDuration.Observe(duration.Seconds())
}

// RecordTimerFired records a fired virtual timer.
func RecordTimerFired() {
	TimersFiredTotal.Inc()
}

// RecordInvocation records a fake dependency invocation.
func RecordInvocation(outcome string) {
	DependencyInvocationsTotal.WithLabelValues(outcome).Inc()
}

// RecordSnapshot records a snapshot comparison.
func RecordSnapshot(result string) {
	SnapshotsTotal.WithLabelValues(result).Inc()
}
