package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

var WindowFitsMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hawkes_window_fits_total",
		Help: "rolling windows processed, by solver and outcome",
	}, []string{"solver", "outcome"})

var WindowFitDurationMetrics = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "hawkes_window_fit_duration_seconds",
		Help:    "wall time of a single window fit",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{"solver"})

var FitRunsMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hawkes_fit_runs_total",
		Help: "fitting entry point calls, by result",
	}, []string{"solver", "result"})

var PendingTasksMetrics = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "hawkes_executor_pending_tasks",
		Help: "multi-start tasks submitted and not yet finished",
	})

func init() {
	prometheus.MustRegister(
		WindowFitsMetrics,
		WindowFitDurationMetrics,
		FitRunsMetrics,
		PendingTasksMetrics,
	)
}
