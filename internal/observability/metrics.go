// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Run metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	SymbolsAnalyzed prometheus.Counter
	SymbolsSkipped  prometheus.Counter

	// Latency metrics
	FetchLatency  *prometheus.HistogramVec
	DetectLatency *prometheus.HistogramVec

	// Stream metrics
	WSClientsConnected prometheus.Gauge

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "intraday_lab"
	}

	return &Metrics{
		// Run metrics
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by detector and status",
		}, []string{"detector", "status"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "run_duration_seconds",
			Help:      "Analysis run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"detector"}),
		SymbolsAnalyzed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "symbols_analyzed_total",
			Help:      "Total number of symbols analyzed successfully",
		}),
		SymbolsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "symbols_skipped_total",
			Help:      "Total number of symbols skipped",
		}),

		// Latency metrics
		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "fetch_latency_seconds",
			Help:      "Bar fetch latency in seconds by provider",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		DetectLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "detect_latency_seconds",
			Help:      "Per-symbol detection latency in seconds by detector",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"detector"}),

		// Stream metrics
		WSClientsConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "ws_clients_connected",
			Help:      "Current number of connected WebSocket clients",
		}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful analysis run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRun records one completed analysis run.
func RecordRun(detector, status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(detector, status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues(detector).Observe(durationSeconds)
}

// RecordFetchLatency records one provider fetch.
func RecordFetchLatency(provider string, seconds float64) {
	DefaultMetrics.FetchLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordDetectLatency records one per-symbol detection pass.
func RecordDetectLatency(detector string, seconds float64) {
	DefaultMetrics.DetectLatency.WithLabelValues(detector).Observe(seconds)
}
