// Package metrics defines Prometheus metrics for the scan pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	// HTTPRequestsTotal tracks HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Scan pipeline metrics
var (
	// ScanJobsSubmittedTotal tracks admitted scan jobs.
	ScanJobsSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scan_jobs_submitted_total",
			Help: "Total number of scan jobs admitted",
		},
	)

	// ScanTasksProcessedTotal tracks worker task outcomes. The outcome
	// label distinguishes completed, no_zone, and failed so that
	// data-quality misses are visible separately from real failures.
	ScanTasksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_tasks_processed_total",
			Help: "Total number of scan tasks processed by outcome",
		},
		[]string{"outcome"},
	)

	// ScanProcessingDuration tracks end-to-end task processing time.
	ScanProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scan_processing_duration_seconds",
			Help:    "Scan task processing duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// ScanStepFailuresTotal tracks which pipeline step failed.
	ScanStepFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_step_failures_total",
			Help: "Total number of scan pipeline step failures",
		},
		[]string{"step"},
	)

	// ZoneRecomputesTotal tracks zone status recomputations.
	ZoneRecomputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zone_recomputes_total",
			Help: "Total number of zone status recomputations",
		},
		[]string{"trigger"},
	)

	// ZoneStatusCurrent exposes each zone's current status as a gauge
	// (0=Green, 1=Yellow, 2=Red).
	ZoneStatusCurrent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zone_status_current",
			Help: "Current zone severity status (0=Green, 1=Yellow, 2=Red)",
		},
		[]string{"campus_id", "zone_code"},
	)

	// ReconcilerSweepsTotal tracks reconciliation sweep runs.
	ReconcilerSweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_sweeps_total",
			Help: "Total number of reconciliation sweep actions",
		},
		[]string{"action"},
	)
)

// Task outcome label values.
const (
	OutcomeCompleted = "completed"
	OutcomeNoZone    = "no_zone"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
)

// Recompute trigger label values.
const (
	TriggerScan  = "scan"
	TriggerSweep = "sweep"
	TriggerAdmin = "admin"
)

// StatusGaugeValue maps a zone status string to its gauge value.
func StatusGaugeValue(status string) float64 {
	switch status {
	case "Red":
		return 2
	case "Yellow":
		return 1
	default:
		return 0
	}
}
