package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks the number of outbound API calls to Connect.
	ConnectRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_api_requests_total",
			Help: "Total number of Connect API requests made (by endpoint and status).",
		},
		[]string{"endpoint", "status"},
	)

	// Measures duration of API requests to Connect.
	ConnectRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connect_api_request_duration_seconds",
			Help:    "Duration of Connect API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"endpoint"},
	)

	// Tracks rows emitted by report runs.
	ReportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_rows_total",
			Help: "Total number of report rows emitted (by report).",
		},
		[]string{"report"},
	)

	// Tracks completed report runs by outcome.
	ReportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_runs_total",
			Help: "Total number of report runs (by report and result).",
		},
		[]string{"report", "result"}, // result = "ok" | "error"
	)

	// Measures end-to-end report generation time.
	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_duration_seconds",
			Help:    "End-to-end duration of report generation in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms → ~3.4m
		},
		[]string{"report"},
	)

	// Tracks NATS messages published by subject and result.
	NATSMessageCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_total",
			Help: "Total number of NATS messages published.",
		},
		[]string{"subject", "result"}, // result = "ok" | "error"
	)

	// Measures publish latency to NATS.
	NATSMessageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nats_message_latency_seconds",
			Help:    "Latency of NATS publish calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"subject"},
	)

	// Tracks cache hits and misses for secrets / credentials.
	SecretsCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secrets_cache_access_total",
			Help: "Number of cache hits/misses in secret cache.",
		},
		[]string{"result"}, // hit | miss
	)

	// Tracks total errors (aggregated).
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_errors_total",
			Help: "Count of service-level errors by component.",
		},
		[]string{"component", "reason"},
	)
)

// ObserveDuration records the time taken for a function and updates the given histogram.
func ObserveDuration(v interface{}, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()

	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	default:
		// silently ignore counters; they're not meant for duration tracking
	}
}

func IncConnectRequest(endpoint, status string) {
	ConnectRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

func IncReportRows(report string, n int) {
	ReportRowsTotal.WithLabelValues(report).Add(float64(n))
}

func IncReportRun(report, result string) {
	ReportRunsTotal.WithLabelValues(report, result).Inc()
}

func IncNATSMessage(subject, result string) {
	NATSMessageCount.WithLabelValues(subject, result).Inc()
}

func IncCacheHit(result string) {
	SecretsCacheHits.WithLabelValues(result).Inc()
}

func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}
