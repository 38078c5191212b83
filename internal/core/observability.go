package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"wasteportal/pkg/domain"
)

// MetricsRecorder receives the outcome of every service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// ReportGauge receives the report count per status after each mutation.
type ReportGauge interface {
	SetReportCounts(counts map[domain.ReportStatus]int)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// PrometheusMetricsRecorder exports operation counters, latencies and the
// report backlog as Prometheus collectors.
type PrometheusMetricsRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	reports    *prometheus.GaugeVec
}

// NewPrometheusMetricsRecorder registers the collectors with reg. A nil reg
// leaves the collectors unregistered, which tests use to avoid clashes.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	r := &PrometheusMetricsRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wasteportal",
			Name:      "operations_total",
			Help:      "Service operations by outcome.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wasteportal",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		reports: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wasteportal",
			Name:      "reports",
			Help:      "Reports currently held, by status.",
		}, []string{"status"}),
	}
	if reg != nil {
		reg.MustRegister(r.operations, r.durations, r.reports)
	}
	return r
}

// Observe records a service operation outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetReportCounts publishes the report backlog.
func (r *PrometheusMetricsRecorder) SetReportCounts(counts map[domain.ReportStatus]int) {
	for _, s := range []domain.ReportStatus{domain.ReportPending, domain.ReportVerified} {
		r.reports.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}

// Collectors exposes the underlying collectors, mainly for tests.
func (r *PrometheusMetricsRecorder) Collectors() (*prometheus.CounterVec, *prometheus.HistogramVec, *prometheus.GaugeVec) {
	return r.operations, r.durations, r.reports
}

// observe times fn and reports it to m.
func observe(ctx context.Context, m MetricsRecorder, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	m.Observe(ctx, operation, err == nil, time.Since(start))
	return err
}
