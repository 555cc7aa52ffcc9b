package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServiceName labels logs, spans and metrics.
const ServiceName = "scorekeeper"

// Metrics records operation outcomes and game activity.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
	RecordGameCompleted(ctx context.Context, gameType string)
	RecordRoundRecorded(ctx context.Context, gameType string)
}

// PrometheusMetrics implements Metrics on a dedicated registry.
type PrometheusMetrics struct {
	registry       *prometheus.Registry
	operations     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	gamesCompleted *prometheus.CounterVec
	roundsRecorded *prometheus.CounterVec
}

// NewPrometheusMetrics registers the scorekeeper collectors on registry.
// A nil registry gets a fresh one with the Go and process collectors.
func NewPrometheusMetrics(registry *prometheus.Registry) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &PrometheusMetrics{
		registry: registry,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "operation_total",
			Help:      "Service operations by outcome.",
		}, []string{"service", "operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ServiceName,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		gamesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "games_completed_total",
			Help:      "Sessions that reached game over.",
		}, []string{"game_type"}),
		roundsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "rounds_recorded_total",
			Help:      "Rounds appended to sessions.",
		}, []string{"game_type"}),
	}
	registry.MustRegister(m.operations, m.duration, m.gamesCompleted, m.roundsRecorded)
	return m
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "attempt").Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "success").Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "failure").Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.duration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordGameCompleted(_ context.Context, gameType string) {
	m.gamesCompleted.WithLabelValues(gameType).Inc()
}

func (m *PrometheusMetrics) RecordRoundRecorded(_ context.Context, gameType string) {
	m.roundsRecorded.WithLabelValues(gameType).Inc()
}

// Registry exposes the underlying registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

type noopMetrics struct{}

// NewNoop returns Metrics that discard everything.
func NewNoop() Metrics { return noopMetrics{} }

func (noopMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (noopMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (noopMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (noopMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (noopMetrics) RecordGameCompleted(context.Context, string)                            {}
func (noopMetrics) RecordRoundRecorded(context.Context, string)                            {}
