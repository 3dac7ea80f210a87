// Package metrics implements the MetricsCollector port using Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-screener/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks LLM usage, cache effectiveness, and evaluation
// performance for the screening engine.
type PrometheusMetrics struct {
	llmRequests      *prometheus.CounterVec
	llmTokens        *prometheus.CounterVec
	llmLatency       *prometheus.HistogramVec
	cacheRequests    *prometheus.CounterVec
	operationCounter *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	scoreHistogram   *prometheus.HistogramVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and
// registers all required metrics in the given registry. A nil registerer
// uses the global Prometheus registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM requests by provider, model, and outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total input and output tokens consumed by LLM requests.",
			},
			[]string{"provider", "model", "token_type"},
		),
		llmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_latency_seconds",
				Help:    "Latency of individual LLM requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model"},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_cache_requests_total",
				Help: "Cache lookups for evaluation results, labeled hit or miss.",
			},
			[]string{"status"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_operations_total",
				Help: "Total pipeline and ranking operations by outcome.",
			},
			[]string{"operation", "status"},
		),
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evaluation_duration_seconds",
				Help:    "End-to-end duration of evaluation operations.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
		scoreHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evaluation_scores",
				Help:    "Distribution of evaluator scores across candidates.",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
			[]string{"operation"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "evaluation_system_state",
				Help: "Current system state values, such as in-flight evaluations.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters. Known metric names route to their dedicated
// collectors; everything else lands on the generic operation counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "llm_requests_total":
		pm.llmRequests.WithLabelValues(
			labels["provider"],
			labels["model"],
			labels["status"],
		).Add(value)
	case "llm_tokens_total":
		pm.llmTokens.WithLabelValues(
			labels["provider"],
			labels["model"],
			labels["token_type"],
		).Add(value)
	case "evaluation_cache_requests_total":
		pm.cacheRequests.WithLabelValues(labels["status"]).Add(value)
	default:
		status := labels["status"]
		if status == "" {
			status = "success"
		}
		pm.operationCounter.WithLabelValues(metric, status).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in the appropriate Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "llm_latency_seconds":
		pm.llmLatency.WithLabelValues(labels["provider"], labels["model"]).Observe(value)
	case "evaluation_scores":
		pm.scoreHistogram.WithLabelValues(labels["operation"]).Observe(value)
	default:
		pm.operationLatency.WithLabelValues(metric).Observe(value)
	}
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
