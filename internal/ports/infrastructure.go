package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-screener/internal/domain"
)

// LLMClient defines the interface for interacting with Large Language
// Model providers.
// Implementations should handle provider-specific details like authentication,
// request formatting, and response parsing.
type LLMClient interface {
	// Complete sends a completion request to the LLM provider.
	// It returns the generated text and any error encountered.
	//
	// The options map allows flexibility for different providers without
	// changing the interface. Common options include:
	//   - "temperature": float64 (0.0-1.0)
	//   - "max_tokens": int
	//   - "model": string (specific model version)
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// CompleteWithUsage behaves like Complete but also reports the input
	// and output token counts for usage accounting.
	CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (response string, tokensIn, tokensOut int, err error)

	// EstimateTokens calculates the approximate token count for a given text.
	// This is useful for cost estimation and staying within model limits.
	// The estimation method may vary by provider.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier being used by this client.
	// This is useful for logging and debugging purposes.
	GetModel() string
}

// CacheStore maps evaluation fingerprints to previously computed results
// with expiration. Caching is strictly an optimization: implementations
// may fail or be entirely unavailable and evaluation must still succeed,
// so callers swallow (and log) every error from this interface.
// The store owns concurrent-write safety; last write wins when two
// pipelines compute the same fingerprint simultaneously.
type CacheStore interface {
	// Get retrieves a cached evaluation result by fingerprint.
	// Returns the result and true on a hit, or nil and false on a miss.
	Get(ctx context.Context, key string) (*domain.EvaluationResult, bool, error)

	// Set stores a result under the fingerprint with an expiration time.
	// A zero ttl means the entry does not expire. Set is best-effort.
	Set(ctx context.Context, key string, result domain.EvaluationResult, ttl time.Duration) error

	// Exists reports whether the fingerprint has a live entry without
	// deserializing it.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like cache hits/misses, errors, etc.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like queue depth, active
	// evaluations, etc.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like scores or response
	// sizes.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
