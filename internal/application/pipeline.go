// Package application orchestrates the evaluation pipeline and the
// concurrent ranking coordinator on top of the domain and ports layers.
package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ahrav/go-screener/internal/agents"
	"github.com/ahrav/go-screener/internal/domain"
	"github.com/ahrav/go-screener/internal/ports"
)

// PipelineConfig carries the caching knobs for one Pipeline.
type PipelineConfig struct {
	// CacheEnabled toggles the fingerprint lookup before evaluation and
	// the result write after it. Disabled means every call recomputes.
	CacheEnabled bool

	// CacheTTL bounds how long a computed result may be served from the
	// cache. Zero means entries never expire.
	CacheTTL time.Duration

	// Version tags fingerprints so logic changes invalidate stale
	// entries. Empty defaults to PipelineVersion.
	Version string
}

// Pipeline runs the fixed sequence of evaluation stages for one
// candidate answer, wrapped by a cache check before and a best-effort
// cache write after. Stages are strictly sequential because later
// agents consume earlier agents' output as prompt context.
//
// A Pipeline is stateless between calls and safe for concurrent use;
// the ranking coordinator fans many candidates out over a single
// instance.
type Pipeline struct {
	stages  []ports.Agent
	cache   ports.CacheStore
	metrics ports.MetricsCollector
	logger  *zap.Logger
	config  PipelineConfig
}

// NewPipeline validates every stage up front and returns a ready
// Pipeline. cache may be nil only when caching is disabled; metrics and
// logger may be nil.
func NewPipeline(
	stages []ports.Agent,
	cache ports.CacheStore,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	config PipelineConfig,
) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one stage")
	}
	for _, stage := range stages {
		if err := stage.Validate(); err != nil {
			return nil, fmt.Errorf("stage %s failed validation: %w", stage.Name(), err)
		}
	}
	if config.CacheEnabled && cache == nil {
		return nil, fmt.Errorf("caching is enabled but no cache store was provided")
	}
	if config.Version == "" {
		config.Version = PipelineVersion
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		stages:  stages,
		cache:   cache,
		metrics: metrics,
		logger:  logger.Named("pipeline"),
		config:  config,
	}, nil
}

// DefaultStages builds the standard four-stage sequence against one LLM
// client: evaluator, analyzer, improvement, synthesizer. The configured
// temperature and token limit apply to every model-backed stage.
func DefaultStages(llmClient ports.LLMClient, config LLMConfig, logger *zap.Logger) ([]ports.Agent, error) {
	evaluator, err := agents.NewEvaluator(llmClient, agents.EvaluatorConfig{
		Temperature: config.Temperature,
		MaxTokens:   config.MaxTokens,
	}, logger)
	if err != nil {
		return nil, err
	}
	analyzer, err := agents.NewAnalyzer(llmClient, agents.AnalyzerConfig{
		Temperature: config.Temperature,
		MaxTokens:   config.MaxTokens,
	}, logger)
	if err != nil {
		return nil, err
	}
	improvement, err := agents.NewImprovement(llmClient, agents.ImprovementConfig{
		Temperature: config.Temperature,
		MaxTokens:   config.MaxTokens,
	}, logger)
	if err != nil {
		return nil, err
	}
	synthesizer := agents.NewSynthesizer(agents.DefaultSynthesizerConfig(), logger)

	return []ports.Agent{evaluator, analyzer, improvement, synthesizer}, nil
}

// Evaluate scores one free-text answer against the question. It is a
// convenience wrapper for callers outside a ranking request; the
// candidate identifier is left empty.
func (p *Pipeline) Evaluate(ctx context.Context, question, answer string) (domain.EvaluationResult, error) {
	return p.EvaluateCandidate(ctx, question, domain.CandidateAnswer{Answer: answer})
}

// EvaluateCandidate runs the full stage sequence for one candidate.
// On a cache hit the stored result is returned as-is; a hit is
// observably identical to a fresh computation. Stage errors propagate:
// by the time Execute returns an error the transport itself failed and
// the answer was never evaluated, so there is no result to return.
func (p *Pipeline) EvaluateCandidate(
	ctx context.Context,
	question string,
	candidate domain.CandidateAnswer,
) (domain.EvaluationResult, error) {
	start := time.Now()
	key := Fingerprint(question, candidate.Answer, p.config.Version)

	if cached, ok := p.cacheLookup(ctx, key); ok {
		p.logger.Debug("cache hit",
			zap.String("candidate_id", candidate.ID),
			zap.String("fingerprint", key),
		)
		return cached, nil
	}

	state := domain.NewEvaluationState(question, candidate)
	for _, stage := range p.stages {
		next, err := stage.Execute(ctx, state)
		if err != nil {
			p.metrics.RecordCounter("evaluate", 1, map[string]string{"status": "error"})
			return domain.EvaluationResult{}, fmt.Errorf("pipeline stage %s: %w", stage.Name(), err)
		}
		state = next
	}

	result, ok := domain.Get(state, domain.KeyResult)
	if !ok {
		p.metrics.RecordCounter("evaluate", 1, map[string]string{"status": "error"})
		return domain.EvaluationResult{}, fmt.Errorf("pipeline completed without producing a result")
	}

	p.cacheStore(ctx, key, result)

	p.metrics.RecordCounter("evaluate", 1, nil)
	p.metrics.RecordLatency("evaluate", time.Since(start), nil)
	p.metrics.RecordHistogram("evaluation_scores", float64(result.Score), map[string]string{"operation": "evaluate"})

	p.logger.Info("evaluation complete",
		zap.String("candidate_id", candidate.ID),
		zap.Int("score", result.Score),
		zap.Int64("tokens_used", result.Usage.Tokens),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// cacheLookup queries the cache for a prior result. Every cache failure
// is logged and treated as a miss; caching is an optimization and its
// absence must never fail an evaluation.
func (p *Pipeline) cacheLookup(ctx context.Context, key string) (domain.EvaluationResult, bool) {
	if !p.config.CacheEnabled {
		return domain.EvaluationResult{}, false
	}

	result, hit, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("cache lookup failed", zap.String("fingerprint", key), zap.Error(err))
		p.metrics.RecordCounter("evaluation_cache_requests_total", 1, map[string]string{"status": "error"})
		return domain.EvaluationResult{}, false
	}
	if !hit {
		p.metrics.RecordCounter("evaluation_cache_requests_total", 1, map[string]string{"status": "miss"})
		return domain.EvaluationResult{}, false
	}

	p.metrics.RecordCounter("evaluation_cache_requests_total", 1, map[string]string{"status": "hit"})
	return *result, true
}

// cacheStore writes a freshly computed result. Write failures are
// logged, never surfaced.
func (p *Pipeline) cacheStore(ctx context.Context, key string, result domain.EvaluationResult) {
	if !p.config.CacheEnabled {
		return
	}
	if err := p.cache.Set(ctx, key, result, p.config.CacheTTL); err != nil {
		p.logger.Warn("cache write failed", zap.String("fingerprint", key), zap.Error(err))
	}
}

// noopMetrics discards all observations. It stands in when no collector
// is wired so the hot path stays free of nil checks.
type noopMetrics struct{}

func (noopMetrics) RecordLatency(string, time.Duration, map[string]string) {}
func (noopMetrics) RecordCounter(string, float64, map[string]string)       {}
func (noopMetrics) RecordGauge(string, float64, map[string]string)         {}
func (noopMetrics) RecordHistogram(string, float64, map[string]string)     {}
