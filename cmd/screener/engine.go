package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ahrav/go-screener/infrastructure/cache"
	"github.com/ahrav/go-screener/infrastructure/llm"
	"github.com/ahrav/go-screener/infrastructure/metrics"
	"github.com/ahrav/go-screener/internal/application"
	"github.com/ahrav/go-screener/internal/ports"
)

// engine bundles the wired pipeline and coordinator with the resources
// that need closing on exit.
type engine struct {
	pipeline    *application.Pipeline
	coordinator *application.Coordinator
	store       ports.CacheStore
	logger      *zap.Logger
}

// newEngine loads configuration and assembles the full stack: LLM
// client with its middleware chain, cache store, agent stages,
// pipeline, and ranking coordinator.
func newEngine(configPath string, verbose bool) (*engine, error) {
	config := application.DefaultConfig()
	if configPath != "" {
		loaded, err := application.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	config.ResolveAPIKey()
	if config.LLM.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %s", config.LLM.Provider)
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	collector := metrics.NewPrometheusMetrics(nil)

	llmClient, err := llm.NewClient(config.LLM.Provider, llm.ClientConfig{
		APIKey:  config.LLM.APIKey,
		Model:   config.LLM.Model,
		BaseURL: config.LLM.BaseURL,
		// Interview answers are prose, so word counts estimate tokens
		// more closely than the character heuristic.
		TokenEstimator: &llm.WordTokenEstimator{},
		Middleware: []llm.Middleware{
			llm.MetricsMiddleware(collector),
			llm.TracingMiddleware("screener"),
			llm.RetryMiddleware(2, 500*time.Millisecond, 8*time.Second),
			llm.RateLimitMiddleware(10, 20),
			llm.TimeoutMiddleware(config.LLM.CallTimeout()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}

	store, err := newCacheStore(config.Cache, logger)
	if err != nil {
		return nil, err
	}

	stages, err := application.DefaultStages(llmClient, config.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("build pipeline stages: %w", err)
	}

	pipeline, err := application.NewPipeline(stages, store, collector, logger, config.PipelineConfig())
	if err != nil {
		return nil, err
	}

	coordinator, err := application.NewCoordinator(pipeline, logger, config.CoordinatorConfig())
	if err != nil {
		return nil, err
	}

	return &engine{
		pipeline:    pipeline,
		coordinator: coordinator,
		store:       store,
		logger:      logger,
	}, nil
}

// Close flushes the logger and releases the cache connection.
func (e *engine) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Warn("closing cache store", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}

// newCacheStore selects Redis when an address is configured, otherwise
// the in-process memory store. A Redis connection failure falls back to
// memory rather than aborting: caching is an optimization.
func newCacheStore(config application.CacheConfig, logger *zap.Logger) (ports.CacheStore, error) {
	if !config.Enabled || config.RedisAddr == "" {
		return cache.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})
	if err != nil {
		logger.Warn("redis unavailable, falling back to in-memory cache",
			zap.String("addr", config.RedisAddr),
			zap.Error(err),
		)
		return cache.NewMemoryStore(), nil
	}
	return store, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return config.Build()
}
