package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ahrav/go-screener/internal/domain"
)

// DefaultMaxConcurrency bounds the ranking fan-out when the caller does
// not configure one. It keeps a batch from overwhelming the model
// provider's rate limits.
const DefaultMaxConcurrency = 5

// CoordinatorConfig tunes the ranking fan-out.
type CoordinatorConfig struct {
	// MaxConcurrency caps how many candidate pipelines run at once.
	// Zero or negative falls back to DefaultMaxConcurrency.
	MaxConcurrency int64

	// Deadline bounds the whole ranking request. Candidates still
	// incomplete when it expires receive the failure sentinel. Zero
	// means no overall deadline beyond the caller's context.
	Deadline time.Duration
}

// Coordinator ranks many candidates against one question by fanning
// their pipeline executions out concurrently and sorting the collected
// results. One candidate's infrastructure failure never aborts the
// batch; it becomes a sentinel entry with the failing score.
type Coordinator struct {
	pipeline *Pipeline
	logger   *zap.Logger
	config   CoordinatorConfig
}

// NewCoordinator creates a ranking coordinator over an existing
// Pipeline. logger may be nil.
func NewCoordinator(pipeline *Pipeline, logger *zap.Logger, config CoordinatorConfig) (*Coordinator, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("coordinator requires a pipeline")
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultMaxConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Coordinator{
		pipeline: pipeline,
		logger:   logger.Named("coordinator"),
		config:   config,
	}, nil
}

// Rank evaluates every candidate concurrently and returns them sorted
// by score descending with contiguous 1-based ranks. Candidates with
// equal scores keep their original submission order, so identical input
// always produces identical output regardless of completion order.
//
// Rank errors only on invalid input. Per-candidate pipeline failures,
// including deadline expiry, are embedded as sentinel entries so the
// response stays total.
func (c *Coordinator) Rank(
	ctx context.Context,
	question string,
	candidates []domain.CandidateAnswer,
) ([]domain.RankedCandidate, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("ranking requires at least one candidate")
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		if _, dup := seen[candidate.ID]; dup {
			return nil, fmt.Errorf("duplicate candidate id %q in ranking request", candidate.ID)
		}
		seen[candidate.ID] = struct{}{}
	}

	if c.config.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Deadline)
		defer cancel()
	}

	start := time.Now()
	sem := semaphore.NewWeighted(c.config.MaxConcurrency)
	results := make([]domain.EvaluationResult, len(candidates))

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate domain.CandidateAnswer) {
			defer wg.Done()

			// Acquire fails only when the context is done, which is
			// exactly the deadline-expiry case the sentinel covers.
			if err := sem.Acquire(ctx, 1); err != nil {
				c.logger.Error("candidate evaluation never started",
					zap.String("candidate_id", candidate.ID),
					zap.Error(err),
				)
				results[i] = domain.NewFailedResult(err)
				return
			}
			defer sem.Release(1)

			result, err := c.pipeline.EvaluateCandidate(ctx, question, candidate)
			if err != nil {
				c.logger.Error("candidate evaluation failed",
					zap.String("candidate_id", candidate.ID),
					zap.Error(err),
				)
				results[i] = domain.NewFailedResult(err)
				return
			}
			results[i] = result
		}(i, candidate)
	}
	wg.Wait()

	ranked := make([]domain.RankedCandidate, len(candidates))
	for i, candidate := range candidates {
		ranked[i] = domain.RankedCandidate{
			CandidateID: candidate.ID,
			Result:      results[i],
		}
	}

	// Stable sort keeps submission order on ties.
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Result.Score > ranked[b].Result.Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	failed := 0
	for _, entry := range ranked {
		if entry.Result.Failed() {
			failed++
		}
	}
	c.logger.Info("ranking complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)),
	)

	return ranked, nil
}
