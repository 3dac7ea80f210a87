package agents

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/ahrav/go-screener/internal/domain"
	"github.com/ahrav/go-screener/internal/ports"
)

var _ ports.Agent = (*Synthesizer)(nil)

// SynthesizerName identifies the merge stage in logs and metrics.
const SynthesizerName = "synthesizer"

const (
	// MaxSummaryLength caps the synthesized summary.
	MaxSummaryLength = 200

	// MaxImprovementLength caps the improvement suggestion.
	MaxImprovementLength = 300

	// DefaultSimilarityThreshold is the normalized Levenshtein similarity
	// above which two analysis points are considered duplicates. Models
	// frequently restate the same strength with slightly different
	// wording; collapsing near-duplicates keeps the summary useful
	// within its length cap.
	DefaultSimilarityThreshold = 0.85
)

// SynthesizerConfig tunes how agent outputs are condensed.
type SynthesizerConfig struct {
	// SimilarityThreshold controls near-duplicate collapsing of
	// strengths and weaknesses. Values at or above 1.0 disable
	// collapsing entirely.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold" validate:"min=0.0,max=1.0"`
}

// DefaultSynthesizerConfig returns a SynthesizerConfig with sensible
// defaults.
func DefaultSynthesizerConfig() SynthesizerConfig {
	return SynthesizerConfig{SimilarityThreshold: DefaultSimilarityThreshold}
}

// Synthesizer merges the three model-backed stages' outputs into the
// final EvaluationResult: score from the Evaluator, summary condensed
// from the Analyzer's strengths and weaknesses, improvement from the
// feedback agent. It makes no model calls of its own.
type Synthesizer struct {
	config SynthesizerConfig
	logger *zap.Logger
}

// NewSynthesizer creates the merge stage.
// A nil logger disables agent logging.
func NewSynthesizer(config SynthesizerConfig, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		config: config,
		logger: ensureLogger(logger).Named(SynthesizerName),
	}
}

// Name returns the unique identifier for this agent.
func (s *Synthesizer) Name() string { return SynthesizerName }

// Execute merges the evaluator, analyzer, and improvement results already
// present in the State into one EvaluationResult stored under KeyResult.
// All three prior results must be present; a missing one indicates a
// pipeline wiring bug, not a model failure.
func (s *Synthesizer) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}

	evaluation, ok := domain.Get(state, domain.KeyEvaluation)
	if !ok {
		return state, fmt.Errorf("agent %s: %w: evaluator result missing from state", SynthesizerName, domain.ErrInvalidState)
	}
	analysis, ok := domain.Get(state, domain.KeyAnalysis)
	if !ok {
		return state, fmt.Errorf("agent %s: %w: analyzer result missing from state", SynthesizerName, domain.ErrInvalidState)
	}
	improvement, ok := domain.Get(state, domain.KeyImprovement)
	if !ok {
		return state, fmt.Errorf("agent %s: %w: improvement result missing from state", SynthesizerName, domain.ErrInvalidState)
	}

	score := evaluation.Score
	if !domain.ValidScore(score) {
		// Guard against a stage that slipped an out-of-range value past
		// parsing; the neutral midpoint keeps the invariant intact.
		s.logger.Warn("clamping out-of-range score",
			zap.Int("score", score),
			zap.Error(domain.ErrScoreOutOfRange),
		)
		score = domain.NeutralScore
	}

	result := domain.EvaluationResult{
		Score:       score,
		Summary:     truncate(s.buildSummary(analysis), MaxSummaryLength),
		Improvement: truncate(improvement.Suggestion, MaxImprovementLength),
		Usage:       state.GetUsage(),
		CreatedAt:   time.Now().UTC(),
	}

	s.logger.Info("synthesis complete",
		zap.Int("score", result.Score),
		zap.Int("summary_length", utf8.RuneCountInString(result.Summary)),
	)

	return domain.With(state, domain.KeyResult, result), nil
}

// Validate checks that the agent is ready for execution.
func (s *Synthesizer) Validate() error {
	if s.config.SimilarityThreshold < 0 || s.config.SimilarityThreshold > 1 {
		return fmt.Errorf("agent %s: similarity threshold %.2f outside [0, 1]", SynthesizerName, s.config.SimilarityThreshold)
	}
	return nil
}

// buildSummary condenses the analyzer's strengths and weaknesses into one
// string. When the analyzer produced neither, its one-line summary is
// used as-is.
func (s *Synthesizer) buildSummary(analysis domain.AnalyzerResult) string {
	strengths := s.collapseNearDuplicates(analysis.Strengths)
	weaknesses := s.collapseNearDuplicates(analysis.Weaknesses)

	var parts []string
	if len(strengths) > 0 {
		parts = append(parts, "Strengths: "+strings.Join(strengths, "; "))
	}
	if len(weaknesses) > 0 {
		parts = append(parts, "Weaknesses: "+strings.Join(weaknesses, "; "))
	}

	if len(parts) == 0 {
		return analysis.Summary
	}
	return strings.Join(parts, ". ")
}

// collapseNearDuplicates drops entries whose normalized Levenshtein
// similarity to an earlier entry meets the configured threshold,
// preserving first-seen order.
func (s *Synthesizer) collapseNearDuplicates(items []string) []string {
	if len(items) <= 1 || s.config.SimilarityThreshold >= 1.0 {
		return items
	}

	kept := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		duplicate := false
		for _, existing := range kept {
			if similarity(existing, item) >= s.config.SimilarityThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, item)
		}
	}
	return kept
}

// similarity computes a normalized Levenshtein similarity in [0, 1],
// where 1 means identical. Comparison is case-insensitive and operates on
// runes for Unicode correctness.
func similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(a, b)

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - float64(distance)/float64(maxLen)
}
