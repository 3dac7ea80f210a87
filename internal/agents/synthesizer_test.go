package agents

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-screener/internal/domain"
)

// synthesisReadyState returns a State carrying outputs from all three
// model-backed stages, ready for the merge.
func synthesisReadyState() domain.State {
	state := evaluationState("What is a hash map?", "A key-value structure with O(1) lookups.")
	state = domain.With(state, domain.KeyEvaluation, domain.EvaluatorResult{
		Score:         4,
		Justification: "Correct and concise.",
		Parsed:        true,
	})
	state = domain.With(state, domain.KeyAnalysis, domain.AnalyzerResult{
		Strengths:  []string{"Correct definition", "Mentions time complexity"},
		Weaknesses: []string{"No collision handling discussion"},
		Summary:    "Good answer overall.",
		Parsed:     true,
	})
	state = domain.With(state, domain.KeyImprovement, domain.ImprovementResult{
		Suggestion: "Discuss how collisions are resolved, such as chaining or open addressing.",
		Parsed:     true,
	})
	return state.AddUsage(120, 3)
}

func TestSynthesizer_Execute(t *testing.T) {
	synth := NewSynthesizer(DefaultSynthesizerConfig(), nil)

	result, err := synth.Execute(context.Background(), synthesisReadyState())
	require.NoError(t, err)

	final, ok := domain.Get(result, domain.KeyResult)
	require.True(t, ok)

	assert.Equal(t, 4, final.Score)
	assert.Equal(t, "Strengths: Correct definition; Mentions time complexity. Weaknesses: No collision handling discussion", final.Summary)
	assert.Equal(t, "Discuss how collisions are resolved, such as chaining or open addressing.", final.Improvement)
	assert.Equal(t, int64(120), final.Usage.Tokens)
	assert.Equal(t, int64(3), final.Usage.Calls)
	assert.False(t, final.CreatedAt.IsZero())
}

func TestSynthesizer_Execute_TruncatesLongFields(t *testing.T) {
	synth := NewSynthesizer(DefaultSynthesizerConfig(), nil)

	state := synthesisReadyState()
	state = domain.With(state, domain.KeyAnalysis, domain.AnalyzerResult{
		Strengths:  []string{strings.Repeat("a", 150)},
		Weaknesses: []string{strings.Repeat("b", 150)},
		Summary:    "Long answer.",
		Parsed:     true,
	})
	state = domain.With(state, domain.KeyImprovement, domain.ImprovementResult{
		Suggestion: strings.Repeat("improve ", 60),
		Parsed:     true,
	})

	result, err := synth.Execute(context.Background(), state)
	require.NoError(t, err)

	final, ok := domain.Get(result, domain.KeyResult)
	require.True(t, ok)

	assert.Equal(t, MaxSummaryLength, utf8.RuneCountInString(final.Summary))
	assert.True(t, strings.HasSuffix(final.Summary, "..."))
	assert.Equal(t, MaxImprovementLength, utf8.RuneCountInString(final.Improvement))
	assert.True(t, strings.HasSuffix(final.Improvement, "..."))
}

func TestSynthesizer_Execute_CollapsesNearDuplicates(t *testing.T) {
	synth := NewSynthesizer(DefaultSynthesizerConfig(), nil)

	state := synthesisReadyState()
	state = domain.With(state, domain.KeyAnalysis, domain.AnalyzerResult{
		Strengths: []string{
			"Uses a hash map for O(1) lookups",
			"uses a hash map for O(1) lookups.",
			"Explains the algorithm clearly",
		},
		Weaknesses: []string{"No edge cases"},
		Summary:    "Fine.",
		Parsed:     true,
	})

	result, err := synth.Execute(context.Background(), state)
	require.NoError(t, err)

	final, ok := domain.Get(result, domain.KeyResult)
	require.True(t, ok)

	// The near-identical restatement is dropped; first-seen order holds.
	assert.Equal(t, "Strengths: Uses a hash map for O(1) lookups; Explains the algorithm clearly. Weaknesses: No edge cases", final.Summary)
}

func TestSynthesizer_Execute_FallsBackToAnalyzerSummary(t *testing.T) {
	synth := NewSynthesizer(DefaultSynthesizerConfig(), nil)

	state := synthesisReadyState()
	state = domain.With(state, domain.KeyAnalysis, domain.AnalyzerResult{
		Summary: "Analysis unavailable: the model response could not be parsed.",
		Parsed:  false,
	})

	result, err := synth.Execute(context.Background(), state)
	require.NoError(t, err)

	final, ok := domain.Get(result, domain.KeyResult)
	require.True(t, ok)
	assert.Equal(t, "Analysis unavailable: the model response could not be parsed.", final.Summary)
}

func TestSynthesizer_Execute_MissingPriorResults(t *testing.T) {
	synth := NewSynthesizer(DefaultSynthesizerConfig(), nil)

	tests := []struct {
		name  string
		state domain.State
	}{
		{
			name:  "no results at all",
			state: evaluationState("q", "a"),
		},
		{
			name: "missing improvement",
			state: domain.With(
				domain.With(evaluationState("q", "a"), domain.KeyEvaluation, domain.EvaluatorResult{Score: 3, Parsed: true}),
				domain.KeyAnalysis, domain.AnalyzerResult{Summary: "s", Parsed: true},
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := synth.Execute(context.Background(), tt.state)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidState)
		})
	}
}

func TestSynthesizer_Execute_ClampsOutOfRangeScore(t *testing.T) {
	synth := NewSynthesizer(DefaultSynthesizerConfig(), nil)

	state := synthesisReadyState()
	state = domain.With(state, domain.KeyEvaluation, domain.EvaluatorResult{Score: 11, Parsed: true})

	result, err := synth.Execute(context.Background(), state)
	require.NoError(t, err)

	final, ok := domain.Get(result, domain.KeyResult)
	require.True(t, ok)
	assert.Equal(t, domain.NeutralScore, final.Score)
}

func TestSynthesizer_Execute_CanceledContext(t *testing.T) {
	synth := NewSynthesizer(DefaultSynthesizerConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := synth.Execute(ctx, synthesisReadyState())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthesizer_Validate(t *testing.T) {
	assert.NoError(t, NewSynthesizer(DefaultSynthesizerConfig(), nil).Validate())
	assert.Error(t, NewSynthesizer(SynthesizerConfig{SimilarityThreshold: 1.5}, nil).Validate())
}
