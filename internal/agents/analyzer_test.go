package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-screener/internal/domain"
	"github.com/ahrav/go-screener/internal/ports"
	"github.com/ahrav/go-screener/internal/testutils"
)

func TestAnalyzer_Execute(t *testing.T) {
	mock := testutils.NewMockLLMClient("gpt-4o-mini")
	analyzer, err := NewAnalyzer(mock, DefaultAnalyzerConfig(), nil)
	require.NoError(t, err)

	state := evaluationState("find two numbers summing to target", "use a hash map")

	result, err := analyzer.Execute(context.Background(), state)
	require.NoError(t, err)

	analysis, ok := domain.Get(result, domain.KeyAnalysis)
	require.True(t, ok)
	assert.True(t, analysis.Parsed)
	assert.NotEmpty(t, analysis.Strengths)
	assert.NotEmpty(t, analysis.Weaknesses)
	assert.NotEmpty(t, analysis.Summary)
}

func TestAnalyzer_Execute_SeesEvaluatorScore(t *testing.T) {
	mock := testutils.NewMockLLMClient("gpt-4o-mini")
	analyzer, err := NewAnalyzer(mock, DefaultAnalyzerConfig(), nil)
	require.NoError(t, err)

	state := evaluationState("question", "answer")
	state = domain.With(state, domain.KeyEvaluation, domain.EvaluatorResult{
		Score: 4, Justification: "solid", Parsed: true,
	})

	_, err = analyzer.Execute(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, mock.Prompts, 1)
	assert.Contains(t, mock.Prompts[0], "Evaluator Score: 4/5")
}

func TestAnalyzer_Execute_WithoutScoreOmitsContext(t *testing.T) {
	mock := testutils.NewMockLLMClient("gpt-4o-mini")
	analyzer, err := NewAnalyzer(mock, DefaultAnalyzerConfig(), nil)
	require.NoError(t, err)

	_, err = analyzer.Execute(context.Background(), evaluationState("question", "answer"))
	require.NoError(t, err)

	require.Len(t, mock.Prompts, 1)
	assert.NotContains(t, mock.Prompts[0], "Evaluator Score")
}

func TestAnalyzer_Execute_ParseFailureFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose response", "The answer shows good understanding of hash maps."},
		{"empty arrays", `{"strengths": [], "weaknesses": [], "summary": "x"}`},
		{"missing summary", `{"strengths": ["a"], "weaknesses": ["b"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutils.NewMockLLMClient("gpt-4o-mini")
			mock.AddResponse(testutils.MockResponse{
				Pattern:  "balanced analysis",
				Response: tt.response,
			})

			analyzer, err := NewAnalyzer(mock, DefaultAnalyzerConfig(), nil)
			require.NoError(t, err)

			result, err := analyzer.Execute(context.Background(), evaluationState("q", "a"))
			require.NoError(t, err)

			analysis, ok := domain.Get(result, domain.KeyAnalysis)
			require.True(t, ok)
			assert.False(t, analysis.Parsed)
			assert.Equal(t, []string{"Unable to analyze strengths"}, analysis.Strengths)
			assert.Equal(t, []string{"Unable to analyze weaknesses"}, analysis.Weaknesses)
			assert.NotEmpty(t, analysis.Summary)
		})
	}
}

func TestAnalyzer_Execute_TransportErrorPropagates(t *testing.T) {
	mock := testutils.NewMockLLMClient("gpt-4o-mini")
	mock.Err = ports.NewLLMError("gpt-4o-mini", "Complete", ports.ErrRateLimited)

	analyzer, err := NewAnalyzer(mock, DefaultAnalyzerConfig(), nil)
	require.NoError(t, err)

	_, err = analyzer.Execute(context.Background(), evaluationState("q", "a"))
	require.Error(t, err)
	assert.True(t, ports.IsTransient(err))
}

func TestAnalyzer_Execute_MarkdownWrappedJSON(t *testing.T) {
	mock := testutils.NewMockLLMClient("gpt-4o-mini")
	mock.AddResponse(testutils.MockResponse{
		Pattern: "balanced analysis",
		Response: "Here is my analysis:\n```json\n" +
			`{"strengths": ["clear"], "weaknesses": ["shallow"], "summary": "Decent answer."}` +
			"\n```\nHope this helps!",
	})

	analyzer, err := NewAnalyzer(mock, DefaultAnalyzerConfig(), nil)
	require.NoError(t, err)

	result, err := analyzer.Execute(context.Background(), evaluationState("q", "a"))
	require.NoError(t, err)

	analysis, ok := domain.Get(result, domain.KeyAnalysis)
	require.True(t, ok)
	assert.True(t, analysis.Parsed)
	assert.Equal(t, []string{"clear"}, analysis.Strengths)
}
