package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-screener/infrastructure/cache"
	"github.com/ahrav/go-screener/internal/domain"
	"github.com/ahrav/go-screener/internal/ports"
	"github.com/ahrav/go-screener/internal/testutils"
)

func newTestCoordinator(t *testing.T, mock *testutils.MockLLMClient, config CoordinatorConfig) *Coordinator {
	t.Helper()

	pipeline := newTestPipeline(t, mock, cache.NewMemoryStore(), PipelineConfig{
		CacheEnabled: true,
		CacheTTL:     time.Hour,
	})
	coordinator, err := NewCoordinator(pipeline, nil, config)
	require.NoError(t, err)
	return coordinator
}

func TestCoordinator_Rank_OrdersByScore(t *testing.T) {
	mock := testutils.NewMockLLMClient("gpt-4o-mini")
	// The weaker answer scores 2; its later stages fall back, which is
	// irrelevant to ordering.
	mock.AddResponse(testutils.MockResponse{
		Pattern:  "nested loop",
		Response: `{"score": 2, "justification": "Works but quadratic."}`,
	})

	coordinator := newTestCoordinator(t, mock, CoordinatorConfig{MaxConcurrency: 2})

	candidates := []domain.CandidateAnswer{
		{ID: "c2", Answer: "nested loop, O(n^2)"},
		{ID: "c1", Answer: "hash map, O(1) lookup"},
	}

	ranked, err := coordinator.Rank(context.Background(), "find two numbers summing to target", candidates)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "c1", ranked[0].CandidateID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 4, ranked[0].Result.Score)

	assert.Equal(t, "c2", ranked[1].CandidateID)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, 2, ranked[1].Result.Score)
}

func TestCoordinator_Rank_TiesKeepSubmissionOrder(t *testing.T) {
	mock := testutils.NewMockLLMClient("gpt-4o-mini")
	coordinator := newTestCoordinator(t, mock, CoordinatorConfig{MaxConcurrency: 4})

	candidates := []domain.CandidateAnswer{
		{ID: "first", Answer: "answer one"},
		{ID: "second", Answer: "answer two"},
		{ID: "third", Answer: "answer three"},
	}

	ranked, err := coordinator.Rank(context.Background(), "q", candidates)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	// All score 4 from the default mock responses.
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, want, ranked[i].CandidateID)
		assert.Equal(t, i+1, ranked[i].Rank)
	}
}

func TestCoordinator_Rank_FailedCandidateBecomesSentinel(t *testing.T) {
	mock := testutils.NewMockLLMClient("gpt-4o-mini")
	mock.Err = ports.NewLLMError("gpt-4o-mini", "Complete", ports.ErrAuthenticationFailed)
	mock.FailFor = "nested loop"

	coordinator := newTestCoordinator(t, mock, CoordinatorConfig{MaxConcurrency: 2})

	candidates := []domain.CandidateAnswer{
		{ID: "c1", Answer: "hash map, O(1) lookup"},
		{ID: "c2", Answer: "nested loop, O(n^2)"},
	}

	ranked, err := coordinator.Rank(context.Background(), "find two numbers summing to target", candidates)
	require.NoError(t, err, "one candidate's failure must not abort the batch")
	require.Len(t, ranked, 2)

	assert.Equal(t, "c1", ranked[0].CandidateID)
	assert.False(t, ranked[0].Result.Failed())
	assert.Equal(t, 4, ranked[0].Result.Score)

	assert.Equal(t, "c2", ranked[1].CandidateID)
	assert.True(t, ranked[1].Result.Failed())
	assert.Equal(t, domain.FailedScore, ranked[1].Result.Score)
	assert.Contains(t, ranked[1].Result.Summary, "evaluation failed")
}

func TestCoordinator_Rank_Idempotent(t *testing.T) {
	mock := testutils.NewMockLLMClient("gpt-4o-mini")
	coordinator := newTestCoordinator(t, mock, CoordinatorConfig{MaxConcurrency: 2})

	candidates := []domain.CandidateAnswer{
		{ID: "c1", Answer: "hash map"},
		{ID: "c2", Answer: "sorting first"},
	}

	first, err := coordinator.Rank(context.Background(), "q", candidates)
	require.NoError(t, err)
	second, err := coordinator.Rank(context.Background(), "q", candidates)
	require.NoError(t, err)

	assert.Equal(t, first, second, "cached reruns must produce identical rankings")
}

func TestCoordinator_Rank_DeadlineExpiryYieldsSentinels(t *testing.T) {
	mock := testutils.NewMockLLMClient("gpt-4o-mini")
	coordinator := newTestCoordinator(t, mock, CoordinatorConfig{
		MaxConcurrency: 1,
		Deadline:       time.Nanosecond,
	})

	candidates := []domain.CandidateAnswer{
		{ID: "c1", Answer: "a"},
		{ID: "c2", Answer: "b"},
	}

	ranked, err := coordinator.Rank(context.Background(), "q", candidates)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	for _, entry := range ranked {
		assert.True(t, entry.Result.Failed())
	}
}

func TestCoordinator_Rank_InvalidInput(t *testing.T) {
	mock := testutils.NewMockLLMClient("gpt-4o-mini")
	coordinator := newTestCoordinator(t, mock, CoordinatorConfig{})

	_, err := coordinator.Rank(context.Background(), "q", nil)
	assert.Error(t, err, "empty candidate list")

	_, err = coordinator.Rank(context.Background(), "q", []domain.CandidateAnswer{
		{ID: "dup", Answer: "a"},
		{ID: "dup", Answer: "b"},
	})
	assert.Error(t, err, "duplicate candidate ids")
}

func TestNewCoordinator_Validation(t *testing.T) {
	_, err := NewCoordinator(nil, nil, CoordinatorConfig{})
	assert.Error(t, err)
}
