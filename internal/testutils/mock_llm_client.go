// Package testutils provides shared test doubles for the screening engine.
package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/ahrav/go-screener/internal/ports"
)

// Canned agent responses matching each stage's expected JSON schema.
// Tests that just need a working pipeline can use the defaults; tests
// exercising parse failures or transport errors override per pattern.
const (
	DefaultEvaluatorResponse   = `{"score": 4, "justification": "Correct approach with a clear explanation and minor gaps in edge-case coverage."}`
	DefaultAnalyzerResponse    = `{"strengths": ["Correct use of a hash map for O(1) lookups", "Clear explanation of the approach"], "weaknesses": ["Does not discuss space complexity", "No mention of edge cases"], "summary": "Solid answer with correct approach but missing complexity discussion."}`
	DefaultImprovementResponse = `{"suggestion": "Discuss the space complexity of the hash map alongside its time benefits to show complete analysis."}`
)

// MockLLMClient implements ports.LLMClient with deterministic responses
// keyed by prompt substring. It is safe for concurrent use so ranking
// tests can fan out pipelines against a single instance.
type MockLLMClient struct {
	mu sync.Mutex

	model     string
	responses []MockResponse

	// Err, when set, is returned from every call. Simulates transport
	// failure of the provider.
	Err error

	// FailFor limits Err to prompts containing this substring, so a
	// single candidate can fail while others succeed.
	FailFor string

	// Queue, when non-empty, overrides pattern matching: each call pops
	// and returns the next entry. Lets tests script per-attempt
	// responses, such as garbage followed by valid JSON.
	Queue []string

	// CallCount tracks the total number of completion calls.
	CallCount int

	// Prompts records every prompt received, in call order.
	Prompts []string

	// Options records the option map of every call, in call order.
	Options []map[string]any
}

// MockResponse maps a prompt substring to a canned response.
type MockResponse struct {
	// Pattern is matched against prompts with substring matching.
	Pattern string
	// Response is the text returned for matching prompts.
	Response string
	// TokensUsed is the reported output token count for this response.
	TokensUsed int
}

// NewMockLLMClient creates a mock client preloaded with well-formed
// responses for the evaluator, analyzer, and improvement prompts.
func NewMockLLMClient(model string) *MockLLMClient {
	client := &MockLLMClient{model: model}

	client.AddResponse(MockResponse{
		Pattern:    "score the candidate's answer",
		Response:   DefaultEvaluatorResponse,
		TokensUsed: 30,
	})
	client.AddResponse(MockResponse{
		Pattern:    "balanced analysis",
		Response:   DefaultAnalyzerResponse,
		TokensUsed: 60,
	})
	client.AddResponse(MockResponse{
		Pattern:    "ONE specific, actionable improvement",
		Response:   DefaultImprovementResponse,
		TokensUsed: 35,
	})

	return client
}

// AddResponse registers a response pattern. Later additions take
// precedence over earlier ones, so tests can override the defaults.
func (m *MockLLMClient) AddResponse(response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append([]MockResponse{response}, m.responses...)
}

// Complete returns the first registered response whose pattern appears in
// the prompt, the system option, or both combined.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := m.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage behaves like Complete and reports token usage.
func (m *MockLLMClient) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.Prompts = append(m.Prompts, prompt)
	m.Options = append(m.Options, options)

	if m.Err != nil && (m.FailFor == "" || strings.Contains(prompt, m.FailFor)) {
		return "", 0, 0, m.Err
	}

	if len(m.Queue) > 0 {
		next := m.Queue[0]
		m.Queue = m.Queue[1:]
		return next, len(prompt) / 4, len(next) / 4, nil
	}

	haystack := prompt
	if system, ok := options["system"].(string); ok {
		haystack = system + "\n" + prompt
	}

	for _, r := range m.responses {
		if strings.Contains(haystack, r.Pattern) {
			return r.Response, len(prompt) / 4, r.TokensUsed, nil
		}
	}

	// No pattern matched; an empty JSON object exercises validation paths.
	return "{}", len(prompt) / 4, 2, nil
}

// EstimateTokens approximates tokens as one per four characters.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	return len(text) / 4, nil
}

// GetModel returns the mock model identifier.
func (m *MockLLMClient) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// SetModel updates the mock model identifier.
func (m *MockLLMClient) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}

// Reset clears call tracking while preserving registered responses.
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.Prompts = nil
	m.Options = nil
	m.Err = nil
	m.FailFor = ""
}

var _ ports.LLMClient = (*MockLLMClient)(nil)
