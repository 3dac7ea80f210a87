package llm

import (
	"context"
	"sync"
	"time"
)

// MockCoreLLM provides a configurable mock implementation of CoreLLM for
// testing. It allows precise control over response behavior, timing, and
// error conditions to facilitate middleware and client testing.
type MockCoreLLM struct {
	mu sync.Mutex

	// Response configuration.
	Response      string
	Responses     []string // When set, calls consume these in order.
	TokensIn      int
	TokensOut     int
	Error         error
	Model         string
	ResponseDelay time.Duration

	// FailUntilAttempt makes the first N calls fail before succeeding,
	// which exercises retry behavior.
	FailUntilAttempt int

	// Tracking.
	CallCount      int
	LastPrompt     string
	LastOpts       map[string]any
	CallTimestamps []time.Time
}

// NewMockCoreLLM creates a new mock CoreLLM with default successful behavior.
func NewMockCoreLLM() *MockCoreLLM {
	return &MockCoreLLM{
		Response:       "test response",
		TokensIn:       10,
		TokensOut:      20,
		Model:          "test-model",
		CallTimestamps: make([]time.Time, 0),
	}
}

// DoRequest implements the CoreLLM interface with configurable behavior.
func (m *MockCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastPrompt = prompt
	m.LastOpts = opts
	m.CallTimestamps = append(m.CallTimestamps, time.Now())

	if m.ResponseDelay > 0 {
		select {
		case <-time.After(m.ResponseDelay):
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		}
	}

	if m.FailUntilAttempt > 0 {
		if m.CallCount <= m.FailUntilAttempt {
			if m.Error != nil {
				return "", 0, 0, m.Error
			}
			return "", 0, 0, &mockError{message: "simulated failure"}
		}
	} else if m.Error != nil {
		return "", 0, 0, m.Error
	}

	if len(m.Responses) > 0 {
		idx := m.CallCount - 1
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}
		return m.Responses[idx], m.TokensIn, m.TokensOut, nil
	}

	return m.Response, m.TokensIn, m.TokensOut, nil
}

// GetModel returns the configured model name.
func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Model
}

// SetModel updates the model name.
func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Model = model
}

// Reset clears all tracking data while preserving configuration.
func (m *MockCoreLLM) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.LastPrompt = ""
	m.LastOpts = nil
	m.CallTimestamps = make([]time.Time, 0)
}

// GetCallCount returns the number of times DoRequest was called.
func (m *MockCoreLLM) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// mockError provides a simple error type for testing.
type mockError struct {
	message string
}

func (e *mockError) Error() string { return e.message }
