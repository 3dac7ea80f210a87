package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-screener/internal/ports"
)

func TestErrorClassifier_ClassifyHTTPError(t *testing.T) {
	classifier := &ErrorClassifier{Provider: "openai"}

	tests := []struct {
		name       string
		statusCode int
		wantType   ErrorType
		retryable  bool
	}{
		{"unauthorized", 401, ErrorTypeAuthentication, false},
		{"forbidden", 403, ErrorTypeAuthentication, false},
		{"bad request", 400, ErrorTypeBadRequest, false},
		{"not found", 404, ErrorTypeNotFound, false},
		{"request timeout", 408, ErrorTypeTimeout, true},
		{"rate limited", 429, ErrorTypeRateLimit, true},
		{"internal error", 500, ErrorTypeServerError, true},
		{"bad gateway", 502, ErrorTypeServerError, true},
		{"service unavailable", 503, ErrorTypeServerError, true},
		{"gateway timeout", 504, ErrorTypeServerError, true},
		{"unhandled 4xx", 418, ErrorTypeBadRequest, false},
		{"unhandled 5xx", 599, ErrorTypeServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provErr := classifier.ClassifyHTTPError(tt.statusCode, "boom", errors.New("boom"))
			assert.Equal(t, tt.wantType, provErr.Type)
			assert.Equal(t, tt.statusCode, provErr.StatusCode)
			assert.Equal(t, tt.retryable, provErr.IsRetryable())
		})
	}
}

func TestErrorClassifier_ClassifyContextError(t *testing.T) {
	classifier := &ErrorClassifier{Provider: "anthropic"}

	deadlineErr := classifier.ClassifyContextError(context.DeadlineExceeded)
	assert.Equal(t, ErrorTypeTimeout, deadlineErr.Type)
	assert.True(t, deadlineErr.IsRetryable())

	canceledErr := classifier.ClassifyContextError(context.Canceled)
	assert.Equal(t, ErrorTypeNetwork, canceledErr.Type)
}

func TestProviderError_BridgesToPortsSentinels(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		sentinel error
	}{
		{"rate limit", ErrorTypeRateLimit, ports.ErrRateLimited},
		{"timeout", ErrorTypeTimeout, ports.ErrTimeout},
		{"server error", ErrorTypeServerError, ports.ErrServiceUnavailable},
		{"network", ErrorTypeNetwork, ports.ErrServiceUnavailable},
		{"authentication", ErrorTypeAuthentication, ports.ErrAuthenticationFailed},
		{"bad request", ErrorTypeBadRequest, ports.ErrInvalidRequest},
		{"not found", ErrorTypeNotFound, ports.ErrInvalidRequest},
		{"content policy", ErrorTypeContentPolicy, ports.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provErr := NewProviderError("google", tt.errType, 0, "boom", nil)
			assert.ErrorIs(t, provErr, tt.sentinel)
		})
	}
}

func TestProviderError_BridgesThroughLLMError(t *testing.T) {
	// The pipeline sees errors wrapped by the client, so the sentinel
	// match has to survive an extra layer of wrapping.
	provErr := NewProviderError("openai", ErrorTypeRateLimit, 429, "slow down", nil)
	wrapped := ports.NewLLMError("gpt-4o-mini", "Complete", provErr)

	assert.ErrorIs(t, wrapped, ports.ErrRateLimited)
	assert.True(t, ports.IsTransient(wrapped))
	assert.False(t, ports.IsPermanent(wrapped))
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	provErr := NewProviderError("openai", ErrorTypeNetwork, 0, "network failure", cause)

	require.ErrorIs(t, provErr, cause)
	assert.Contains(t, provErr.Error(), "openai")
	assert.Contains(t, provErr.Error(), "network failure")
}
