package ports

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestLLMError tests the functionality of the LLMError error type.
// It covers error creation, message formatting, and retryable logic.
func TestLLMError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := NewLLMError("gpt-4", "Complete", ErrInvalidResponse)

		assert.Equal(t, "LLM error: model=gpt-4, operation=Complete, err=invalid response", err.Error())
		assert.Equal(t, "gpt-4", err.Model)
		assert.Equal(t, "Complete", err.Operation)
		assert.True(t, errors.Is(err, ErrInvalidResponse))
	})

	t.Run("with tokens used", func(t *testing.T) {
		err := &LLMError{
			Model:      "claude-3",
			Operation:  "Complete",
			Err:        ErrServiceUnavailable,
			TokensUsed: 8192,
		}

		assert.Contains(t, err.Error(), "tokens_used=8192")
	})

	t.Run("with retry after", func(t *testing.T) {
		retryAfter := 30 * time.Second
		err := &LLMError{
			Model:      "gpt-3.5",
			Operation:  "Complete",
			Err:        ErrRateLimited,
			RetryAfter: &retryAfter,
		}

		assert.Contains(t, err.Error(), "retry_after=30s")
	})

	t.Run("retryable errors", func(t *testing.T) {
		retryableErrors := []error{
			ErrRateLimited,
			ErrServiceUnavailable,
			ErrTimeout,
		}

		for _, baseErr := range retryableErrors {
			err := NewLLMError("test-model", "Test", baseErr)
			assert.True(t, err.IsRetryable(), "%v should be retryable", baseErr)
		}

		nonRetryableErrors := []error{
			ErrInvalidResponse,
			ErrAuthenticationFailed,
			ErrInvalidRequest,
		}

		for _, baseErr := range nonRetryableErrors {
			err := NewLLMError("test-model", "Test", baseErr)
			assert.False(t, err.IsRetryable(), "%v should not be retryable", baseErr)
		}
	})
}

// TestIsTransientAndIsPermanent verifies the error classification used by
// the pipeline to decide between stage retry and immediate escalation.
func TestIsTransientAndIsPermanent(t *testing.T) {
	tests := []struct {
		err       error
		transient bool
		permanent bool
	}{
		{nil, false, false},
		{ErrTimeout, true, false},
		{ErrRateLimited, true, false},
		{ErrServiceUnavailable, true, false},
		{ErrAuthenticationFailed, false, true},
		{ErrInvalidRequest, false, true},
		{ErrInvalidResponse, false, false},
		{NewLLMError("m", "Complete", ErrTimeout), true, false},
		{NewLLMError("m", "Complete", ErrAuthenticationFailed), false, true},
		{fmt.Errorf("wrapped: %w", ErrRateLimited), true, false},
		{fmt.Errorf("wrapped: %w", ErrInvalidRequest), false, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.transient, IsTransient(tt.err), "IsTransient(%v)", tt.err)
		assert.Equal(t, tt.permanent, IsPermanent(tt.err), "IsPermanent(%v)", tt.err)
	}
}

// TestParseError verifies the message format and unwrapping of ParseError.
func TestParseError(t *testing.T) {
	base := errors.New("no valid JSON found")
	err := NewParseError("evaluator", 2, base)

	assert.Equal(t, "parse error: agent=evaluator, attempts=2, err=no valid JSON found", err.Error())
	assert.Equal(t, "evaluator", err.Agent)
	assert.Equal(t, 2, err.Attempts)
	assert.True(t, errors.Is(err, base))

	// A parse failure is neither transient nor permanent upstream trouble.
	assert.False(t, IsTransient(err))
	assert.False(t, IsPermanent(err))
}

// TestCacheError tests the functionality of the CacheError error type.
// It verifies that the error message is formatted correctly and contains the expected context.
func TestCacheError(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		operation string
		err       error
		wantMsg   string
	}{
		{
			name:      "cache miss",
			key:       "test-key",
			operation: "Get",
			err:       errors.New("key not found"),
			wantMsg:   "cache error: operation=Get, key=test-key, err=key not found",
		},
		{
			name:      "cache corruption",
			key:       "eval:abc123",
			operation: "Get",
			err:       ErrCacheCorrupted,
			wantMsg:   "cache error: operation=Get, key=eval:abc123, err=cache corrupted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCacheError(tt.key, tt.operation, tt.err)

			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, tt.key, err.Key)
			assert.Equal(t, tt.operation, err.Operation)
			assert.True(t, errors.Is(err, tt.err))
		})
	}
}

// TestConfigError tests the functionality of the ConfigError error type.
// It verifies that the error message is formatted correctly and contains the relevant configuration key.
func TestConfigError(t *testing.T) {
	err := NewConfigError("redis.addr", ErrConfigNotFound)

	assert.Equal(t, "config error: key=redis.addr, err=configuration not found", err.Error())
	assert.Equal(t, "redis.addr", err.ConfigKey)
	assert.True(t, errors.Is(err, ErrConfigNotFound))
}

// TestCommonInfrastructureErrors tests that the common infrastructure errors are defined.
// It checks that each error has the expected error message.
func TestCommonInfrastructureErrors(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{ErrRateLimited, "rate limited"},
		{ErrServiceUnavailable, "service unavailable"},
		{ErrTimeout, "operation timed out"},
		{ErrInvalidResponse, "invalid response"},
		{ErrAuthenticationFailed, "authentication failed"},
		{ErrInvalidRequest, "invalid request"},
		{ErrCacheCorrupted, "cache corrupted"},
		{ErrConfigNotFound, "configuration not found"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

// TestErrorUnwrapping tests that all custom error types in the package support unwrapping.
// It ensures that the underlying error can be extracted correctly using errors.Is and Unwrap.
func TestErrorUnwrapping(t *testing.T) {
	baseErr := errors.New("underlying error")

	errorList := []interface {
		error
		Unwrap() error
	}{
		NewLLMError("model", "op", baseErr),
		NewCacheError("key", "op", baseErr),
		NewParseError("agent", 1, baseErr),
		NewConfigError("key", baseErr),
	}

	for _, err := range errorList {
		unwrapped := err.Unwrap()
		assert.Equal(t, baseErr, unwrapped, "%T should unwrap to base error", err)
		assert.True(t, errors.Is(err, baseErr), "%T should match base error with Is", err)
	}
}
