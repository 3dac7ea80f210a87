package llm

import (
	"context"
	"time"
)

// timeoutLLM enforces a per-request deadline on the wrapped provider.
// Evaluation pipelines run many sequential calls, so a single hung
// request must not stall the whole run.
type timeoutLLM struct {
	next    CoreLLM
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that enforces request timeouts.
// Timeouts outside the supported range are clamped to sane bounds.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	timeout = ValidateTimeout(timeout)
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return func(next CoreLLM) CoreLLM {
		return &timeoutLLM{
			next:    next,
			timeout: timeout,
		}
	}
}

// DoRequest executes the request with a timeout context.
// If the request doesn't complete within the timeout duration,
// it returns a context deadline exceeded error.
func (t *timeoutLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.DoRequest(ctx, prompt, opts)
}

// GetModel returns the model name from the wrapped implementation.
func (t *timeoutLLM) GetModel() string { return t.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (t *timeoutLLM) SetModel(m string) { t.next.SetModel(m) }
