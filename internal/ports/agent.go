// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-screener/internal/domain"
)

// Agent is a single model-backed pipeline stage with one narrow
// responsibility: scoring, analysis, or improvement feedback.
// Agents read prior stages' outputs from the State and return an
// augmented copy, never mutating shared structure, so concurrent
// pipeline executions stay fully independent.
// Agents must be stateless and safe for concurrent use.
type Agent interface {
	// Name returns a unique identifier for this agent.
	// The name is used for logging, debugging, and metrics labels.
	Name() string

	// Execute performs the agent's transformation on the provided State.
	// It returns a new State containing the agent's result; the input
	// State is never modified.
	//
	// A malformed model response is recovered inside Execute by bounded
	// re-asking followed by a safe default, so parse problems never
	// surface as errors. Transport-level failures of the model client
	// (timeout, auth, rate limit exhaustion) are returned as errors
	// because the answer was never actually evaluated.
	//
	// The context parameter allows for cancellation and deadline
	// propagation; agents must respect cancellation and return promptly.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks if the agent is properly configured and ready for
	// execution. It is typically called during pipeline construction.
	// Return nil if validation passes, or an error describing what is
	// invalid.
	Validate() error
}
