package domain

import "errors"

// Common domain errors that can occur during evaluation operations.
var (
	// ErrInvalidState indicates that a State operation received invalid input.
	ErrInvalidState = errors.New("invalid state")

	// ErrScoreOutOfRange indicates a score outside [MinScore, MaxScore].
	ErrScoreOutOfRange = errors.New("score out of range")
)
