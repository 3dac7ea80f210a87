package domain

import (
	"fmt"
	"time"
)

// Score bounds for a successfully parsed evaluation.
const (
	// MinScore is the lowest score the evaluator may assign.
	MinScore = 1

	// MaxScore is the highest score the evaluator may assign.
	MaxScore = 5

	// NeutralScore is substituted when the evaluator's response cannot be
	// parsed after retries. It sits at the midpoint of the scale so an
	// unparseable response neither sinks nor inflates a candidate.
	NeutralScore = 3

	// FailedScore marks a candidate whose evaluation never completed.
	// It is deliberately outside the valid [MinScore, MaxScore] range so
	// callers can distinguish infrastructure failure from a poor answer.
	FailedScore = 0
)

// CandidateAnswer pairs a free-text interview answer with an opaque
// candidate identifier. The identifier must be unique within a single
// ranking request.
type CandidateAnswer struct {
	// ID uniquely identifies the candidate within one ranking request.
	ID string `json:"candidate_id"`

	// Answer contains the candidate's free-text response.
	Answer string `json:"answer"`
}

// EvaluatorResult holds the scoring agent's output.
// Raw preserves the unmodified model text for debugging; Parsed reports
// whether Score and Justification came from the model or from the
// neutral fallback.
type EvaluatorResult struct {
	// Score is an integer in [MinScore, MaxScore].
	Score int `json:"score"`

	// Justification briefly explains the score.
	Justification string `json:"justification"`

	// Raw is the unmodified model response text.
	Raw string `json:"raw,omitempty"`

	// Parsed reports whether the model response parsed successfully.
	Parsed bool `json:"parsed"`
}

// AnalyzerResult holds the analysis agent's output: what the candidate
// did well and where the answer falls short.
type AnalyzerResult struct {
	// Strengths lists specific things the answer did well, in the order
	// the model produced them.
	Strengths []string `json:"strengths"`

	// Weaknesses lists gaps or errors in the answer, in model order.
	Weaknesses []string `json:"weaknesses"`

	// Summary is a one-line characterization of the answer.
	Summary string `json:"summary"`

	// Raw is the unmodified model response text.
	Raw string `json:"raw,omitempty"`

	// Parsed reports whether the model response parsed successfully.
	Parsed bool `json:"parsed"`
}

// ImprovementResult holds the feedback agent's single actionable
// improvement suggestion.
type ImprovementResult struct {
	// Suggestion is one specific, actionable piece of feedback.
	Suggestion string `json:"suggestion"`

	// Raw is the unmodified model response text.
	Raw string `json:"raw,omitempty"`

	// Parsed reports whether the model response parsed successfully.
	Parsed bool `json:"parsed"`
}

// EvaluationResult is the final synthesized outcome for one
// (question, answer) pair. It is immutable once created and is the unit
// stored in the cache.
type EvaluationResult struct {
	// Score is the evaluator's score, or FailedScore for a sentinel.
	Score int `json:"score"`

	// Summary condenses the analyzer's strengths and weaknesses.
	Summary string `json:"summary"`

	// Improvement is the feedback agent's suggestion.
	Improvement string `json:"improvement"`

	// Usage reports the tokens and model calls this evaluation consumed.
	// Zero for cache hits and sentinels.
	Usage Usage `json:"usage,omitempty"`

	// CreatedAt records when the result was computed.
	CreatedAt time.Time `json:"created_at"`
}

// Failed reports whether this result is an "evaluation failed" sentinel
// rather than a genuine evaluation.
func (r EvaluationResult) Failed() bool { return r.Score == FailedScore }

// NewFailedResult builds the sentinel result substituted when a
// candidate's pipeline fails outright. The cause is folded into the
// summary so ranking output remains self-describing.
func NewFailedResult(cause error) EvaluationResult {
	summary := "evaluation failed"
	if cause != nil {
		summary = fmt.Sprintf("evaluation failed: %v", cause)
	}
	return EvaluationResult{
		Score:       FailedScore,
		Summary:     summary,
		Improvement: "unable to provide feedback",
		CreatedAt:   time.Now().UTC(),
	}
}

// RankedCandidate is one entry in a ranking response. Rank is 1-based and
// contiguous; candidates with equal scores keep their original submission
// order and still receive distinct ranks.
type RankedCandidate struct {
	// CandidateID identifies the candidate this entry belongs to.
	CandidateID string `json:"candidate_id"`

	// Result is the candidate's evaluation, possibly a failure sentinel.
	Result EvaluationResult `json:"result"`

	// Rank is the candidate's 1-based position after sorting by score.
	Rank int `json:"rank"`
}

// ValidScore reports whether score is an integer within the evaluator's
// scale.
func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}
