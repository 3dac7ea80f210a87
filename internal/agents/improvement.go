package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ahrav/go-screener/internal/domain"
	"github.com/ahrav/go-screener/internal/ports"
)

var _ ports.Agent = (*Improvement)(nil)

// ImprovementName identifies the feedback stage in logs and metrics.
const ImprovementName = "improvement"

// fallbackSuggestion is substituted when the model's feedback cannot be
// parsed after retries.
const fallbackSuggestion = "Review the question requirements and ensure your answer addresses all key points with specific examples."

// improvementSystemPrompt asks for exactly one actionable suggestion.
const improvementSystemPrompt = `You are an expert technical interviewer providing constructive feedback.

Your task is to provide ONE specific, actionable improvement suggestion.

Guidelines:
- Be **specific** and **actionable** (not generic like "study more")
- Focus on the most impactful improvement
- Keep it concise (max 300 characters)
- Make it constructive and encouraging
- Suggest concrete next steps or concepts to learn

Examples of GOOD suggestions:
- "Consider analyzing space complexity alongside time complexity - your O(n) time solution also uses O(n) space for the hash map"
- "Mention edge cases like empty arrays or negative numbers to show comprehensive thinking"
- "Study the difference between BFS and DFS - your solution would benefit from BFS for shortest path"

Examples of BAD suggestions:
- "Study algorithms more" (too generic)
- "Your answer is wrong" (not constructive)
- "Perfect, no improvements needed" (not helpful)

Respond ONLY with valid JSON in this exact format:
{
    "suggestion": "<one specific improvement suggestion>"
}`

// ImprovementConfig defines the model parameters for the feedback stage.
type ImprovementConfig struct {
	// Temperature controls randomness in the suggestion.
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0.0,max=2.0"`

	// MaxTokens limits the length of the feedback response.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=50,max=8192"`
}

// DefaultImprovementConfig returns an ImprovementConfig with sensible
// defaults.
func DefaultImprovementConfig() ImprovementConfig {
	return ImprovementConfig{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// improvementResponse is the JSON structure the model is asked to produce.
type improvementResponse struct {
	Suggestion string `json:"suggestion" validate:"required"`
}

// Improvement generates one specific, actionable improvement suggestion
// for the candidate. It runs last of the model-backed stages and feeds on
// both the evaluator's score and the analyzer's identified weaknesses.
type Improvement struct {
	config    ImprovementConfig
	llmClient ports.LLMClient
	validator *validator.Validate
	logger    *zap.Logger
}

// NewImprovement creates a feedback agent.
// A nil logger disables agent logging.
func NewImprovement(llmClient ports.LLMClient, config ImprovementConfig, logger *zap.Logger) (*Improvement, error) {
	if llmClient == nil {
		return nil, fmt.Errorf("agent %s: LLM client cannot be nil", ImprovementName)
	}

	v := validator.New()
	if err := v.Struct(config); err != nil {
		return nil, fmt.Errorf("agent %s: configuration validation failed: %w", ImprovementName, err)
	}

	return &Improvement{
		config:    config,
		llmClient: llmClient,
		validator: v,
		logger:    ensureLogger(logger).Named(ImprovementName),
	}, nil
}

// Name returns the unique identifier for this agent.
func (i *Improvement) Name() string { return ImprovementName }

// Execute generates an improvement suggestion and stores an
// ImprovementResult under KeyImprovement. Prior stages' score and
// weaknesses are folded into the prompt when present.
func (i *Improvement) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	answer, ok := domain.Get(state, domain.KeyAnswer)
	if !ok || answer == "" {
		return state, fmt.Errorf("agent %s: %w: candidate answer missing from state", ImprovementName, domain.ErrInvalidState)
	}
	question, _ := domain.Get(state, domain.KeyQuestion)

	var scoreContext, weaknessContext string
	if evaluation, ok := domain.Get(state, domain.KeyEvaluation); ok {
		scoreContext = fmt.Sprintf("Evaluator Score: %d/%d", evaluation.Score, domain.MaxScore)
	}
	if analysis, ok := domain.Get(state, domain.KeyAnalysis); ok && len(analysis.Weaknesses) > 0 {
		weaknessContext = "Identified Weaknesses: " + strings.Join(analysis.Weaknesses, "; ")
	}

	prompt := buildUserContent(question, answer, scoreContext, weaknessContext)
	options := requestOptions(improvementSystemPrompt, i.config.Temperature, i.config.MaxTokens, i.llmClient.GetModel())

	var parsed improvementResponse
	last, tokens, calls, ok, err := completeWithParseRetry(
		ctx, i.llmClient, ImprovementName, prompt, options, i.logger,
		func(raw string) error {
			jsonStr := extractJSON(raw)
			if jsonStr == "" {
				return fmt.Errorf("%w: no JSON object in response", ports.ErrInvalidResponse)
			}
			var resp improvementResponse
			if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
				return fmt.Errorf("malformed JSON: %w", err)
			}
			if err := i.validator.Struct(resp); err != nil {
				return fmt.Errorf("response failed validation: %w", err)
			}
			parsed = resp
			return nil
		},
	)
	if err != nil {
		return state, err
	}

	result := domain.ImprovementResult{
		Suggestion: parsed.Suggestion,
		Raw:        last.raw,
		Parsed:     ok,
	}
	if !ok {
		result.Suggestion = fallbackSuggestion
	}

	i.logger.Info("improvement suggestion generated", zap.Bool("parsed", result.Parsed))

	state = domain.With(state, domain.KeyImprovement, result)
	return state.AddUsage(tokens, calls), nil
}

// Validate checks that the agent is ready for execution.
func (i *Improvement) Validate() error {
	if i.llmClient == nil {
		return fmt.Errorf("agent %s: LLM client is not configured", ImprovementName)
	}
	if err := i.validator.Struct(i.config); err != nil {
		return fmt.Errorf("agent %s: %w", ImprovementName, err)
	}
	if i.llmClient.GetModel() == "" {
		return fmt.Errorf("agent %s: LLM client model is not configured", ImprovementName)
	}
	return nil
}
