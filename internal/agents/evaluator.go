package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ahrav/go-screener/internal/domain"
	"github.com/ahrav/go-screener/internal/ports"
)

var _ ports.Agent = (*Evaluator)(nil)

// EvaluatorName identifies the scoring stage in logs and metrics.
const EvaluatorName = "evaluator"

// evaluatorSystemPrompt instructs the model to score an answer on the
// fixed 1-5 scale and return structured JSON.
const evaluatorSystemPrompt = `You are an expert technical interviewer evaluating candidate answers.

Your task is to score the candidate's answer on a scale of 1-5:
- **5**: Exceptional - Demonstrates deep understanding, optimal solution, considers edge cases
- **4**: Strong - Correct approach with good explanation, minor gaps
- **3**: Average - Basic understanding, workable solution, but lacks depth
- **2**: Weak - Shows some knowledge but significant gaps or errors
- **1**: Poor - Incorrect or demonstrates lack of understanding

Consider:
1. **Technical Accuracy**: Is the answer technically correct?
2. **Clarity**: Is the explanation clear and well-structured?
3. **Completeness**: Does it address all aspects of the question?
4. **Depth**: Does it show deep understanding or just surface knowledge?

Respond ONLY with valid JSON in this exact format:
{
    "score": <number 1-5>,
    "justification": "<brief explanation of the score>"
}`

// EvaluatorConfig defines the model parameters for the scoring stage.
type EvaluatorConfig struct {
	// Temperature controls randomness in scoring. Lower values produce
	// more consistent scores across identical answers.
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0.0,max=2.0"`

	// MaxTokens limits the length of the scoring response.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=50,max=8192"`
}

// DefaultEvaluatorConfig returns an EvaluatorConfig with sensible defaults.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// evaluatorResponse is the JSON structure the model is asked to produce.
type evaluatorResponse struct {
	Score         int    `json:"score" validate:"required,min=1,max=5"`
	Justification string `json:"justification" validate:"required"`
}

// Evaluator scores a candidate answer on the 1-5 scale with a brief
// justification. It is the first stage of the pipeline; later agents read
// its score from the State for context.
type Evaluator struct {
	config    EvaluatorConfig
	llmClient ports.LLMClient
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEvaluator creates a scoring agent.
// A nil logger disables agent logging.
func NewEvaluator(llmClient ports.LLMClient, config EvaluatorConfig, logger *zap.Logger) (*Evaluator, error) {
	if llmClient == nil {
		return nil, fmt.Errorf("agent %s: LLM client cannot be nil", EvaluatorName)
	}

	v := validator.New()
	if err := v.Struct(config); err != nil {
		return nil, fmt.Errorf("agent %s: configuration validation failed: %w", EvaluatorName, err)
	}

	return &Evaluator{
		config:    config,
		llmClient: llmClient,
		validator: v,
		logger:    ensureLogger(logger).Named(EvaluatorName),
	}, nil
}

// Name returns the unique identifier for this agent.
func (e *Evaluator) Name() string { return EvaluatorName }

// Execute scores the candidate answer found in the State and stores an
// EvaluatorResult under KeyEvaluation. An unparseable model response
// falls back to the neutral midpoint score after bounded re-asking;
// transport failures propagate as errors.
func (e *Evaluator) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	answer, ok := domain.Get(state, domain.KeyAnswer)
	if !ok || answer == "" {
		return state, fmt.Errorf("agent %s: %w: candidate answer missing from state", EvaluatorName, domain.ErrInvalidState)
	}
	question, _ := domain.Get(state, domain.KeyQuestion)

	prompt := buildUserContent(question, answer)
	options := requestOptions(evaluatorSystemPrompt, e.config.Temperature, e.config.MaxTokens, e.llmClient.GetModel())

	var parsed evaluatorResponse
	last, tokens, calls, ok, err := completeWithParseRetry(
		ctx, e.llmClient, EvaluatorName, prompt, options, e.logger,
		func(raw string) error {
			jsonStr := extractJSON(raw)
			if jsonStr == "" {
				return fmt.Errorf("%w: no JSON object in response", ports.ErrInvalidResponse)
			}
			var resp evaluatorResponse
			if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
				return fmt.Errorf("malformed JSON: %w", err)
			}
			if !domain.ValidScore(resp.Score) {
				return fmt.Errorf("%w: %d", domain.ErrScoreOutOfRange, resp.Score)
			}
			if err := e.validator.Struct(resp); err != nil {
				return fmt.Errorf("response failed validation: %w", err)
			}
			parsed = resp
			return nil
		},
	)
	if err != nil {
		return state, err
	}

	result := domain.EvaluatorResult{
		Score:         parsed.Score,
		Justification: parsed.Justification,
		Raw:           last.raw,
		Parsed:        ok,
	}
	if !ok {
		result.Score = domain.NeutralScore
		result.Justification = "Score defaulted to neutral midpoint: the model response could not be parsed."
	}

	e.logger.Info("evaluation complete",
		zap.Int("score", result.Score),
		zap.Bool("parsed", result.Parsed),
	)

	state = domain.With(state, domain.KeyEvaluation, result)
	return state.AddUsage(tokens, calls), nil
}

// Validate checks that the agent is ready for execution.
func (e *Evaluator) Validate() error {
	if e.llmClient == nil {
		return fmt.Errorf("agent %s: LLM client is not configured", EvaluatorName)
	}
	if err := e.validator.Struct(e.config); err != nil {
		return fmt.Errorf("agent %s: %w", EvaluatorName, err)
	}
	if e.llmClient.GetModel() == "" {
		return fmt.Errorf("agent %s: LLM client model is not configured", EvaluatorName)
	}
	return nil
}
