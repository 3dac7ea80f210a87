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

var _ ports.Agent = (*Analyzer)(nil)

// AnalyzerName identifies the analysis stage in logs and metrics.
const AnalyzerName = "analyzer"

// analyzerSystemPrompt asks for a balanced strengths/weaknesses breakdown
// as JSON arrays so the synthesizer can condense them deterministically.
const analyzerSystemPrompt = `You are an expert technical interviewer analyzing candidate answers.

Your task is to provide a balanced analysis identifying:
1. **Strengths**: What the candidate did well (technical accuracy, clarity, approach)
2. **Weaknesses**: What could be improved or what's missing
3. **Summary**: A concise one-line summary (max 200 characters) capturing the essence of the answer

Be specific and actionable. Focus on technical content, not style.

Respond ONLY with valid JSON in this exact format:
{
    "strengths": ["<specific strength>", "..."],
    "weaknesses": ["<specific weakness or gap>", "..."],
    "summary": "<one-line summary, max 200 chars>"
}`

// AnalyzerConfig defines the model parameters for the analysis stage.
type AnalyzerConfig struct {
	// Temperature controls randomness in the analysis.
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0.0,max=2.0"`

	// MaxTokens limits the length of the analysis response.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=50,max=8192"`
}

// DefaultAnalyzerConfig returns an AnalyzerConfig with sensible defaults.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// analyzerResponse is the JSON structure the model is asked to produce.
type analyzerResponse struct {
	Strengths  []string `json:"strengths" validate:"required,min=1,dive,required"`
	Weaknesses []string `json:"weaknesses" validate:"required,min=1,dive,required"`
	Summary    string   `json:"summary" validate:"required"`
}

// Analyzer identifies what a candidate answer did well and where it falls
// short. It runs after the Evaluator and includes the evaluator's score in
// its prompt for context.
type Analyzer struct {
	config    AnalyzerConfig
	llmClient ports.LLMClient
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnalyzer creates an analysis agent.
// A nil logger disables agent logging.
func NewAnalyzer(llmClient ports.LLMClient, config AnalyzerConfig, logger *zap.Logger) (*Analyzer, error) {
	if llmClient == nil {
		return nil, fmt.Errorf("agent %s: LLM client cannot be nil", AnalyzerName)
	}

	v := validator.New()
	if err := v.Struct(config); err != nil {
		return nil, fmt.Errorf("agent %s: configuration validation failed: %w", AnalyzerName, err)
	}

	return &Analyzer{
		config:    config,
		llmClient: llmClient,
		validator: v,
		logger:    ensureLogger(logger).Named(AnalyzerName),
	}, nil
}

// Name returns the unique identifier for this agent.
func (a *Analyzer) Name() string { return AnalyzerName }

// Execute analyzes the candidate answer and stores an AnalyzerResult
// under KeyAnalysis. The evaluator's score, when present in the State, is
// passed to the model as additional context.
func (a *Analyzer) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	answer, ok := domain.Get(state, domain.KeyAnswer)
	if !ok || answer == "" {
		return state, fmt.Errorf("agent %s: %w: candidate answer missing from state", AnalyzerName, domain.ErrInvalidState)
	}
	question, _ := domain.Get(state, domain.KeyQuestion)

	var scoreContext string
	if evaluation, ok := domain.Get(state, domain.KeyEvaluation); ok {
		scoreContext = fmt.Sprintf("Evaluator Score: %d/%d", evaluation.Score, domain.MaxScore)
	}

	prompt := buildUserContent(question, answer, scoreContext)
	options := requestOptions(analyzerSystemPrompt, a.config.Temperature, a.config.MaxTokens, a.llmClient.GetModel())

	var parsed analyzerResponse
	last, tokens, calls, ok, err := completeWithParseRetry(
		ctx, a.llmClient, AnalyzerName, prompt, options, a.logger,
		func(raw string) error {
			jsonStr := extractJSON(raw)
			if jsonStr == "" {
				return fmt.Errorf("%w: no JSON object in response", ports.ErrInvalidResponse)
			}
			var resp analyzerResponse
			if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
				return fmt.Errorf("malformed JSON: %w", err)
			}
			if err := a.validator.Struct(resp); err != nil {
				return fmt.Errorf("response failed validation: %w", err)
			}
			parsed = resp
			return nil
		},
	)
	if err != nil {
		return state, err
	}

	result := domain.AnalyzerResult{
		Strengths:  parsed.Strengths,
		Weaknesses: parsed.Weaknesses,
		Summary:    parsed.Summary,
		Raw:        last.raw,
		Parsed:     ok,
	}
	if !ok {
		result.Strengths = []string{"Unable to analyze strengths"}
		result.Weaknesses = []string{"Unable to analyze weaknesses"}
		result.Summary = "Analysis unavailable: the model response could not be parsed."
	}

	a.logger.Info("analysis complete",
		zap.Int("strengths", len(result.Strengths)),
		zap.Int("weaknesses", len(result.Weaknesses)),
		zap.Bool("parsed", result.Parsed),
	)

	state = domain.With(state, domain.KeyAnalysis, result)
	return state.AddUsage(tokens, calls), nil
}

// Validate checks that the agent is ready for execution.
func (a *Analyzer) Validate() error {
	if a.llmClient == nil {
		return fmt.Errorf("agent %s: LLM client is not configured", AnalyzerName)
	}
	if err := a.validator.Struct(a.config); err != nil {
		return fmt.Errorf("agent %s: %w", AnalyzerName, err)
	}
	if a.llmClient.GetModel() == "" {
		return fmt.Errorf("agent %s: LLM client model is not configured", AnalyzerName)
	}
	return nil
}
