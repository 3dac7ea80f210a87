// Package agents implements the model-backed pipeline stages that evaluate
// interview answers: scoring, strengths/weaknesses analysis, improvement
// feedback, and the synthesizer that merges the three into a final result.
// All agents implement the ports.Agent interface, are stateless, and are
// safe for concurrent use across pipeline executions.
package agents

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ahrav/go-screener/internal/ports"
)

const (
	// maxParseAttempts bounds how many times an agent re-asks the model
	// when the response cannot be parsed. After the last attempt the
	// agent falls back to a safe default instead of failing.
	maxParseAttempts = 2

	// DefaultTemperature keeps agent output focused while leaving room
	// for varied phrasing in justifications and suggestions.
	DefaultTemperature = 0.3

	// DefaultMaxTokens bounds the length of a single agent response.
	DefaultMaxTokens = 2000
)

// completion is the outcome of one model call attempt.
type completion struct {
	raw       string
	tokensIn  int
	tokensOut int
}

// completeWithParseRetry calls the model and attempts to parse each
// response with the supplied parse callback. Unparseable responses are
// re-requested up to maxParseAttempts times with an unmodified prompt;
// transport failures abort immediately because the answer was never
// evaluated. Token and call usage is accumulated across all attempts,
// including failed ones, since they were genuinely spent.
//
// Returns the last completion, accumulated usage, and whether any attempt
// parsed. A non-nil error is always a transport error.
func completeWithParseRetry(
	ctx context.Context,
	llm ports.LLMClient,
	agentName string,
	prompt string,
	options map[string]any,
	logger *zap.Logger,
	parse func(raw string) error,
) (completion, int64, int64, bool, error) {
	var last completion
	var tokens, calls int64
	var parseErr error

	for attempt := 1; attempt <= maxParseAttempts; attempt++ {
		response, tokensIn, tokensOut, err := llm.CompleteWithUsage(ctx, prompt, options)
		tokens += int64(tokensIn) + int64(tokensOut)
		if err != nil {
			return completion{}, tokens, calls, false, fmt.Errorf("agent %s: model call failed: %w", agentName, err)
		}
		calls++

		last = completion{raw: response, tokensIn: tokensIn, tokensOut: tokensOut}

		parseErr = parse(response)
		if parseErr == nil {
			return last, tokens, calls, true, nil
		}

		logger.Warn("agent response failed to parse",
			zap.String("agent", agentName),
			zap.Int("attempt", attempt),
			zap.Int("response_length", len(response)),
			zap.Error(parseErr),
		)
	}

	logger.Warn("agent falling back to safe default",
		zap.String("agent", agentName),
		zap.Error(ports.NewParseError(agentName, maxParseAttempts, parseErr)),
	)

	return last, tokens, calls, false, nil
}

// requestOptions assembles the per-call model options shared by all
// agents, including JSON response mode when the model supports it.
func requestOptions(system string, temperature float64, maxTokens int, model string) map[string]any {
	options := map[string]any{
		"system":      system,
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}
	if supportsJSONMode(model) {
		options["response_format"] = map[string]string{"type": "json_object"}
	}
	return options
}

// supportsJSONMode reports whether the model can be asked for structured
// JSON output. This is a model-name heuristic; unknown models still work
// because every prompt also spells out the required JSON shape.
func supportsJSONMode(model string) bool {
	lower := strings.ToLower(model)
	return strings.Contains(lower, "gpt") ||
		strings.Contains(lower, "claude") ||
		strings.Contains(lower, "llama")
}

// buildUserContent assembles the user-facing portion of an agent prompt
// from the question context and candidate answer. The question is
// optional; extras are appended in order as their own paragraphs.
func buildUserContent(question, answer string, extras ...string) string {
	var b strings.Builder
	if question != "" {
		fmt.Fprintf(&b, "Question: %s\n\n", question)
	}
	fmt.Fprintf(&b, "Candidate's Answer:\n%s", answer)
	for _, extra := range extras {
		if extra != "" {
			b.WriteString("\n\n")
			b.WriteString(extra)
		}
	}
	return b.String()
}

// extractJSON attempts to extract a JSON object from a response that might
// contain additional text before or after it. It handles markdown code
// blocks and text surrounding the JSON object.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.Contains(response, "```json") {
		start := strings.Index(response, "```json")
		if start != -1 {
			start += 7
			end := strings.Index(response[start:], "```")
			if end != -1 {
				return strings.TrimSpace(response[start : start+end])
			}
		}
	}

	if strings.Contains(response, "```") {
		start := strings.Index(response, "```")
		if start != -1 {
			start += 3
			// Skip any language identifier.
			newlineIdx := strings.Index(response[start:], "\n")
			if newlineIdx != -1 {
				start += newlineIdx + 1
			}
			end := strings.Index(response[start:], "```")
			if end != -1 {
				candidate := strings.TrimSpace(response[start : start+end])
				if strings.HasPrefix(candidate, "{") {
					return candidate
				}
			}
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	// Find the matching closing brace, handling nested objects and strings.
	braceCount := 0
	inString := false
	escapeNext := false

	for i := start; i < len(response); i++ {
		char := response[i]

		if escapeNext {
			escapeNext = false
			continue
		}

		if char == '\\' {
			escapeNext = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return response[start : i+1]
				}
			}
		}
	}

	return ""
}

// truncate caps a string at max runes, replacing the tail with "..." when
// the limit is exceeded. Operates on runes so multi-byte characters are
// never split.
func truncate(s string, max int) string {
	if max <= 3 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}

// ensureLogger substitutes a no-op logger for nil so agents can log
// unconditionally.
func ensureLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
