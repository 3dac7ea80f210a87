// Package domain contains pure, dependency-free domain models and types
// for the interview answer screening engine.
package domain

import (
	"fmt"
	"maps"
	"reflect"
	"time"
)

// Key represents a type-safe generic key for accessing values in State.
// The type parameter T ensures compile-time type safety when getting and
// setting values, eliminating the need for runtime type assertions.
type Key[T any] struct{ name string }

// NewKey creates a new Key with the specified name and type.
// This function is provided for creating keys outside of the domain package.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Predefined state keys used by the evaluation pipeline.
// Each key is strongly typed to ensure type safety at compile time.
var (
	// KeyQuestion stores the interview question context.
	KeyQuestion = Key[string]{"question"}

	// KeyCandidateID stores the identifier of the candidate under
	// evaluation.
	KeyCandidateID = Key[string]{"candidate_id"}

	// KeyAnswer stores the candidate's free-text answer.
	KeyAnswer = Key[string]{"answer"}

	// KeyEvaluation stores the scoring agent's output.
	KeyEvaluation = Key[EvaluatorResult]{"evaluation"}

	// KeyAnalysis stores the analysis agent's output.
	KeyAnalysis = Key[AnalyzerResult]{"analysis"}

	// KeyImprovement stores the feedback agent's output.
	KeyImprovement = Key[ImprovementResult]{"improvement"}

	// KeyResult stores the synthesized final result.
	KeyResult = Key[EvaluationResult]{"result"}

	// Usage accounting keys, incremented after each model call.

	// KeyTokensUsed tracks cumulative token consumption across the
	// pipeline for one candidate.
	KeyTokensUsed = Key[int64]{"usage.tokens_used"}

	// KeyCallsMade tracks cumulative model calls made across the
	// pipeline for one candidate.
	KeyCallsMade = Key[int64]{"usage.calls_made"}
)

// deepCopyValue creates a deep copy of a value to ensure true immutability.
// It handles slices, maps, and other reference types that would otherwise
// allow external modification of State data.
func deepCopyValue(value any) any {
	if value == nil {
		return nil
	}

	// time.Time is immutable and can be returned directly.
	if val, ok := value.(time.Time); ok {
		return val
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		newSlice := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		for i := 0; i < v.Len(); i++ {
			newSlice.Index(i).Set(reflect.ValueOf(deepCopyValue(v.Index(i).Interface())))
		}
		return newSlice.Interface()

	case reflect.Map:
		newMap := reflect.MakeMap(v.Type())
		for _, key := range v.MapKeys() {
			copiedKey := deepCopyValue(key.Interface())
			copiedValue := deepCopyValue(v.MapIndex(key).Interface())
			newMap.SetMapIndex(reflect.ValueOf(copiedKey), reflect.ValueOf(copiedValue))
		}
		return newMap.Interface()

	case reflect.Ptr:
		if v.IsNil() {
			return v.Interface()
		}
		newPtr := reflect.New(v.Elem().Type())
		newPtr.Elem().Set(reflect.ValueOf(deepCopyValue(v.Elem().Interface())))
		return newPtr.Interface()

	case reflect.Struct:
		// This performs a shallow copy for unexported fields but deep copies
		// exported fields.
		newStruct := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if newStruct.Field(i).CanSet() {
				newStruct.Field(i).Set(reflect.ValueOf(deepCopyValue(v.Field(i).Interface())))
			}
		}
		return newStruct.Interface()

	default:
		// Primitive types are returned as-is since they are copied by value.
		return value
	}
}

// State represents an immutable accumulator of evaluation data that flows
// through the agent pipeline. It uses copy-on-write semantics so each
// stage receives the prior stages' outputs without any shared mutable
// structure, keeping concurrent pipeline executions fully independent.
type State struct {
	// data holds the key-value pairs that make up the state.
	// It is unexported to maintain immutability guarantees.
	data map[string]any
}

// NewState creates a new empty State.
// The returned State is ready to use and can be safely shared across
// goroutines.
func NewState() State {
	return State{
		data: make(map[string]any),
	}
}

// NewEvaluationState seeds a State with the inputs every agent needs:
// the question context and the candidate's answer.
func NewEvaluationState(question string, candidate CandidateAnswer) State {
	s := NewState()
	return s.WithMultiple(map[string]any{
		KeyQuestion.name:    question,
		KeyCandidateID.name: candidate.ID,
		KeyAnswer.name:      candidate.Answer,
		KeyTokensUsed.name:  int64(0),
		KeyCallsMade.name:   int64(0),
	})
}

// Get retrieves a value from the State with compile-time type safety.
// It returns the value and a boolean indicating whether the key exists
// and contains a value of the correct type. The returned value is a deep
// copy to maintain immutability.
//
// Example:
//
//	question, ok := Get(state, KeyQuestion)
//	if !ok {
//	    // handle missing value
//	}
//	// question is typed as string, no type assertion needed
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}

	copied := deepCopyValue(value)
	val, ok := copied.(T)
	return val, ok
}

// With creates a new State with the specified key-value pair added or
// updated. It implements copy-on-write semantics, returning a new State
// instance while leaving the original unchanged.
//
// Example:
//
//	newState := With(state, KeyQuestion, "Explain two-phase commit.")
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	newData[key.name] = deepCopyValue(value)
	return State{data: newData}
}

// WithMultiple creates a new State with multiple key-value pairs added
// or updated. It is more efficient than chaining multiple With calls as
// it performs a single clone operation.
func (s State) WithMultiple(updates map[string]any) State {
	newData := maps.Clone(s.data)
	for k, v := range updates {
		newData[k] = deepCopyValue(v)
	}
	return State{data: newData}
}

// Keys returns all keys present in the State.
// The returned slice is safe to modify without affecting the original
// State.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// String returns a string representation of the State for debugging purposes.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.data)
}

// Usage tracks resource consumption during one candidate's evaluation.
type Usage struct {
	// Tokens represents the cumulative token consumption.
	Tokens int64 `json:"tokens,omitempty"`

	// Calls represents the cumulative model call count.
	Calls int64 `json:"calls,omitempty"`
}

// AddUsage creates a new State with usage counters incremented by the
// given amounts. Agents call this after each model round-trip so the
// pipeline can report per-candidate consumption.
func (s State) AddUsage(tokens, calls int64) State {
	currentTokens, _ := Get(s, KeyTokensUsed)
	currentCalls, _ := Get(s, KeyCallsMade)

	return s.WithMultiple(map[string]any{
		KeyTokensUsed.name: currentTokens + tokens,
		KeyCallsMade.name:  currentCalls + calls,
	})
}

// GetUsage retrieves the cumulative resource consumption from the State.
func (s State) GetUsage() Usage {
	tokens, _ := Get(s, KeyTokensUsed)
	calls, _ := Get(s, KeyCallsMade)

	return Usage{
		Tokens: tokens,
		Calls:  calls,
	}
}
