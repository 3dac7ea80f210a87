package application

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("find two numbers summing to target", "use a hash map", PipelineVersion)
	b := Fingerprint("find two numbers summing to target", "use a hash map", PipelineVersion)
	assert.Equal(t, a, b)
}

func TestFingerprint_Prefix(t *testing.T) {
	key := Fingerprint("q", "a", "v1")
	assert.True(t, strings.HasPrefix(key, "eval:"))
}

func TestFingerprint_VersionSensitivity(t *testing.T) {
	v1 := Fingerprint("q", "a", "v1")
	v2 := Fingerprint("q", "a", "v2")
	assert.NotEqual(t, v1, v2)
}

func TestFingerprint_DistinctInputs(t *testing.T) {
	base := Fingerprint("q", "a", "v1")
	assert.NotEqual(t, base, Fingerprint("q2", "a", "v1"))
	assert.NotEqual(t, base, Fingerprint("q", "a2", "v1"))
}

func TestFingerprint_FieldBoundaries(t *testing.T) {
	// Content must not shift between fields.
	assert.NotEqual(t, Fingerprint("ab", "c", "v1"), Fingerprint("a", "bc", "v1"))
}

func TestFingerprint_NormalizesWhitespace(t *testing.T) {
	trimmed := Fingerprint("question", "answer", "v1")
	padded := Fingerprint("  question \n", "\tanswer  ", "v1")
	assert.Equal(t, trimmed, padded)
}

func TestFingerprint_NormalizesUnicode(t *testing.T) {
	// Composed and decomposed forms of the same text hash identically.
	composed := Fingerprint("q", "café", "v1")
	decomposed := Fingerprint("q", "café", "v1")
	assert.Equal(t, composed, decomposed)
}
