package application

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PipelineVersion tags every cache fingerprint. Bump it whenever agent
// prompts or synthesis logic change so results computed under the old
// behavior are never served for the new one. TTL expiry handles the
// abandoned entries; nothing is deleted manually.
const PipelineVersion = "v1"

// fingerprintPrefix namespaces evaluation entries when the cache backend
// is shared with other workloads.
const fingerprintPrefix = "eval:"

// fingerprintSep separates the hashed fields. The unit separator cannot
// appear in normalized text, so "ab"+"c" and "a"+"bc" hash differently.
const fingerprintSep = "\x1f"

// Fingerprint computes the deterministic cache key for one
// (question, answer, version) triple. Inputs are trimmed and normalized
// to Unicode NFC before hashing, so incidental formatting differences
// between semantically identical submissions still hit the cache.
func Fingerprint(question, answer, version string) string {
	h := sha256.New()
	h.Write([]byte(normalizeForHash(question)))
	h.Write([]byte(fingerprintSep))
	h.Write([]byte(normalizeForHash(answer)))
	h.Write([]byte(fingerprintSep))
	h.Write([]byte(version))
	return fingerprintPrefix + hex.EncodeToString(h.Sum(nil))
}

func normalizeForHash(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
