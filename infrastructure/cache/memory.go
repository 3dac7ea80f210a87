package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ahrav/go-screener/internal/domain"
	"github.com/ahrav/go-screener/internal/ports"
)

// MemoryStore is an in-process ports.CacheStore for tests and
// single-instance deployments that do not want a Redis dependency.
// Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	result    domain.EvaluationResult
	expiresAt time.Time // zero means no expiration
}

var _ ports.CacheStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get retrieves a cached evaluation result by fingerprint.
func (s *MemoryStore) Get(ctx context.Context, key string) (*domain.EvaluationResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}

	result := entry.result
	return &result, true, nil
}

// Set stores a result under the fingerprint. A zero ttl means the entry
// does not expire.
func (s *MemoryStore) Set(ctx context.Context, key string, result domain.EvaluationResult, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := memoryEntry{result: result}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Exists reports whether the fingerprint has a live entry.
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

// Close clears all entries.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

// Len reports the number of live entries, counting expired ones that have
// not been evicted yet.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
