// Package cache provides evaluation result stores backed by Redis or
// process memory. Both implementations satisfy ports.CacheStore and treat
// caching as a pure optimization: a broken store degrades performance,
// never correctness.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-screener/internal/domain"
	"github.com/ahrav/go-screener/internal/ports"
)

// RedisConfig holds connection settings for the Redis-backed store.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password authenticates the connection. Empty means no auth.
	Password string

	// DB selects the Redis logical database.
	DB int

	// DialTimeout bounds connection establishment. Zero uses the
	// client default.
	DialTimeout time.Duration
}

// RedisStore persists evaluation results in Redis as JSON values with
// per-key expiration. Multiple pipeline instances can share one store,
// which is how repeated candidate answers across processes hit the cache.
type RedisStore struct {
	client *redis.Client
}

var _ ports.CacheStore = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed cache store and verifies the
// connection with a ping.
func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing Redis client.
// Useful in tests with a miniredis or mock client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get retrieves a cached evaluation result by fingerprint.
// A missing key and a corrupt value both report a miss; the corrupt case
// additionally returns an error so callers can log it.
func (s *RedisStore) Get(ctx context.Context, key string) (*domain.EvaluationResult, bool, error) {
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ports.NewCacheError(key, "get", err)
	}

	var result domain.EvaluationResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		// Treat undecodable entries as misses so a format change never
		// wedges evaluation.
		return nil, false, ports.NewCacheError(key, "get", fmt.Errorf("%w: %v", ports.ErrCacheCorrupted, err))
	}

	return &result, true, nil
}

// Set stores a result under the fingerprint with an expiration time.
// A zero ttl stores the entry without expiration.
func (s *RedisStore) Set(ctx context.Context, key string, result domain.EvaluationResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return ports.NewCacheError(key, "set", err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return ports.NewCacheError(key, "set", err)
	}

	return nil
}

// Exists reports whether the fingerprint has a live entry.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, ports.NewCacheError(key, "exists", err)
	}
	return n > 0, nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
