package application

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-screener/internal/ports"
)

// Config is the complete configuration surface of the screening engine.
// It is loaded from YAML, validated, and then passed explicitly into
// constructors; nothing reads ambient global state.
type Config struct {
	// LLM configures the model provider every agent calls through.
	LLM LLMConfig `yaml:"llm" validate:"required"`

	// Cache configures result caching around the pipeline.
	Cache CacheConfig `yaml:"cache"`

	// Ranking configures the concurrent fan-out of the coordinator.
	Ranking RankingConfig `yaml:"ranking"`
}

// LLMConfig selects and tunes the model provider.
type LLMConfig struct {
	// Provider names the backend implementation to use.
	Provider string `yaml:"provider" validate:"required,oneof=openai anthropic google"`

	// Model is the provider-specific model identifier.
	Model string `yaml:"model" validate:"required"`

	// APIKey authenticates with the provider. When empty, the
	// provider's conventional environment variable is consulted; the
	// key itself should not live in config files.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default endpoint. For the
	// openai provider this reaches OpenAI-compatible services.
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`

	// Temperature controls sampling randomness for all agent calls.
	Temperature float64 `yaml:"temperature" validate:"min=0.0,max=2.0"`

	// MaxTokens limits each model response.
	MaxTokens int `yaml:"max_tokens" validate:"required,min=50,max=8192"`

	// TimeoutSeconds bounds each individual model call.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"min=1,max=600"`
}

// CacheConfig controls result caching.
type CacheConfig struct {
	// Enabled toggles caching entirely. Disabled means every
	// evaluation recomputes.
	Enabled bool `yaml:"enabled"`

	// TTLSeconds is how long cached results stay servable. Zero means
	// entries never expire.
	TTLSeconds int `yaml:"ttl_seconds" validate:"min=0"`

	// RedisAddr is the host:port of the Redis backend. Empty selects
	// the in-process memory store.
	RedisAddr string `yaml:"redis_addr"`

	// RedisPassword authenticates with Redis when required.
	RedisPassword string `yaml:"redis_password"`

	// RedisDB selects the Redis logical database.
	RedisDB int `yaml:"redis_db" validate:"min=0,max=15"`
}

// RankingConfig controls the coordinator's concurrency.
type RankingConfig struct {
	// MaxConcurrency caps simultaneous candidate pipelines.
	MaxConcurrency int `yaml:"max_concurrency" validate:"min=1,max=64"`

	// DeadlineSeconds bounds a whole ranking request. Zero disables
	// the overall deadline.
	DeadlineSeconds int `yaml:"deadline_seconds" validate:"min=0,max=3600"`
}

// Environment variables consulted for API keys, by provider.
var apiKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"google":    "GEMINI_API_KEY",
}

// DefaultConfig returns a Config with the stock defaults: OpenAI at
// temperature 0.3, 2000 max tokens, 30 second call timeout, caching on
// with a 24 hour TTL, and a fan-out of five.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			Temperature:    0.3,
			MaxTokens:      2000,
			TimeoutSeconds: 30,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: int((24 * time.Hour).Seconds()),
		},
		Ranking: RankingConfig{
			MaxConcurrency: DefaultMaxConcurrency,
		},
	}
}

// LoadConfig reads, parses, and validates a YAML config file. Absent
// fields keep their defaults, so a minimal file only names the provider
// and model.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %v", ports.ErrConfigNotFound, err)
		}
		return Config{}, ports.NewConfigError(path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses and validates YAML config bytes over the defaults.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, ports.NewConfigError("yaml", err)
	}

	config.ResolveAPIKey()

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// ResolveAPIKey fills in the API key from the provider's conventional
// environment variable when the configuration does not set one. It is
// applied on every load path, including the built-in defaults.
func (c *Config) ResolveAPIKey() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(apiKeyEnv[c.LLM.Provider])
	}
}

// Validate checks the configuration against its struct constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// CallTimeout returns the per-call model timeout as a duration.
func (c LLMConfig) CallTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TTL returns the cache expiry as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// PipelineConfig derives the pipeline's caching knobs.
func (c Config) PipelineConfig() PipelineConfig {
	return PipelineConfig{
		CacheEnabled: c.Cache.Enabled,
		CacheTTL:     c.Cache.TTL(),
		Version:      PipelineVersion,
	}
}

// CoordinatorConfig derives the coordinator's fan-out knobs.
func (c Config) CoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		MaxConcurrency: int64(c.Ranking.MaxConcurrency),
		Deadline:       time.Duration(c.Ranking.DeadlineSeconds) * time.Second,
	}
}
