package application

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-screener/internal/ports"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "openai", config.LLM.Provider)
	assert.Equal(t, 0.3, config.LLM.Temperature)
	assert.Equal(t, 2000, config.LLM.MaxTokens)
	assert.Equal(t, 30*time.Second, config.LLM.CallTimeout())
	assert.True(t, config.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, config.Cache.TTL())
	assert.Equal(t, DefaultMaxConcurrency, config.Ranking.MaxConcurrency)
}

func TestParseConfig_MinimalOverridesDefaults(t *testing.T) {
	yaml := `
llm:
  provider: anthropic
  model: claude-sonnet-4-20250514
  api_key: test-key
cache:
  redis_addr: localhost:6379
`
	config, err := ParseConfig([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "anthropic", config.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", config.LLM.Model)
	// Unset fields keep their defaults.
	assert.Equal(t, 0.3, config.LLM.Temperature)
	assert.Equal(t, 2000, config.LLM.MaxTokens)
	assert.Equal(t, "localhost:6379", config.Cache.RedisAddr)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown provider",
			yaml: "llm:\n  provider: cohere\n  model: command\n  api_key: k\n",
		},
		{
			name: "missing model",
			yaml: "llm:\n  provider: openai\n  model: \"\"\n  api_key: k\n",
		},
		{
			name: "temperature out of range",
			yaml: "llm:\n  provider: openai\n  model: gpt-4o-mini\n  api_key: k\n  temperature: 3.5\n",
		},
		{
			name: "malformed yaml",
			yaml: "llm: [unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	assert.True(t, errors.Is(err, ports.ErrConfigNotFound))

	var configErr *ports.ConfigError
	assert.True(t, errors.As(err, &configErr))
}

func TestParseConfig_MalformedYAMLIsConfigError(t *testing.T) {
	_, err := ParseConfig([]byte("llm: [unclosed"))
	require.Error(t, err)

	var configErr *ports.ConfigError
	assert.True(t, errors.As(err, &configErr))
}

func TestParseConfig_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	config, err := ParseConfig([]byte("llm:\n  provider: openai\n  model: gpt-4o-mini\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-key", config.LLM.APIKey)
}

func TestResolveAPIKey_OnDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	config := DefaultConfig()
	require.Empty(t, config.LLM.APIKey)

	config.ResolveAPIKey()
	assert.Equal(t, "env-key", config.LLM.APIKey)
}

func TestParseConfig_ExplicitKeyBeatsEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	config, err := ParseConfig([]byte("llm:\n  provider: openai\n  model: gpt-4o-mini\n  api_key: file-key\n"))
	require.NoError(t, err)
	assert.Equal(t, "file-key", config.LLM.APIKey)
}

func TestConfig_DerivedConfigs(t *testing.T) {
	config := DefaultConfig()
	config.Ranking.DeadlineSeconds = 120

	pipelineConfig := config.PipelineConfig()
	assert.True(t, pipelineConfig.CacheEnabled)
	assert.Equal(t, 24*time.Hour, pipelineConfig.CacheTTL)
	assert.Equal(t, PipelineVersion, pipelineConfig.Version)

	coordinatorConfig := config.CoordinatorConfig()
	assert.Equal(t, int64(DefaultMaxConcurrency), coordinatorConfig.MaxConcurrency)
	assert.Equal(t, 2*time.Minute, coordinatorConfig.Deadline)
}
