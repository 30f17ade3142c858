package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvModelProvider, "")
	t.Setenv(EnvPort, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, ProviderLocal, cfg.ModelProvider)
	assert.Equal(t, ModelCall, cfg.ModelTimeout)
	assert.Equal(t, 1000, cfg.SessionCacheSize)
	assert.Equal(t, "roster.db", cfg.SQLitePath()[len(cfg.SQLitePath())-len("roster.db"):])
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvModelProvider, "OpenAI")
	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	t.Setenv(EnvModelTimeout, "3s")
	t.Setenv(EnvSessionTTL, "1h")
	t.Setenv(EnvR2Enabled, "not-a-bool")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.ModelProvider)
	assert.Equal(t, 3*time.Second, cfg.ModelTimeout)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.R2.Enabled)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Port:             "10000",
			DataDir:          "/data",
			ModelProvider:    ProviderLocal,
			ModelTimeout:     time.Second,
			SessionCacheSize: 10,
			SessionTTL:       time.Minute,
			SentrySampleRate: 1,
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{"valid", func(*Config) {}, ""},
		{"gemini without key", func(c *Config) { c.ModelProvider = ProviderGemini }, "GEMINI_API_KEY"},
		{"openai without key", func(c *Config) { c.ModelProvider = ProviderOpenAI }, "OPENAI_API_KEY"},
		{"unknown provider", func(c *Config) { c.ModelProvider = "coreml" }, "MODEL_PROVIDER"},
		{"zero timeout", func(c *Config) { c.ModelTimeout = 0 }, "MODEL_TIMEOUT"},
		{"r2 incomplete", func(c *Config) { c.R2.Enabled = true }, "R2_ACCOUNT_ID"},
		{"sample rate", func(c *Config) { c.SentrySampleRate = 2 }, "SENTRY_SAMPLE_RATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestR2Endpoint(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "https://abc.r2.cloudflarestorage.com", R2Config{AccountID: "abc"}.Endpoint())
}
