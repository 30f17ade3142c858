// Package config provides application configuration management.
// It loads settings from environment variables (and a .env file when
// present) and validates them before any component is built.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Model providers.
const (
	ProviderLocal  = "local"  // BM25 exemplar classifier + rule taggers
	ProviderGemini = "gemini" // Gemini function calling
	ProviderOpenAI = "openai" // any OpenAI-compatible endpoint
	ProviderNone   = "none"   // keyword and regex fallbacks only
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir       string // Directory for the SQLite roster database
	LexiconPath   string // Optional YAML (or .yaml.zst) lexicon bundle
	ExemplarsPath string // Optional JSON exemplars for the local classifier

	// Model Configuration
	ModelProvider string
	ModelTimeout  time.Duration
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Session Configuration
	SessionCacheSize int
	SessionTTL       time.Duration
	AmbiguityBuffer  int
	UserRatePerMin   int

	// R2 Configuration
	R2 R2Config

	// Observability
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64
	BetterStackToken  string
	MetricsUsername   string // Basic auth for /metrics; empty password disables auth
	MetricsPassword   string
}

// R2Config holds the object storage settings used for lexicon bundles.
type R2Config struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	LexiconKey      string
	// PollInterval is how often the lexicon object's ETag is checked.
	// Zero disables polling.
	PollInterval time.Duration
}

// Endpoint returns the account-scoped R2 endpoint.
func (r R2Config) Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.AccountID)
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, 30*time.Second),

		DataDir:       getEnv(EnvDataDir, getDefaultDataDir()),
		LexiconPath:   getEnv(EnvLexiconPath, ""),
		ExemplarsPath: getEnv(EnvExemplarsPath, ""),

		ModelProvider: strings.ToLower(getEnv(EnvModelProvider, ProviderLocal)),
		ModelTimeout:  getDurationEnv(EnvModelTimeout, ModelCall),
		GeminiAPIKey:  getEnv(EnvGeminiAPIKey, ""),
		GeminiModel:   getEnv(EnvGeminiModel, "gemini-2.5-flash-lite"),
		OpenAIAPIKey:  getEnv(EnvOpenAIAPIKey, ""),
		OpenAIBaseURL: getEnv(EnvOpenAIBaseURL, "https://api.openai.com/v1/"),
		OpenAIModel:   getEnv(EnvOpenAIModel, "gpt-4o-mini"),

		SessionCacheSize: getIntEnv(EnvSessionCacheSize, 1000),
		SessionTTL:       getDurationEnv(EnvSessionTTL, 30*time.Minute),
		AmbiguityBuffer:  getIntEnv(EnvAmbiguityBuffer, 64),
		UserRatePerMin:   getIntEnv(EnvUserRatePerMin, 60),

		R2: R2Config{
			Enabled:         getBoolEnv(EnvR2Enabled, false),
			AccountID:       getEnv(EnvR2AccountID, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
			LexiconKey:      getEnv(EnvR2LexiconKey, "lexicon/lexicon.yaml.zst"),
			PollInterval:    getDurationEnv(EnvR2PollInterval, 5*time.Minute),
		},

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),
		BetterStackToken:  getEnv(EnvBetterStackToken, ""),
		MetricsUsername:   getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword:   getEnv(EnvMetricsPassword, ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	switch c.ModelProvider {
	case ProviderLocal, ProviderNone:
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when MODEL_PROVIDER=gemini"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when MODEL_PROVIDER=openai"))
		}
		if c.OpenAIModel == "" {
			errs = append(errs, errors.New("OPENAI_MODEL is required when MODEL_PROVIDER=openai"))
		}
	default:
		errs = append(errs, fmt.Errorf("MODEL_PROVIDER must be one of local, gemini, openai, none; got %q", c.ModelProvider))
	}
	if c.ModelTimeout <= 0 {
		errs = append(errs, fmt.Errorf("MODEL_TIMEOUT must be positive, got %v", c.ModelTimeout))
	}
	if c.SessionCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_CACHE_SIZE must be positive, got %d", c.SessionCacheSize))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive, got %v", c.SessionTTL))
	}
	if c.AmbiguityBuffer < 0 {
		errs = append(errs, fmt.Errorf("AMBIGUITY_BUFFER cannot be negative, got %d", c.AmbiguityBuffer))
	}
	if c.UserRatePerMin < 0 {
		errs = append(errs, fmt.Errorf("USER_RATE_PER_MIN cannot be negative, got %d", c.UserRatePerMin))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("SENTRY_SAMPLE_RATE must be within [0,1], got %v", c.SentrySampleRate))
	}
	if c.R2.Enabled {
		if c.R2.PollInterval < 0 {
			errs = append(errs, fmt.Errorf("R2_POLL_INTERVAL cannot be negative, got %v", c.R2.PollInterval))
		}
		if c.R2.AccountID == "" || c.R2.AccessKeyID == "" || c.R2.SecretAccessKey == "" || c.R2.BucketName == "" {
			errs = append(errs, errors.New("R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET_NAME are required when R2_ENABLED=true"))
		}
	}

	return errors.Join(errs...)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "roster.db")
}
