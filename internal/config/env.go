package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir       = "DATA_DIR"
	EnvLexiconPath   = "LEXICON_PATH"
	EnvExemplarsPath = "EXEMPLARS_PATH"

	// Models
	EnvModelProvider = "MODEL_PROVIDER"
	EnvModelTimeout  = "MODEL_TIMEOUT"
	EnvGeminiAPIKey  = "GEMINI_API_KEY"
	EnvGeminiModel   = "GEMINI_MODEL"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvOpenAIModel   = "OPENAI_MODEL"

	// Sessions
	EnvSessionCacheSize = "SESSION_CACHE_SIZE"
	EnvSessionTTL       = "SESSION_TTL"
	EnvAmbiguityBuffer  = "AMBIGUITY_BUFFER"
	EnvUserRatePerMin   = "USER_RATE_PER_MIN"

	// R2 lexicon bundles
	EnvR2Enabled         = "R2_ENABLED"
	EnvR2AccountID       = "R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "R2_BUCKET_NAME"
	EnvR2LexiconKey      = "R2_LEXICON_KEY"
	EnvR2PollInterval    = "R2_POLL_INTERVAL"

	// Observability
	EnvSentryDSN         = "SENTRY_DSN"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"
	EnvBetterStackToken  = "BETTERSTACK_TOKEN"
	EnvMetricsUsername   = "METRICS_USERNAME"
	EnvMetricsPassword   = "METRICS_PASSWORD"
)
