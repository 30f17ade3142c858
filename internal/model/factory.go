package model

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Providers accepted by New.
const (
	ProviderLocal  = "local"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config selects and configures the model services.
type Config struct {
	Provider string
	Timeout  time.Duration

	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Exemplars for the local classifier; nil means DefaultExemplars.
	Exemplars []Exemplar
}

// New builds the services for the configured provider. ProviderNone yields
// empty Services, which makes the pipeline run on fallbacks only.
func New(ctx context.Context, cfg Config) (Services, error) {
	switch cfg.Provider {
	case ProviderNone:
		slog.InfoContext(ctx, "model services disabled, using deterministic fallbacks")
		return Services{}, nil

	case ProviderLocal, "":
		exemplars := cfg.Exemplars
		if exemplars == nil {
			exemplars = DefaultExemplars()
		}
		classifier, err := NewExemplarClassifier(exemplars)
		if err != nil {
			return Services{}, err
		}
		slog.InfoContext(ctx, "local model services ready", "exemplars", len(exemplars))
		return RuleServices(classifier), nil

	case ProviderGemini:
		caller, err := newGeminiCaller(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return Services{}, err
		}
		slog.InfoContext(ctx, "gemini model services ready", "model", caller.model)
		return remoteServices(caller, cfg.Timeout), nil

	case ProviderOpenAI:
		caller, err := newOpenAICaller(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return Services{}, err
		}
		slog.InfoContext(ctx, "openai-compatible model services ready", "model", caller.model)
		return remoteServices(caller, cfg.Timeout), nil

	default:
		return Services{}, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
