// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/garyellow/companion-nlu-go/internal/buildinfo"
	"github.com/garyellow/companion-nlu-go/internal/config"
	"github.com/garyellow/companion-nlu-go/internal/course"
	"github.com/garyellow/companion-nlu-go/internal/engine"
	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/logger"
	"github.com/garyellow/companion-nlu-go/internal/metrics"
	"github.com/garyellow/companion-nlu-go/internal/model"
	"github.com/garyellow/companion-nlu-go/internal/r2client"
	"github.com/garyellow/companion-nlu-go/internal/ratelimit"
	"github.com/garyellow/companion-nlu-go/internal/sentry"
	"github.com/garyellow/companion-nlu-go/internal/session"
	"github.com/garyellow/companion-nlu-go/internal/snapshot"
	"github.com/garyellow/companion-nlu-go/internal/storage"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg      *config.Config
	logger   *logger.Logger
	db       *storage.DB
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	sessions *session.Manager
	inbox    *session.Inbox
	events   chan course.AmbiguityEvent
	limiter  *ratelimit.KeyedLimiter
	lexicons *snapshot.Manager // nil unless R2 is enabled
	provider string
	server   *http.Server
	wg       sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken: cfg.BetterStackToken,
	})

	log = log.WithField("service", "companion-nlu-go")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog.*Context() calls go through the ContextHandler too.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.String()).Info("Initializing application...")

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error reporting enabled")
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	services, err := buildServices(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("model services: %w", err)
	}

	app := &Application{
		cfg:      cfg,
		logger:   log,
		db:       db,
		metrics:  m,
		registry: registry,
		inbox:    session.NewInbox(cfg.SessionCacheSize, cfg.SessionTTL),
		events:   make(chan course.AmbiguityEvent, cfg.AmbiguityBuffer),
		limiter: ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
			Name:      "user",
			PerMinute: cfg.UserRatePerMin,
			Metrics:   m,
		}),
		provider: cfg.ModelProvider,
	}

	base, err := app.loadLexicon(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("lexicon: %w", err)
	}

	app.sessions = session.NewManager(session.Config{
		Engine: engine.Config{
			Services: services,
			Lexicon:  base,
			Events:   app.events,
			Metrics:  m,
		},
		Store: db,
		Size:  cfg.SessionCacheSize,
		TTL:   cfg.SessionTTL,
	})

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.newRouter(),
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.WithField("provider", cfg.ModelProvider).Info("Initialization complete")
	return app, nil
}

// buildServices creates the classifier and taggers for the configured provider.
func buildServices(ctx context.Context, cfg *config.Config) (model.Services, error) {
	modelCfg := model.Config{
		Provider:      cfg.ModelProvider,
		Timeout:       cfg.ModelTimeout,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
	}
	if cfg.ExemplarsPath != "" {
		exemplars, err := model.LoadExemplars(cfg.ExemplarsPath)
		if err != nil {
			return model.Services{}, err
		}
		modelCfg.Exemplars = exemplars
	}
	return model.New(ctx, modelCfg)
}

// loadLexicon builds the base lexicon: defaults, then the local bundle, then
// the R2 bundle. A missing R2 object is not an error; the R2 bundle can
// appear later and is picked up by polling.
func (a *Application) loadLexicon(ctx context.Context) (*lexicon.Lexicon, error) {
	base := lexicon.Default()

	if a.cfg.LexiconPath != "" {
		b, err := lexicon.LoadFile(a.cfg.LexiconPath)
		if err != nil {
			return nil, err
		}
		base = base.Merge(b)
		a.logger.WithField("path", a.cfg.LexiconPath).
			WithField("entries", b.Size()).
			Info("Local lexicon bundle loaded")
	}

	if !a.cfg.R2.Enabled {
		return base, nil
	}

	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    a.cfg.R2.Endpoint(),
		AccessKeyID: a.cfg.R2.AccessKeyID,
		SecretKey:   a.cfg.R2.SecretAccessKey,
		BucketName:  a.cfg.R2.BucketName,
	})
	if err != nil {
		return nil, err
	}
	a.lexicons = snapshot.New(client, snapshot.Config{
		Key:          a.cfg.R2.LexiconKey,
		PollInterval: a.cfg.R2.PollInterval,
		Base:         base,
	}, func(lex *lexicon.Lexicon) {
		a.sessions.SetLexicon(lex)
	})

	fetchCtx, cancel := context.WithTimeout(ctx, config.LexiconFetch)
	defer cancel()

	lex, err := a.lexicons.Load(fetchCtx)
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		a.logger.WithField("key", a.cfg.R2.LexiconKey).Info("No R2 lexicon bundle yet")
		return base, nil
	case err != nil:
		// Serve the local lexicon; polling retries the download.
		a.logger.WithError(err).Warn("R2 lexicon bundle unavailable")
		return base, nil
	}
	a.logger.WithField("etag", a.lexicons.CurrentETag()).Info("R2 lexicon bundle loaded")
	return lex, nil
}

// Run starts the HTTP server and background jobs.
//
// Shutdown order:
//  1. Receive shutdown signal (SIGINT/SIGTERM)
//  2. Cancel context so background jobs stop
//  3. Wait for background jobs
//  4. Close resources (HTTP server, database, log sinks)
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	sig := a.waitForShutdownSignal()
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.inbox.Run(ctx, a.events)
	})
	if a.lexicons != nil {
		a.wg.Go(func() {
			a.lexicons.Run(ctx)
		})
	}
	a.wg.Go(func() {
		a.updateSessionMetrics(ctx)
	})
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown stops the HTTP server and closes resources. Background jobs
// must already have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Closing resources...")

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}

	sentry.Flush(2 * time.Second)

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}

// updateSessionMetrics keeps the session gauge current as entries expire.
func (a *Application) updateSessionMetrics(ctx context.Context) {
	ticker := time.NewTicker(config.MetricsUpdate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.metrics.SetSessionsActive(a.sessions.Len())
		}
	}
}
