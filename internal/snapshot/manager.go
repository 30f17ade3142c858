// Package snapshot keeps the served lexicon in sync with a bundle object in
// R2. It polls the object's ETag and, when it changes, downloads the bundle,
// merges it onto the base lexicon and hands the result to a swap callback.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/r2client"
)

// ErrNotFound indicates no bundle exists under the configured key.
var ErrNotFound = errors.New("snapshot: not found")

// Source is the subset of the R2 client the manager needs.
type Source interface {
	HeadObject(ctx context.Context, key string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Config holds snapshot manager configuration.
type Config struct {
	Key          string        // R2 object key of the bundle (e.g., "lexicon/lexicon.yaml.zst")
	PollInterval time.Duration // How often to check for a new bundle
	// Base is the lexicon bundles are merged onto. Nil means the defaults.
	Base *lexicon.Lexicon
}

// Manager tracks the bundle currently in use.
type Manager struct {
	src         Source
	config      Config
	onSwap      func(*lexicon.Lexicon)
	mu          sync.RWMutex
	currentETag string
}

// New creates a manager. onSwap is called with every newly loaded lexicon.
func New(src Source, cfg Config, onSwap func(*lexicon.Lexicon)) *Manager {
	if cfg.Base == nil {
		cfg.Base = lexicon.Default()
	}
	return &Manager{src: src, config: cfg, onSwap: onSwap}
}

// Load downloads the bundle and returns it merged onto the base lexicon.
// It records the bundle's ETag but does not call the swap callback.
func (m *Manager) Load(ctx context.Context) (*lexicon.Lexicon, error) {
	body, etag, err := m.src.Download(ctx, m.config.Key)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download bundle: %w", err)
	}
	defer body.Close()

	b, err := lexicon.Decode(body, lexicon.IsCompressed(m.config.Key))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.currentETag = etag
	m.mu.Unlock()

	return m.config.Base.Merge(b), nil
}

// Run polls until ctx is done. A zero PollInterval returns immediately.
func (m *Manager) Run(ctx context.Context) {
	if m.config.PollInterval <= 0 {
		return
	}

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Lexicon polling started",
		"interval", m.config.PollInterval,
		"key", m.config.Key)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Lexicon polling stopped")
			return
		case <-ticker.C:
			m.pollOnce(ctx)
		}
	}
}

// pollOnce swaps in a new bundle if the remote ETag changed. It reports
// whether a swap happened.
func (m *Manager) pollOnce(ctx context.Context) bool {
	remoteETag, err := m.src.HeadObject(ctx, m.config.Key)
	if err != nil {
		if !errors.Is(err, r2client.ErrNotFound) {
			slog.WarnContext(ctx, "Lexicon poll: head object failed", "error", err)
		}
		return false
	}

	if remoteETag == m.CurrentETag() {
		return false
	}

	old := m.CurrentETag()
	lex, err := m.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Lexicon poll: load failed", "error", err)
		return false
	}

	if m.onSwap != nil {
		m.onSwap(lex)
	}
	slog.InfoContext(ctx, "Lexicon swapped",
		"old_etag", old,
		"new_etag", m.CurrentETag())
	return true
}

// CurrentETag returns the ETag of the bundle currently in use.
func (m *Manager) CurrentETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentETag
}
