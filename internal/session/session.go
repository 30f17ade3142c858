// Package session keeps one engine per user. Engines are created lazily
// from a shared configuration and the user's stored roster, and expire
// after a period without being recreated.
package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/garyellow/companion-nlu-go/internal/engine"
	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/metrics"
)

// Defaults for Config.
const (
	DefaultSize = 1000
	DefaultTTL  = 30 * time.Minute
)

// RosterStore loads a user's courses and course aliases.
type RosterStore interface {
	Roster(ctx context.Context, userID string) ([]string, map[string]string, error)
}

// Config configures a Manager.
type Config struct {
	// Engine is the template for every user's engine; Owner is replaced
	// with the user ID.
	Engine engine.Config
	// Store supplies rosters. Nil starts every engine with an empty roster.
	Store RosterStore
	Size  int
	TTL   time.Duration
}

// Manager caches per-user engines.
type Manager struct {
	cfg     Config
	base    atomic.Pointer[lexicon.Lexicon]
	cache   *expirable.LRU[string, *engine.Engine]
	group   singleflight.Group
	metrics *metrics.Metrics
}

// NewManager creates a Manager.
func NewManager(cfg Config) *Manager {
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	m := &Manager{
		cfg:     cfg,
		cache:   expirable.NewLRU[string, *engine.Engine](cfg.Size, nil, cfg.TTL),
		metrics: cfg.Engine.Metrics,
	}
	base := cfg.Engine.Lexicon
	if base == nil {
		base = lexicon.Default()
	}
	m.base.Store(base)
	return m
}

// Get returns the user's engine, creating it and loading the roster on
// first use. Concurrent first calls for one user share a single load.
func (m *Manager) Get(ctx context.Context, userID string) (*engine.Engine, error) {
	if e, ok := m.cache.Get(userID); ok {
		return e, nil
	}

	v, err, shared := m.group.Do(userID, func() (any, error) {
		if e, ok := m.cache.Get(userID); ok {
			return e, nil
		}
		cfg := m.cfg.Engine
		cfg.Owner = userID
		cfg.Lexicon = m.base.Load()
		e := engine.New(cfg)
		if m.cfg.Store != nil {
			if err := e.Refresh(ctx, m.provider(userID)); err != nil {
				return nil, err
			}
		}
		m.cache.Add(userID, e)
		m.metrics.SetSessionsActive(m.cache.Len())
		return e, nil
	})
	if shared {
		m.metrics.RecordSingleflightDedup("session_create")
	}
	if err != nil {
		return nil, fmt.Errorf("create session for %s: %w", userID, err)
	}
	return v.(*engine.Engine), nil
}

// Reload refreshes a cached engine's roster from the store. Users without
// a cached engine pick up the change on their next Get.
func (m *Manager) Reload(ctx context.Context, userID string) error {
	e, ok := m.cache.Peek(userID)
	if !ok || m.cfg.Store == nil {
		return nil
	}
	return e.Refresh(ctx, m.provider(userID))
}

// SetLexicon replaces the base lexicon and drops every cached engine;
// users get an engine built on the new lexicon on their next Get.
func (m *Manager) SetLexicon(lex *lexicon.Lexicon) {
	if lex == nil {
		return
	}
	m.base.Store(lex)
	m.cache.Purge()
	m.metrics.SetSessionsActive(0)
	m.metrics.RecordLexiconSwap()
}

// Lexicon returns the base lexicon new engines start from.
func (m *Manager) Lexicon() *lexicon.Lexicon {
	return m.base.Load()
}

// Len returns the number of cached engines.
func (m *Manager) Len() int {
	return m.cache.Len()
}

func (m *Manager) provider(userID string) engine.RosterProvider {
	return engine.RosterFunc(func(ctx context.Context) ([]string, map[string]string, error) {
		return m.cfg.Store.Roster(ctx, userID)
	})
}
