// Package ratelimit provides per-key token bucket rate limiting.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	apperrors "github.com/garyellow/companion-nlu-go/internal/errors"
	"github.com/garyellow/companion-nlu-go/internal/metrics"
)

// Defaults for KeyedConfig.
const (
	DefaultMaxKeys = 10000
	DefaultIdleTTL = 10 * time.Minute
)

// KeyedConfig configures a KeyedLimiter instance.
type KeyedConfig struct {
	// Name identifies this limiter for metrics (e.g., "user")
	Name string

	// PerMinute is the sustained rate. Zero or less disables limiting.
	PerMinute int
	// Burst is the bucket size; zero means a tenth of PerMinute, at least 1.
	Burst int

	// MaxKeys bounds the number of tracked keys; the least recently used
	// key is evicted first.
	MaxKeys int
	// IdleTTL drops a key's bucket this long after it was created.
	IdleTTL time.Duration

	Metrics *metrics.Metrics
}

// KeyedLimiter tracks one token bucket per key (e.g., user ID).
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
	config   KeyedConfig
}

// NewKeyedLimiter creates a per-key rate limiter.
//
// Example:
//
//	limiter := NewKeyedLimiter(KeyedConfig{Name: "user", PerMinute: 60})
//	if err := limiter.Allow(userID); err != nil {
//	    // reject
//	}
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = DefaultMaxKeys
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(cfg.PerMinute/10, 1)
	}
	return &KeyedLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](cfg.MaxKeys, nil, cfg.IdleTTL),
		limit:    rate.Limit(float64(cfg.PerMinute) / 60.0),
		burst:    burst,
		config:   cfg,
	}
}

// Allow consumes one token for key. It returns an error wrapping
// ErrRateLimitExceeded when the bucket is empty. Empty keys are never
// limited.
func (kl *KeyedLimiter) Allow(key string) error {
	if key == "" || kl.config.PerMinute <= 0 {
		return nil
	}
	if !kl.limiter(key).Allow() {
		kl.config.Metrics.RecordRateLimiterDrop(kl.config.Name)
		return fmt.Errorf("%w for %s", apperrors.ErrRateLimitExceeded, key)
	}
	return nil
}

func (kl *KeyedLimiter) limiter(key string) *rate.Limiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	if l, ok := kl.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(kl.limit, kl.burst)
	kl.limiters.Add(key, l)
	return l
}

// ActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) ActiveCount() int {
	return kl.limiters.Len()
}
