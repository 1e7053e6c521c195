// Package ratelimit enforces a per-client fixed-window request ceiling.
//
// A client may make at most Max requests in any window of length Window that
// starts with its first request; the window restarts on the first request
// after it elapses. Rejected requests are not counted.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Anonymous is the client key used when a request carries no identity.
const Anonymous = "anonymous"

// Store keeps fixed-window counters.
type Store interface {
	// Take records one request for key and reports whether it is allowed.
	Take(ctx context.Context, key string, max int, window time.Duration) (bool, error)
	// Close releases the store's resources.
	Close() error
}

// Config configures a Limiter.
type Config struct {
	Max    int           // Requests allowed per window
	Window time.Duration // Window length
}

// Limiter applies a Config to a Store.
type Limiter struct {
	store  Store
	cfg    Config
	logger *zap.Logger
}

// New creates a Limiter. A nil logger disables logging.
func New(store Store, cfg Config, logger *zap.Logger) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("ratelimit: store is required")
	}
	if cfg.Max <= 0 {
		return nil, fmt.Errorf("ratelimit: max must be positive, got %d", cfg.Max)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("ratelimit: window must be positive, got %s", cfg.Window)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{store: store, cfg: cfg, logger: logger}, nil
}

// Allow reports whether the client identified by key may make another request.
// Store failures allow the request.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if key == "" {
		key = Anonymous
	}

	ok, err := l.store.Take(ctx, key, l.cfg.Max, l.cfg.Window)
	if err != nil {
		l.logger.Warn("rate limit store failed, allowing request", zap.Error(err))
		return true
	}
	return ok
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.cfg.Window
}

// Close closes the underlying store.
func (l *Limiter) Close() error {
	return l.store.Close()
}
