package tlproxy

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Upstream is the interface for translation engines.
// Translate translates one text into the engine's configured target language.
type Upstream interface {
	Translate(ctx context.Context, text string) (string, error)
}

// UpstreamFunc adapts a function to the Upstream interface.
type UpstreamFunc func(ctx context.Context, text string) (string, error)

// Translate calls f(ctx, text).
func (f UpstreamFunc) Translate(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// upstreamClient bounds every upstream call by a timeout and never fails:
// on any error the original text comes back with ok == false.
type upstreamClient struct {
	upstream Upstream
	timeout  time.Duration
	retry    RetryConfig
	logger   *zap.Logger
	metrics  *Metrics
}

func (c *upstreamClient) Translate(ctx context.Context, text string) (translated string, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	out, err := WithRetry(ctx, c.retry, func() (string, error) {
		return c.upstream.Translate(ctx, text)
	})
	if err == nil && strings.TrimSpace(out) == "" {
		err = &ProviderError{Message: "empty translation"}
	}
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.observeUpstream(false, elapsed)
		c.logger.Warn("upstream translation failed, returning original text",
			zap.String("text_hash", ShortHash(text)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return text, false
	}

	c.metrics.observeUpstream(true, elapsed)
	return out, true
}
