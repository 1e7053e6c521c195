package tlproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/tlproxy/cache"
	"github.com/ZaguanLabs/tlproxy/ratelimit"
)

// Limiter decides whether a client may make another request.
type Limiter interface {
	Allow(ctx context.Context, clientKey string) bool
}

// Service runs the translate flow: sanitize, rate limit, cache lookup,
// deduplicated and bounded upstream calls.
type Service struct {
	cfg       Config
	sanitizer *Sanitizer
	cache     cache.TranslationCache
	limiter   Limiter
	inflight  *InFlight
	upstream  *upstreamClient
	logger    *zap.Logger
	metrics   *Metrics
	retry     *RetryConfig
}

// Option is a functional option for configuring the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCache replaces the default in-memory cache.
func WithCache(c cache.TranslationCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLimiter replaces the default in-memory rate limiter.
func WithLimiter(l Limiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRetryConfig overrides the upstream retry backoff. MaxRetries is taken
// from Config.Retries.
func WithRetryConfig(rc RetryConfig) Option {
	return func(s *Service) {
		s.retry = &rc
	}
}

// New creates a Service translating through upstream.
func New(cfg Config, upstream Upstream, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if upstream == nil {
		return nil, &ConfigError{Field: "provider", Message: "is required"}
	}

	sanitizer, err := NewSanitizer(cfg.Policy())
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:       cfg,
		sanitizer: sanitizer,
		inflight:  NewInFlight(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	if s.cache == nil {
		mc, err := cache.NewMemoryCache(cfg.CacheSize, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		s.cache = mc
	}

	if s.limiter == nil {
		l, err := ratelimit.New(
			ratelimit.NewMemoryStore(cfg.RateSweepInterval),
			ratelimit.Config{Max: cfg.RateMax, Window: cfg.RateWindow},
			s.logger.Named("ratelimit"),
		)
		if err != nil {
			return nil, err
		}
		s.limiter = l
	}

	retry := DefaultRetryConfig()
	if s.retry != nil {
		retry = *s.retry
	}
	retry.MaxRetries = cfg.Retries

	s.upstream = &upstreamClient{
		upstream: upstream,
		timeout:  cfg.CallTimeout,
		retry:    retry,
		logger:   s.logger.Named("upstream"),
		metrics:  s.metrics,
	}

	return s, nil
}

// Handle runs one translate request from clientKey and returns the response
// body together with its HTTP status. It never panics: unexpected failures
// answer 200 with an empty translation map and a generic error.
func (s *Service) Handle(ctx context.Context, clientKey string, body []byte) (resp Response, status int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("translate request panicked", zap.Any("panic", r))
			resp = newResponse()
			resp.Error = KindInternal.String()
			status = http.StatusOK
		}
		s.metrics.observeRequest(status)
	}()

	translations, err := s.handle(ctx, clientKey, body)
	if err != nil {
		return errorResponse(err)
	}

	resp = newResponse()
	resp.Translations = translations
	return resp, http.StatusOK
}

func (s *Service) handle(ctx context.Context, clientKey string, body []byte) (map[string]string, error) {
	if !s.cfg.Enabled {
		return nil, &RequestError{Kind: KindFeatureDisabled}
	}

	raw, err := s.sanitizer.Decode(body)
	if err != nil {
		return nil, err
	}

	if !s.limiter.Allow(ctx, clientKey) {
		s.metrics.observeRateLimited()
		return nil, &RequestError{Kind: KindRateLimited}
	}

	texts := s.sanitizer.Clean(raw)
	s.logger.Debug("translate request",
		zap.Int("received", len(raw)),
		zap.Int("accepted", len(texts)))

	return s.Translate(ctx, texts), nil
}

// errorResponse maps a request error to its response. Anything that is not a
// *RequestError is reported as an internal error with status 200.
func errorResponse(err error) (Response, int) {
	resp := newResponse()
	kind := KindInternal
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		kind = reqErr.Kind
	}
	resp.Error = kind.String()
	return resp, kind.StatusCode()
}

// TranslateBatch cleans raw texts with the configured policy and translates
// what remains. It skips the payload cap and rate limit, which only apply to
// client requests.
func (s *Service) TranslateBatch(ctx context.Context, raw []string) map[string]string {
	return s.Translate(ctx, s.sanitizer.Clean(raw))
}

// Translate returns a translation for every text, which must already be
// normalized. Cached texts are answered directly; the rest go through the
// worker pool. Texts whose upstream call fails map to themselves.
//
// Upstream calls are detached from ctx's cancellation so that one client
// disconnecting does not fail the call other requests may be waiting on.
func (s *Service) Translate(ctx context.Context, texts []string) map[string]string {
	out := make(map[string]string, len(texts))
	misses := make([]string, 0, len(texts))

	for _, text := range texts {
		if v, ok := s.cache.Get(text); ok {
			out[text] = v
			continue
		}
		misses = append(misses, text)
	}
	s.metrics.observeCache(len(texts)-len(misses), len(misses))

	if len(misses) == 0 {
		return out
	}

	detached := context.WithoutCancel(ctx)
	results := runPool(misses, s.cfg.Parallelism, func(text string) string {
		return s.resolve(detached, text)
	})
	for text, translated := range results {
		out[text] = translated
	}

	s.logger.Debug("translated batch",
		zap.Int("texts", len(texts)),
		zap.Int("cache_misses", len(misses)))
	return out
}

// resolve produces one translation, checking the cache again both before and
// inside the shared in-flight call. The inner check covers a flight for the
// same text that finished between this request's lookup and its Resolve.
func (s *Service) resolve(ctx context.Context, text string) string {
	if v, ok := s.cache.Get(text); ok {
		return v
	}

	v, shared := s.inflight.Resolve(text, func() string {
		if v, ok := s.cache.Get(text); ok {
			return v
		}

		translated, ok := s.upstream.Translate(ctx, text)
		if !ok {
			return translated
		}

		if err := s.cache.Set(text, translated); err != nil {
			s.logger.Warn("cache set failed",
				zap.String("text_hash", ShortHash(text)),
				zap.Error(err))
		}
		return translated
	})
	if shared {
		s.metrics.observeShared()
	}
	return v
}

// Cache returns the translation cache.
func (s *Service) Cache() cache.TranslationCache {
	return s.cache
}

// Config returns the configuration the Service was built with.
func (s *Service) Config() Config {
	return s.cfg
}

// InFlight returns the number of texts with an upstream call in progress.
func (s *Service) InFlight() int {
	return s.inflight.Pending()
}

// Close releases the limiter and cache if they hold resources.
func (s *Service) Close() error {
	var result *multierror.Error

	for name, c := range map[string]interface{}{"limiter": s.limiter, "cache": s.cache} {
		closer, ok := c.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("closing %s: %w", name, err))
		}
	}

	return result.ErrorOrNil()
}
