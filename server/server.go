package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/ZaguanLabs/tlproxy/cache"
)

// Config configures the HTTP server.
type Config struct {
	Addr            string        `mapstructure:"addr"`  // Listen address (default: ":8080")
	Path            string        `mapstructure:"path"`  // Translate endpoint path (default: "/translate")
	Debug           bool          `mapstructure:"debug"` // Expose GET /debug/cache
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Path:            "/translate",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves the translate endpoint plus health, metrics and debug routes.
type Server struct {
	cfg    Config
	svc    *tlproxy.Service
	http   *http.Server
	logger *zap.Logger
}

// New builds a Server. gatherer backs GET /metrics and may be nil to disable it.
func New(cfg Config, svc *tlproxy.Service, gatherer prometheus.Gatherer, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = nopLogger
	}
	if cfg.Path == "" {
		cfg.Path = "/translate"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	h, err := NewHandler(HandlerOpts{Service: svc, Logger: logger})
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, h)
	mux.HandleFunc("/health", HealthHandler)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s := &Server{cfg: cfg, svc: svc, logger: logger}
	if cfg.Debug {
		mux.HandleFunc("/debug/cache", s.debugCache)
	}

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", zap.Stringer("addr", l.Addr()), zap.String("path", s.cfg.Path))
		errCh <- s.http.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

func (s *Server) debugCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	metadata := map[string]string{
		"target_lang": s.svc.Config().TargetLang,
		"in_flight":   strconv.Itoa(s.svc.InFlight()),
	}
	if err := cache.NewExporter(s.svc.Cache()).Export(w, metadata); err != nil {
		s.logger.Warn("cache export failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusNotImplemented)
	}
}
