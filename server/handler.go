// Package server exposes a tlproxy.Service over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/ZaguanLabs/tlproxy/ratelimit"
)

var nopLogger = zap.NewNop()

// HandlerOpts configures the translate handler.
type HandlerOpts struct {
	Service *tlproxy.Service
	Logger  *zap.Logger
}

// Init validates opts and fills defaults.
func (opts *HandlerOpts) Init() error {
	if opts.Service == nil {
		return errors.New("nil translation service")
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return nil
}

// Handler serves the translate endpoint.
type Handler struct {
	opts       HandlerOpts
	maxBody    int64
	retryAfter string
}

// NewHandler creates a translate handler.
func NewHandler(opts HandlerOpts) (*Handler, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}
	cfg := opts.Service.Config()
	return &Handler{
		opts:       opts,
		maxBody:    int64(cfg.MaxPayloadBytes),
		retryAfter: retryAfterSeconds(cfg.RateWindow),
	}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, tlproxy.Response{
			Translations: map[string]string{},
			Error:        "Method not allowed",
		})
		return
	}

	// Security: Use LimitReader to prevent OOM from malicious large bodies.
	// One extra byte lets the service tell "at the cap" from "over it".
	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBody+1))
	if err != nil {
		h.opts.Logger.Warn("reading request body failed",
			zap.String("from", r.RemoteAddr),
			zap.Error(err))
		writeJSON(w, http.StatusBadRequest, tlproxy.Response{
			Translations: map[string]string{},
			Error:        tlproxy.KindBadRequest.String(),
		})
		return
	}

	client := ratelimit.ClientKey(r.Header, r.RemoteAddr)
	start := time.Now()
	resp, status := h.opts.Service.Handle(r.Context(), client, body)

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", h.retryAfter)
	}

	h.opts.Logger.Debug("translate",
		zap.Int("status", status),
		zap.Int("bytes", len(body)),
		zap.Int("translations", len(resp.Translations)),
		zap.Duration("elapsed", time.Since(start)))

	writeJSON(w, status, resp)
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// retryAfterSeconds renders a window as a whole number of seconds, rounded up.
func retryAfterSeconds(window time.Duration) string {
	secs := int64(math.Ceil(window.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
