package tlproxy

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies request-level failures.
type ErrorKind int

const (
	// KindInternal is any unexpected failure while serving a request.
	KindInternal ErrorKind = iota
	// KindBadRequest means the body was not a JSON object with a "texts" array.
	KindBadRequest
	// KindPayloadTooLarge means the raw body exceeded the byte cap.
	KindPayloadTooLarge
	// KindRateLimited means the client hit its per-window ceiling.
	KindRateLimited
	// KindFeatureDisabled means translation is switched off by configuration.
	KindFeatureDisabled
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "Bad request"
	case KindPayloadTooLarge:
		return "Payload too large"
	case KindRateLimited:
		return "Too many requests"
	case KindFeatureDisabled:
		return "Translation disabled"
	default:
		return "Internal error"
	}
}

// StatusCode returns the HTTP status a request error of this kind maps to.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindFeatureDisabled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

// RequestError rejects a whole request before any cache or upstream work.
type RequestError struct {
	Kind    ErrorKind
	Message string // Detail for logs; clients only see Kind.String()
	Cause   error
}

func (e *RequestError) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a *RequestError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind == kind
	}
	return false
}

// ProviderError indicates an upstream translation failure (API error, timeout,
// malformed response). It never reaches clients: the text degrades to itself.
type ProviderError struct {
	Message    string
	Cause      error
	StatusCode int  // Upstream HTTP status, if any
	Retryable  bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Message)
}
