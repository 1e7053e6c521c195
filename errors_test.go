package tlproxy

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		kind    ErrorKind
		message string
		status  int
	}{
		{KindBadRequest, "Bad request", http.StatusBadRequest},
		{KindPayloadTooLarge, "Payload too large", http.StatusRequestEntityTooLarge},
		{KindRateLimited, "Too many requests", http.StatusTooManyRequests},
		{KindFeatureDisabled, "Translation disabled", http.StatusServiceUnavailable},
		{KindInternal, "Internal error", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if tt.kind.String() != tt.message {
				t.Errorf("String() = %q, want %q", tt.kind.String(), tt.message)
			}
			if tt.kind.StatusCode() != tt.status {
				t.Errorf("StatusCode() = %d, want %d", tt.kind.StatusCode(), tt.status)
			}
		})
	}
}

func TestRequestError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &RequestError{Kind: KindBadRequest, Message: "invalid JSON body", Cause: cause}

	if err.Error() != "Bad request: invalid JSON body: unexpected EOF" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}

	// Without detail
	err2 := &RequestError{Kind: KindRateLimited}
	if err2.Error() != "Too many requests" {
		t.Errorf("unexpected error message: %s", err2.Error())
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("decoding: %w", &RequestError{Kind: KindPayloadTooLarge})

	if !IsKind(err, KindPayloadTooLarge) {
		t.Error("IsKind should see through wrapping")
	}
	if IsKind(err, KindBadRequest) {
		t.Error("IsKind should not match a different kind")
	}
	if IsKind(errors.New("plain"), KindBadRequest) {
		t.Error("IsKind should be false for other error types")
	}
}

func TestProviderError(t *testing.T) {
	err := &ProviderError{Message: "rate limited", StatusCode: 429, Retryable: true}

	if err.Error() != "provider error: rate limited" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	if !err.Retryable {
		t.Error("error should be retryable")
	}

	cause := errors.New("connection reset")
	wrapped := &ProviderError{Message: "request failed", Cause: cause}
	if !errors.Is(wrapped, cause) {
		t.Error("ProviderError should unwrap to its cause")
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "parallelism", Message: "must be positive"}

	if err.Error() != "invalid config parallelism: must be positive" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}
