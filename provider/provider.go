// Package provider defines the upstream translation engines.
package provider

import (
	"strings"

	"github.com/ZaguanLabs/tlproxy"
)

// Upstream is the interface for translation engines.
// This is an alias to the main package interface for convenience.
type Upstream = tlproxy.Upstream

// isRetryableError reports whether an error message looks transient.
func isRetryableError(err error) bool {
	// Check for common retryable conditions
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// retryableStatus reports whether an upstream HTTP status is worth retrying.
func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}
