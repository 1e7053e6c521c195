package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// ClientKey derives a client identity from request headers and the connection
// address: the first X-Forwarded-For hop, then X-Real-IP, then the host part
// of remoteAddr. It returns Anonymous when none is present.
func ClientKey(header http.Header, remoteAddr string) string {
	if xff := header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xrip := strings.TrimSpace(header.Get("X-Real-IP")); xrip != "" {
		return xrip
	}

	if remoteAddr != "" {
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil && host != "" {
			return host
		}
		return remoteAddr
	}

	return Anonymous
}
