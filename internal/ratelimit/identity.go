package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIdentity is the sentinel for connections with no usable address.
const UnknownIdentity = "unknown"

// Identity derives the rate-limit identity from connection metadata.
// Trusted proxy headers win over the raw network address: the first hop
// of X-Forwarded-For, then X-Real-IP, then the RemoteAddr host. The
// identity is per observed address, not per session.
func Identity(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}

	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		return rip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if addr := strings.TrimSpace(r.RemoteAddr); addr != "" {
		return addr
	}

	return UnknownIdentity
}
