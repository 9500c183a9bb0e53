package guard

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClient is the shared rate-limit bucket for requests whose origin
// cannot be determined. All such clients draw from one budget — a
// deliberate degradation, not a correctness problem.
const UnknownClient = "unknown"

// ClientIP derives the rate-limit identity for a request.
//
// Preference order:
//  1. first entry of X-Forwarded-For (the original client, when behind proxies)
//  2. X-Real-IP
//  3. the transport-level peer address (RemoteAddr, port stripped)
//  4. the shared "unknown" bucket
//
// The forwarded headers are trusted as-is; this service is expected to sit
// behind a proxy that overwrites them.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if r.RemoteAddr != "" {
		// RemoteAddr is "host:port"; fall back to the raw value when it
		// isn't (e.g. in tests that set a bare address).
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return UnknownClient
}
