package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address. Proxy headers are expected to have been
// folded into RemoteAddr by chi's RealIP middleware; X-Forwarded-For is only
// consulted when RemoteAddr is unusable.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if net.ParseIP(addr) != nil {
		return addr
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	return addr
}
