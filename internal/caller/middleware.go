package caller

import (
	"net"
	"net/http"
	"strings"

	"github.com/af-corp/thoth/internal/quota"
)

// Peer keeps the socket peer address before middleware.RealIP rewrites
// RemoteAddr from proxy headers. It must run ahead of RealIP.
func Peer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(ContextWithPeer(r.Context(), r.RemoteAddr)))
	})
}

// Middleware derives the caller identity from the request's network origin.
// Loopback callers get quota.LocalIdentity while bypassLoopback reports true.
func Middleware(bypassLoopback func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := Identify(r, bypassLoopback != nil && bypassLoopback())
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}

// Identify returns the first X-Forwarded-For entry, falling back to the
// remote address. The loopback bypass applies only when the socket peer is
// loopback too, so a forwarded header alone never grants it.
func Identify(r *http.Request, bypassLoopback bool) string {
	host := ""
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		host = strings.TrimSpace(first)
	}
	if host == "" {
		host = hostOnly(r.RemoteAddr)
	}
	if host == "" {
		return UnknownIdentity
	}

	if bypassLoopback && isLoopback(host) && isLoopback(peerHost(r)) {
		return quota.LocalIdentity
	}
	return host
}

func peerHost(r *http.Request) string {
	if addr, ok := PeerFromContext(r.Context()); ok {
		return hostOnly(addr)
	}
	return hostOnly(r.RemoteAddr)
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func hostOnly(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}
