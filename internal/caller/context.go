package caller

import "context"

type contextKey string

const (
	identityContextKey contextKey = "thoth_caller"
	peerContextKey     contextKey = "thoth_peer"
)

// UnknownIdentity is used when no network origin can be determined.
const UnknownIdentity = "unknown"

func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the caller identity, or UnknownIdentity when
// the middleware did not run.
func IdentityFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(identityContextKey).(string); ok && id != "" {
		return id
	}
	return UnknownIdentity
}

// ContextWithPeer records the socket peer address of the connection.
func ContextWithPeer(ctx context.Context, remoteAddr string) context.Context {
	return context.WithValue(ctx, peerContextKey, remoteAddr)
}

// PeerFromContext returns the address stored by Peer, if any.
func PeerFromContext(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(peerContextKey).(string)
	return addr, ok
}
