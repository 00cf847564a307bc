package goGate

import "context"

type clientIPContextKey struct{}
type identityContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx for audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithIdentity attaches a resolved identity to ctx. Middleware sets it after
// a successful Admit or Resolve.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the identity set by WithIdentity.
func IdentityFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	identity, ok := ctx.Value(identityContextKey{}).(string)
	return identity, ok && identity != ""
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
