package auth

import "context"

type contextKey struct{}

// Identity is the authenticated caller of a decline API request.
type Identity struct {
	Subject string
	Role    Role
	// Wells the caller may target; empty means every well.
	Wells []string
}

// WithIdentity stores the caller identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
