package domain

import "context"

// Identity is the user snapshot carried by a verified access token. It is
// denormalized at issuance time and is NOT re-read from storage per request.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

type identityContextKey struct{}

// WithIdentity returns a context carrying the resolved identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext retrieves the identity attached by the authentication
// middleware, if any. The second return is false for unauthenticated requests.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}
