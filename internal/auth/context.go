package auth

import "context"

// Principal is the authenticated identity attached to a request
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"usuario"`
	Name     string `json:"nombre"`
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal set by RequireSession
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
