package auth

import "context"

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying principal
func WithPrincipal[P any](ctx context.Context, principal P) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFrom returns the principal stored in ctx by Middleware, if any
func PrincipalFrom[P any](ctx context.Context) (P, bool) {
	principal, ok := ctx.Value(principalKey{}).(P)
	return principal, ok
}
