package auth

import "context"

type ctxKey struct{}

// WithUser returns a copy of ctx carrying the authenticated username.
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

// UserFromContext returns the authenticated username, or "" for anonymous requests.
func UserFromContext(ctx context.Context) string {
	u, _ := ctx.Value(ctxKey{}).(string)
	return u
}
