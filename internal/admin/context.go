package admin

import "context"

type ctxKey struct{}

// WithAdmin marks ctx as carrying admin privilege.
func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, true)
}

func IsAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKey{}).(bool)
	return v
}
