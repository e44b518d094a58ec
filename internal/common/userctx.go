package common

import "context"

type userCtxKey struct{}

// WithUserID records the user a request acts on.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userCtxKey{}, id)
}

// UserID returns the user recorded by WithUserID.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userCtxKey{}).(string)
	return id, ok && id != ""
}
