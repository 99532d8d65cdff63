package auth

import (
	"context"

	"minicms/internal/biz"
)

type userContextKey struct{}

// WithUser returns ctx carrying the authenticated user.
func WithUser(ctx context.Context, u *biz.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext extracts the authenticated user loaded by the gate, or
// nil.
func UserFromContext(ctx context.Context) *biz.User {
	u, _ := ctx.Value(userContextKey{}).(*biz.User)
	return u
}
