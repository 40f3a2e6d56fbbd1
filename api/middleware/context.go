package middleware

import (
	"context"

	"github.com/pimtong/fieldworks-backend/pkg/enums"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// Principal is the authenticated caller as seen by the HTTP layer.
type Principal struct {
	UserID   uint
	Username string
	Role     enums.UserRole
	TeamID   *uint
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(Principal)
	return p, ok
}

// WithPrincipal injects the authenticated caller into the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}
