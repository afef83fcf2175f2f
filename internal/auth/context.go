package auth

import (
	"context"

	"github.com/Domenick1991/flightdesk/internal/domain"
)

type callerCtxKey struct{}

// ContextWithCaller attaches caller for transports that do not carry a gin.Context.
func ContextWithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerCtxKey{}, caller)
}

func CallerFromContext(ctx context.Context) domain.Caller {
	caller, _ := ctx.Value(callerCtxKey{}).(domain.Caller)
	return caller
}
