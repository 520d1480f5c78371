package behaviors

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const dispatchIDKey contextKey = "mediate:dispatch:id"

// WithDispatchID stores the identifier of the current dispatch in ctx
func WithDispatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, dispatchIDKey, id)
}

// DispatchID returns the identifier stored by WithDispatchID or by the
// logging behaviour
func DispatchID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(dispatchIDKey).(string)
	return id, ok && id != ""
}

// ensureDispatchID returns ctx carrying a dispatch ID, creating one when
// absent
func ensureDispatchID(ctx context.Context) (context.Context, string) {
	if id, ok := DispatchID(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return WithDispatchID(ctx, id), id
}
