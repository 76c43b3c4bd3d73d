package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxEntityID contextKey = "entity_id"

// EntityIDFromContext returns the tenant scope set by EntityContext, or
// uuid.Nil when the request carried none.
func EntityIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxEntityID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithEntityID injects the tenant identifier into the context.
func WithEntityID(ctx context.Context, entityID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxEntityID, entityID)
}
