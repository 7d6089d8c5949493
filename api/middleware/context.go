package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxDMID contextKey = "dm_id"

// DMIDFromContext returns the authenticated DM's id, or uuid.Nil when the
// request was not authenticated.
func DMIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxDMID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithDMID injects the DM identifier into the context.
func WithDMID(ctx context.Context, dmID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxDMID, dmID)
}
