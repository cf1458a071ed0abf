package middleware

import (
	"context"

	"github.com/angelmondragon/platehub-backend/internal/authz"
	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
)

type contextKey string

const (
	ctxActor          contextKey = "actor"
	ctxIdempotencyKey contextKey = "idempotency_key"
)

// ActorFromContext returns the authenticated actor seeded by Auth.
func ActorFromContext(ctx context.Context) (authz.Actor, bool) {
	if ctx == nil {
		return authz.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(authz.Actor)
	return actor, ok
}

// WithActor injects the actor into the context.
func WithActor(ctx context.Context, actor authz.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

func IdempotencyKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxIdempotencyKey).(string); ok {
		return v
	}
	return ""
}

// WithIdempotencyKey injects the client supplied key for downstream handlers.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdempotencyKey, key)
}

// RequireActor returns the actor or an unauthorized error.
func RequireActor(ctx context.Context) (authz.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return authz.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}
