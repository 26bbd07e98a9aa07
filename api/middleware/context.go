package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/tristore-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the authenticated actor and its identifiers into the context.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	ctx = auth.WithActor(ctx, actor)
	ctx = context.WithValue(ctx, ctxUserID, actor.UserID.String())
	return context.WithValue(ctx, ctxRole, string(actor.Role))
}

// ActorFromRequest returns the actor seeded by Auth or an unauthorized error.
func ActorFromRequest(r *http.Request) (auth.Actor, error) {
	if r == nil {
		return auth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		return auth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return actor, nil
}
