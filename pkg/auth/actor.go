package auth

import (
	"context"

	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/google/uuid"
)

// Actor is the authenticated caller every domain operation is evaluated against.
type Actor struct {
	UserID     uuid.UUID
	Role       enums.Role
	IsVerified bool
	IsBlocked  bool
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

func (a Actor) IsDelivery() bool {
	return a.Role == enums.RoleDelivery
}

// IsVerifiedVendor reports whether the actor may mutate catalog entities and read vendor orders.
func (a Actor) IsVerifiedVendor() bool {
	return a.Role == enums.RoleVendor && a.IsVerified && !a.IsBlocked
}

// Owns reports whether the actor is the given user.
func (a Actor) Owns(userID uuid.UUID) bool {
	return a.UserID != uuid.Nil && a.UserID == userID
}

type actorKey struct{}

// WithActor stores the actor on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
