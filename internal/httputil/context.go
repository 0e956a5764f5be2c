package httputil

import (
	"context"

	"mooki/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	actorKey contextKey = "actor"
)

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, actor *models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom retrieves the authenticated actor from the context, or nil if
// the request was unauthenticated.
func ActorFrom(ctx context.Context) *models.Actor {
	actor, _ := ctx.Value(actorKey).(*models.Actor)
	return actor
}
