package auth

import (
	"context"

	"github.com/mohitkumar/quorum/model"
)

// Actor is the resolved identity behind a request. Every engine entry point
// requires one; requests without an actor fail closed.
type Actor struct {
	ProfileId string
	Roles     []string
}

func (a *Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

const ROLE_OWNER string = "owner"

// SystemActor is used by internal callers such as the automatic transition
// worker.
var SystemActor = &Actor{ProfileId: "system", Roles: []string{ROLE_OWNER}}

type actorKey struct{}

func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext returns the actor bound to the context, failing closed with an
// UnauthorizedError when none is present or the actor has no active profile.
func FromContext(ctx context.Context) (*Actor, error) {
	actor, ok := ctx.Value(actorKey{}).(*Actor)
	if !ok || actor == nil {
		return nil, model.UnauthorizedError{Message: "no actor in request context"}
	}
	if actor.ProfileId == "" {
		return nil, model.UnauthorizedError{Message: "actor has no active profile"}
	}
	return actor, nil
}
