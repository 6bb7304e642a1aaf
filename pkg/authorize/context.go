package authorize

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Alijeyrad/physio_backend/pkg/reqctx"
)

var (
	ErrNoSubjectInContext = errors.New("no subject found in context")
)

// ActorFromContext builds the Actor from the authenticated claims in ctx.
func ActorFromContext(ctx context.Context) (Actor, error) {
	claims := reqctx.ClaimsFromContext(ctx)
	if claims == nil {
		return Actor{}, ErrNoSubjectInContext
	}

	userID := claims.GetUserID()
	if userID == uuid.Nil {
		return Actor{}, ErrNoSubjectInContext
	}

	role, err := ParseRole(claims.GetRole())
	if err != nil {
		return Actor{}, err
	}

	return Actor{ID: userID, Role: role}, nil
}

// MustActorFromContext extracts the Actor from context or panics.
// Use only behind the auth middleware.
func MustActorFromContext(ctx context.Context) Actor {
	a, err := ActorFromContext(ctx)
	if err != nil {
		panic(err)
	}
	return a
}

// UserIDFromContext extracts the user ID as uuid.UUID from context.
// Returns uuid.Nil and error if not found.
func UserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims := reqctx.ClaimsFromContext(ctx)
	if claims == nil || claims.GetUserID() == uuid.Nil {
		return uuid.Nil, ErrNoSubjectInContext
	}
	return claims.GetUserID(), nil
}
