package callercontext

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/backoffice-backend/api/middleware"
	"github.com/angelmondragon/backoffice-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

// Resolve returns the authenticated caller or a forbidden error when the
// request carries no organization.
func Resolve(r *http.Request) (middleware.Identity, error) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return middleware.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller context missing")
	}
	if identity.OrganizationID == uuid.Nil {
		return middleware.Identity{}, pkgerrors.New(pkgerrors.CodeForbidden, "organization context required")
	}
	return identity, nil
}

// OrderActor maps the caller onto the actor recorded with order mutations.
func OrderActor(r *http.Request) (orders.Actor, error) {
	identity, err := Resolve(r)
	if err != nil {
		return orders.Actor{}, err
	}
	actor := orders.Actor{
		OrganizationID: identity.OrganizationID,
		BranchID:       identity.BranchID,
		Role:           string(identity.Role),
		TraceID:        middleware.RequestIDFromContext(r.Context()),
	}
	if identity.UserID != uuid.Nil {
		userID := identity.UserID
		actor.UserID = &userID
	}
	return actor, nil
}

// ActorID returns the caller's user id as an optional audit reference.
func ActorID(identity middleware.Identity) *uuid.UUID {
	if identity.UserID == uuid.Nil {
		return nil
	}
	id := identity.UserID
	return &id
}
