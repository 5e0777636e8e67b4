package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

type contextKey string

const (
	ctxIdentity  contextKey = "identity"
	ctxRequestID contextKey = "request_id"
)

// Identity is the authenticated caller as read from the access token.
type Identity struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	BranchID       *uuid.UUID
	Role           enums.Role
}

// WithIdentity injects the caller into the context for downstream handlers.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(ctxIdentity).(Identity)
	return identity, ok
}

func UserIDFromContext(ctx context.Context) string {
	if identity, ok := IdentityFromContext(ctx); ok && identity.UserID != uuid.Nil {
		return identity.UserID.String()
	}
	return ""
}

func OrganizationIDFromContext(ctx context.Context) string {
	if identity, ok := IdentityFromContext(ctx); ok && identity.OrganizationID != uuid.Nil {
		return identity.OrganizationID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if identity, ok := IdentityFromContext(ctx); ok {
		return string(identity.Role)
	}
	return ""
}
