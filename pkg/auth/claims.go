package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	BranchID       *uuid.UUID
	Role           enums.Role
	JTI            string
}

// AccessTokenClaims is the typed JWT accepted by the API. BranchID pins a
// cashier to one location; owners and managers usually leave it empty.
type AccessTokenClaims struct {
	UserID         uuid.UUID  `json:"user_id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	BranchID       *uuid.UUID `json:"branch_id,omitempty"`
	Role           enums.Role `json:"role"`
	jwt.RegisteredClaims
}
