package auth

import (
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	Role       enums.Role
	IsVerified bool
	IsBlocked  bool
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID     uuid.UUID  `json:"user_id"`
	Role       enums.Role `json:"role"`
	IsVerified bool       `json:"is_verified"`
	IsBlocked  bool       `json:"is_blocked"`
	jwt.RegisteredClaims
}

// Actor returns the authenticated actor described by the claims.
func (c *AccessTokenClaims) Actor() Actor {
	return Actor{
		UserID:     c.UserID,
		Role:       c.Role,
		IsVerified: c.IsVerified,
		IsBlocked:  c.IsBlocked,
	}
}
