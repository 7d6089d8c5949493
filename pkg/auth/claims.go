package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	DMID  uuid.UUID
	Email string
}

// AccessTokenClaims represents the typed JWT issued to DM clients.
type AccessTokenClaims struct {
	DMID  uuid.UUID `json:"dm_id"`
	Email string    `json:"email"`
	jwt.RegisteredClaims
}
