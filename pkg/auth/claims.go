package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionPayload captures the data available when minting a session token.
type SessionPayload struct {
	UserID uuid.UUID
	Email  string
	Name   string
	JTI    string
}

// SessionClaims is the typed JWT carried in the sandbox session cookie.
type SessionClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name,omitempty"`
	jwt.RegisteredClaims
}
