package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Auth handles JWT authentication
type Auth interface {
	Sign(userID, displayName string) (string, error)
	Verify(tokenString string) (*Payload, error)
}

// Payload is the identity claim carried by a signaling token. Room membership
// is not part of the token; clients join rooms over the signaling channel.
type Payload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"userName,omitempty"`
	jwt.RegisteredClaims
}
