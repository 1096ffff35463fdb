package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// OwnerClaims are the JWT claims issued by the platform's auth service. The
// owner identity is the subject, or the owner_id claim for older tokens.
type OwnerClaims struct {
	jwt.RegisteredClaims
	OwnerID string `json:"owner_id,omitempty"`
}

// Owner returns the verified owner identity carried by the token.
func (c *OwnerClaims) Owner() string {
	if c.OwnerID != "" {
		return c.OwnerID
	}
	return c.Subject
}
