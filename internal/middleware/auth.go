// Package middleware provides HTTP middleware components for the application.
// It includes authentication and other request processing middleware that can
// be used with the fiber web framework.
package middleware

import (
	"log"
	"strings"

	"ajo/internal/models"
	"ajo/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const ownerIDKey = "ownerID"

// AuthMiddleware handles JWT token validation. Every ledger operation needs a
// verified owner identity, so requests without one are rejected outright.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	if secret == "" {
		panic("jwt secret is required")
	}
	return &AuthMiddleware{
		secret: []byte(secret),
	}
}

// Handler validates the bearer token and stores the owner identity in the
// request context.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Unauthorized(c)
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims := &models.OwnerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		log.Printf("[auth] token validation error: %v", err)
		return response.Unauthorized(c)
	}

	owner := claims.Owner()
	if owner == "" {
		log.Println("[auth] token carries no owner identity")
		return response.Unauthorized(c)
	}

	c.Locals("claims", claims)
	c.Locals(ownerIDKey, owner)
	return c.Next()
}

// OwnerID returns the verified owner identity set by Handler, or "".
func OwnerID(c *fiber.Ctx) string {
	owner, _ := c.Locals(ownerIDKey).(string)
	return owner
}
