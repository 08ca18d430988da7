package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"photovault/internal/auth"
)

const (
	// OwnerIDLocalKey is the context locals key holding the authenticated user's id.
	OwnerIDLocalKey = "owner_id"
	// UsernameLocalKey is the context locals key holding the authenticated username.
	UsernameLocalKey = "username"
)

// Auth validates a bearer token and stores the caller's identity in context
// locals. A `token` query parameter is accepted as a fallback so that image
// URLs (thumbnails in an <img> tag) can carry credentials without headers.
func Auth(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := ""
		if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
			tokenStr = strings.TrimPrefix(h, "Bearer ")
		}
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		claims, err := auth.ValidateToken(jwtSecret, tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals(OwnerIDLocalKey, claims.UserID)
		c.Locals(UsernameLocalKey, claims.Username)
		return c.Next()
	}
}

// OwnerID returns the authenticated user's id from context locals, or the
// empty string when the request is unauthenticated.
func OwnerID(c *fiber.Ctx) string {
	if v, ok := c.Locals(OwnerIDLocalKey).(string); ok {
		return v
	}
	return ""
}
