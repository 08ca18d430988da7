package middleware

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photovault/internal/auth"
)

func TestAuth(t *testing.T) {
	const secret = "middleware-secret"

	app := fiber.New()
	app.Use(Auth(secret))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(OwnerID(c) + ":" + c.Locals(UsernameLocalKey).(string))
	})

	token, err := auth.GenerateToken(secret, "user-1", "alice", time.Minute)
	require.NoError(t, err)

	t.Run("should accept a bearer token and expose identity", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, "user-1:alice", buf.String())
	})

	t.Run("should accept a token query parameter", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test?token="+token, nil)

		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("should reject a missing token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)

		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		forged, err := auth.GenerateToken("other-secret", "user-1", "alice", time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+forged)

		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
