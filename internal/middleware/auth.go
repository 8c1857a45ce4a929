package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront-promo/internal/utils"
)

const adminContextKey = "adminSubject"

// AuthMiddleware validates admin bearer tokens and stores the subject in
// the request locals.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		subject, err := utils.ParseToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(adminContextKey, subject)
		return c.Next()
	}
}

// GetAdminSubject returns the authenticated admin, if any.
func GetAdminSubject(c *fiber.Ctx) (string, bool) {
	subject, ok := c.Locals(adminContextKey).(string)
	return subject, ok && subject != ""
}

// DebugOnly hides a route outside development mode.
func DebugOnly(debug bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !debug {
			return fiber.ErrNotFound
		}
		return c.Next()
	}
}
