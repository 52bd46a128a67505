package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rohanmhetar/nivaasa-backend/internal/dto"
	"github.com/rohanmhetar/nivaasa-backend/internal/models"
	"github.com/rohanmhetar/nivaasa-backend/internal/services"
)

const currentUserKey = "currentUser"

// Protected extracts the bearer token, resolves it to a local user record
// and attaches the user to the request context. Single attempt, no caching:
// every request re-verifies.
func Protected(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Not authorized, no token provided",
			})
		}

		token := strings.TrimPrefix(header, "Bearer ")
		user, err := authService.ResolveToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Not authorized, token verification failed",
			})
		}

		c.Locals(currentUserKey, user)
		return c.Next()
	}
}

// OptionalAuth resolves the bearer token when one is present but lets the
// request through either way. Used where an operator header is an
// alternative credential.
func OptionalAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimPrefix(header, "Bearer ")
			if user, err := authService.ResolveToken(c.UserContext(), token); err == nil {
				c.Locals(currentUserKey, user)
			}
		}
		return c.Next()
	}
}

// CurrentUser returns the user attached by Protected, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}
