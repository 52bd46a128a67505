package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rohanmhetar/nivaasa-backend/internal/config"
	"github.com/rohanmhetar/nivaasa-backend/internal/dto"
	"github.com/rohanmhetar/nivaasa-backend/internal/models"
)

// AdminRequired gates admin routes. Runs after Protected; either the
// X-Admin-Token header matches the configured operator token, or the
// resolved user's role is admin.
func AdminRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}

		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if user.Role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
