package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rohanmhetar/nivaasa-backend/internal/dto"
	"github.com/rohanmhetar/nivaasa-backend/internal/middleware"
	"github.com/rohanmhetar/nivaasa-backend/internal/services"
	"github.com/rohanmhetar/nivaasa-backend/internal/validation"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile handles GET /users/profile. The password hash never serializes
// (json:"-" on the model).
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(user)
}

// UpdateProfile handles PUT /users/profile. Only name, email and aadhaar
// are updatable; subject id, phone and role are immutable here.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if fieldErrs := validation.Struct(&req); fieldErrs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{
			Error: true, Message: "Validation failed", Errors: fieldErrs,
		})
	}

	updated, err := h.userService.Update(user.ID, &services.UserUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Aadhaar: req.Aadhaar,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update profile",
		})
	}

	return c.JSON(updated)
}

// ListUsers handles GET /admin/users with cursor pagination.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	startAfter := uuid.Nil
	if s := c.Query("startAfter"); s != "" {
		parsed, err := uuid.Parse(s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid startAfter cursor",
			})
		}
		startAfter = parsed
	}

	users, err := h.userService.FindAll(limit, startAfter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list users",
		})
	}

	return c.JSON(fiber.Map{"users": users, "count": len(users)})
}
