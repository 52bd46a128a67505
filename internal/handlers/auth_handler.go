package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rohanmhetar/nivaasa-backend/internal/dto"
	"github.com/rohanmhetar/nivaasa-backend/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// PhoneAuth handles POST /auth/phone. The client completes the OTP flow
// with the identity provider and posts the resulting ID token; one endpoint
// serves both registration (201) and login (200).
func (h *AuthHandler) PhoneAuth(c *fiber.Ctx) error {
	var req dto.PhoneAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if req.IDToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "ID token is required",
		})
	}

	result, err := h.authService.RegisterOrLogin(c.UserContext(), req.IDToken, req.Name, req.Aadhaar, req.Email)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid or expired token. Please sign in again.",
			})
		}
		if errors.Is(err, services.ErrTokenIncomplete) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	status := fiber.StatusOK
	message := "Login successful"
	if result.IsNewUser {
		status = fiber.StatusCreated
		message = "Registration successful"
	}

	return c.Status(status).JSON(dto.PhoneAuthResponse{
		Success:   true,
		Message:   message,
		User:      result.User,
		IsNewUser: result.IsNewUser,
	})
}

// PasswordLogin handles POST /auth/login/password, the legacy credential
// path backed by locally issued sessions.
func (h *AuthHandler) PasswordLogin(c *fiber.Ctx) error {
	var req dto.PasswordLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if req.Phone == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Phone and password are required",
		})
	}

	pair, err := h.authService.PasswordLogin(req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         pair.User,
	})
}

// CheckAuthMethod handles POST /auth/check-auth-method.
func (h *AuthHandler) CheckAuthMethod(c *fiber.Ctx) error {
	var req dto.CheckAuthMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Phone number is required",
		})
	}

	method, err := h.authService.CheckAuthMethod(req.Phone)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(dto.CheckAuthMethodResponse{Success: true, AuthMethod: method})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	pair, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRefresh) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         pair.User,
	})
}
