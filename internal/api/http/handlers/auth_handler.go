package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soportesys/helpdesk/internal/api/dto"
	"github.com/soportesys/helpdesk/internal/domain"
	"github.com/soportesys/helpdesk/internal/service"
	apperrors "github.com/soportesys/helpdesk/pkg/util"
)

// AuthHandler manages login and registration.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
		return apperrors.NewValidationError("identifier and password required", nil)
	}

	user, token, expiresAt, err := h.auth.Login(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(user, token, expiresAt)})
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(strings.TrimSpace(req.Username)) < 3 {
		return apperrors.NewValidationError("username must be at least 3 characters", nil)
	}
	if !strings.Contains(req.Email, "@") {
		return apperrors.NewValidationError("email is not valid", nil)
	}
	if len(req.Password) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	user, token, expiresAt, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authResponse(user, token, expiresAt)})
}

func authResponse(user *domain.User, token string, expiresAt time.Time) dto.AuthResponse {
	return dto.AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        userProfile(user),
	}
}

func userProfile(user *domain.User) dto.UserProfile {
	return dto.UserProfile{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
