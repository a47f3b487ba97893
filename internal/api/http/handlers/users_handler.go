package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soportesys/helpdesk/internal/api/dto"
	"github.com/soportesys/helpdesk/internal/auth"
	"github.com/soportesys/helpdesk/internal/service"
	apperrors "github.com/soportesys/helpdesk/pkg/util"
)

// UsersHandler manages account endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// List GET /users. Admin only.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	users, err := h.users.List(c.UserContext(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.UserProfile, 0, len(users))
	for i := range users {
		items = append(items, userProfile(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateMe PATCH /users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.UpdateProfile(c.UserContext(), principal, service.ProfileUpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userProfile(user)})
}
