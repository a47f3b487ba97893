package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/soportesys/helpdesk/internal/auth"
	"github.com/soportesys/helpdesk/internal/authz"
	"github.com/soportesys/helpdesk/internal/domain"
	"github.com/soportesys/helpdesk/internal/repository"
	apperrors "github.com/soportesys/helpdesk/pkg/util"
)

// UserService covers account listing and profile updates.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, bcryptCost int) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost}
}

// ProfileUpdateInput describes an own-profile change.
type ProfileUpdateInput struct {
	Username *string
	Email    *string
	Password *string
}

// List returns all accounts. Admin only.
func (s *UserService) List(ctx context.Context, principal *auth.Principal) ([]domain.User, error) {
	if !authz.Allows(authz.OpListUsers, principal.Role, authz.TicketFacts{}) {
		return nil, apperrors.NewForbidden("only administrators may list users")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}
	return users, nil
}

// UpdateProfile changes the caller's own username, email or password.
func (s *UserService) UpdateProfile(ctx context.Context, principal *auth.Principal, input ProfileUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": principal.ID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, apperrors.NewValidationError("username cannot be empty", nil)
		}
		user.Username = username
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" {
			return nil, apperrors.NewValidationError("email cannot be empty", nil)
		}
		user.Email = email
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": principal.ID})
		}
		return nil, apperrors.NewStoreFailure(err)
	}
	return user, nil
}
