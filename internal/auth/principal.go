package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/soportesys/helpdesk/internal/domain"
	"github.com/soportesys/helpdesk/internal/repository"
	apperrors "github.com/soportesys/helpdesk/pkg/util"
)

const principalKey = "auth_principal"

// Principal is the authenticated caller, rebuilt from the user row on every
// request. It is immutable for the lifetime of the request.
type Principal struct {
	ID       string
	Username string
	Role     domain.Role
}

// Resolver validates bearer tokens and resolves principals. A signed claim
// is never trusted on its own: the subject is re-fetched so a deactivated or
// role-changed account loses access immediately, not at token expiry.
type Resolver struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewResolver constructs the resolver middleware.
func NewResolver(tokens *TokenManager, users repository.UserRepository) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *Resolver) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthenticated("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthenticated("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthenticated("invalid token")
	}

	principal, err := m.Resolve(c.UserContext(), claims.Subject)
	if err != nil {
		return err
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// Resolve re-fetches the subject and applies the current-record checks.
func (m *Resolver) Resolve(ctx context.Context, subjectID string) (*Principal, error) {
	user, err := m.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthenticated("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthenticated("user inactive")
	}
	if !user.Role.IsValid() {
		return nil, apperrors.NewUnauthenticated("invalid role")
	}
	return &Principal{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
