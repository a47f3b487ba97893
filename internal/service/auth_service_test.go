package service

import (
	"context"
	"testing"

	"github.com/soportesys/helpdesk/internal/auth"
	"github.com/soportesys/helpdesk/internal/config"
	"github.com/soportesys/helpdesk/internal/domain"
)

func testAuthConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	newFixture := func() (*AuthService, *fakeUserRepo) {
		hash, err := auth.HashPassword("correct-horse", 4)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		repo := newFakeUserRepo(
			&domain.User{ID: "u-1", Username: "alice", Email: "alice@example.com",
				PasswordHash: hash, Role: domain.RoleClient, IsActive: true},
			&domain.User{ID: "u-2", Username: "bob", Email: "bob@example.com",
				PasswordHash: hash, Role: domain.RoleClient, IsActive: false},
		)
		return NewAuthService(testAuthConfig(), repo), repo
	}

	t.Run("by email", func(t *testing.T) {
		svc, _ := newFixture()
		user, token, _, err := svc.Login(ctx, "alice@example.com", "correct-horse")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if user.ID != "u-1" || token == "" {
			t.Fatalf("login result wrong: %v %q", user, token)
		}
	})

	t.Run("by username", func(t *testing.T) {
		svc, _ := newFixture()
		if _, _, _, err := svc.Login(ctx, "alice", "correct-horse"); err != nil {
			t.Fatalf("login: %v", err)
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		svc, _ := newFixture()
		_, _, _, err := svc.Login(ctx, "alice", "wrong")
		assertDomainError(t, err, "UNAUTHENTICATED")
	})

	t.Run("unknown identifier rejected", func(t *testing.T) {
		svc, _ := newFixture()
		_, _, _, err := svc.Login(ctx, "nobody", "correct-horse")
		assertDomainError(t, err, "UNAUTHENTICATED")
	})

	t.Run("inactive user rejected", func(t *testing.T) {
		svc, _ := newFixture()
		_, _, _, err := svc.Login(ctx, "bob", "correct-horse")
		assertDomainError(t, err, "UNAUTHENTICATED")
	})

	t.Run("token subject resolves back to the user", func(t *testing.T) {
		svc, _ := newFixture()
		_, token, _, err := svc.Login(ctx, "alice", "correct-horse")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		claims, err := svc.TokenManager().ParseToken(token)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if claims.Subject != "u-1" {
			t.Fatalf("subject wrong: %+v", claims)
		}
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	newFixture := func() (*AuthService, *fakeUserRepo) {
		repo := newFakeUserRepo(&domain.User{
			ID: "u-1", Username: "alice", Email: "alice@example.com",
			Role: domain.RoleClient, IsActive: true,
		})
		return NewAuthService(testAuthConfig(), repo), repo
	}

	t.Run("creates an active client account", func(t *testing.T) {
		svc, repo := newFixture()
		user, token, _, err := svc.Register(ctx, "dave", "dave@example.com", "long-enough-pass")
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if user.Role != domain.RoleClient || !user.IsActive {
			t.Fatalf("new account wrong: %+v", user)
		}
		if token == "" {
			t.Fatal("no token issued")
		}
		if _, err := repo.GetByEmailOrUsername(ctx, "dave"); err != nil {
			t.Fatalf("account not persisted: %v", err)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		svc, _ := newFixture()
		_, _, _, err := svc.Register(ctx, "dave", "alice@example.com", "long-enough-pass")
		assertDomainError(t, err, "CONFLICT")
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		svc, _ := newFixture()
		_, _, _, err := svc.Register(ctx, "alice", "dave@example.com", "long-enough-pass")
		assertDomainError(t, err, "CONFLICT")
	})
}
