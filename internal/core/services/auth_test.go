package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven/mocks"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driving"
)

func newAuthFixture(t *testing.T) (driving.AuthService, *mocks.MockUserStore) {
	t.Helper()

	users := mocks.NewMockUserStore()
	adapter := mocks.NewMockAuthAdapter()

	hash, _ := adapter.HashPassword("s3cret")
	if err := users.Save(context.Background(), &domain.User{
		ID:           "user-1",
		Email:        "dev@example.com",
		PasswordHash: hash,
		Name:         "Dev",
		Role:         domain.RoleMember,
		Active:       true,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	svc := NewAuthService(AuthConfig{
		UserStore: users,
		Auth:      adapter,
		TokenTTL:  time.Hour,
		Logger:    quietLogger(),
	})
	return svc, users
}

func TestAuthenticate(t *testing.T) {
	svc, users := newAuthFixture(t)

	resp, err := svc.Authenticate(context.Background(), domain.LoginRequest{
		Email:    "dev@example.com",
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if resp.Token == "" || resp.UserID != "user-1" {
		t.Errorf("response = %+v", resp)
	}
	if !resp.ExpiresAt.After(time.Now()) {
		t.Error("token already expired")
	}

	user, _ := users.Get(context.Background(), "user-1")
	if user.LastLoginAt == nil {
		t.Error("last login not recorded")
	}
}

func TestAuthenticateRejects(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.LoginRequest
	}{
		{"wrong password", domain.LoginRequest{Email: "dev@example.com", Password: "wrong"}},
		{"unknown email", domain.LoginRequest{Email: "ghost@example.com", Password: "s3cret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Authenticate(ctx, tt.req); !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Errorf("error = %v, want ErrInvalidCredentials", err)
			}
		})
	}

	t.Run("inactive user", func(t *testing.T) {
		user, _ := users.Get(ctx, "user-1")
		user.Active = false
		if err := users.Save(ctx, user); err != nil {
			t.Fatalf("deactivate user: %v", err)
		}
		if _, err := svc.Authenticate(ctx, domain.LoginRequest{
			Email:    "dev@example.com",
			Password: "s3cret",
		}); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestValidateToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Authenticate(ctx, domain.LoginRequest{
		Email:    "dev@example.com",
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	auth, err := svc.ValidateToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if auth.UserID != "user-1" || auth.Email != "dev@example.com" || auth.Role != domain.RoleMember {
		t.Errorf("auth context = %+v", auth)
	}

	if _, err := svc.ValidateToken(ctx, "garbage"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}
