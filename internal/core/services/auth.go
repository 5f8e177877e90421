package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

type authService struct {
	userStore driven.UserStore
	auth      driven.AuthAdapter
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// AuthConfig holds dependencies for the auth service.
type AuthConfig struct {
	UserStore driven.UserStore
	Auth      driven.AuthAdapter
	TokenTTL  time.Duration
	Logger    *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthConfig) driving.AuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &authService{
		userStore: cfg.UserStore,
		auth:      cfg.Auth,
		tokenTTL:  ttl,
		logger:    logger,
	}
}

// Authenticate validates credentials and issues a signed token.
// Invalid email and invalid password return the same error so the
// response does not reveal which one was wrong.
func (s *authService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.userStore.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, domain.ErrInvalidCredentials
	}
	if !s.auth.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	token, err := s.auth.GenerateToken(&domain.TokenClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	user.LastLoginAt = &now
	if err := s.userStore.Save(ctx, user); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	s.logger.Info("user authenticated", "user_id", user.ID, "email", user.Email)
	return &domain.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Email:     user.Email,
	}, nil
}

// ValidateToken checks a bearer token and returns the auth context.
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	claims, err := s.auth.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &domain.AuthContext{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
