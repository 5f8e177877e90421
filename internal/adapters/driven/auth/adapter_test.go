package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

func testAdapter() *Adapter {
	// MinCost keeps the bcrypt rounds cheap for tests
	return NewAdapterWithCost("test-secret", bcrypt.MinCost)
}

func testClaims() *domain.TokenClaims {
	now := time.Now()
	return &domain.TokenClaims{
		UserID:    "user-1",
		Email:     "dev@example.com",
		Role:      domain.RoleMember,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	adapter := testAdapter()

	hash, err := adapter.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash should not equal the plaintext password")
	}

	if !adapter.VerifyPassword("s3cret", hash) {
		t.Error("expected correct password to verify")
	}
	if adapter.VerifyPassword("wrong", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	adapter := testAdapter()
	claims := testClaims()

	token, err := adapter.GenerateToken(claims)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	parsed, err := adapter.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if parsed.UserID != claims.UserID {
		t.Errorf("UserID = %q, want %q", parsed.UserID, claims.UserID)
	}
	if parsed.Email != claims.Email {
		t.Errorf("Email = %q, want %q", parsed.Email, claims.Email)
	}
	if parsed.Role != domain.RoleMember {
		t.Errorf("Role = %q, want %q", parsed.Role, domain.RoleMember)
	}
	if parsed.ExpiresAt != claims.ExpiresAt {
		t.Errorf("ExpiresAt = %d, want %d", parsed.ExpiresAt, claims.ExpiresAt)
	}
}

func TestParseExpiredToken(t *testing.T) {
	adapter := testAdapter()
	claims := testClaims()
	claims.IssuedAt = time.Now().Add(-2 * time.Hour).Unix()
	claims.ExpiresAt = time.Now().Add(-time.Hour).Unix()

	token, err := adapter.GenerateToken(claims)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := adapter.ParseToken(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseInvalidToken(t *testing.T) {
	adapter := testAdapter()

	if _, err := adapter.ParseToken("not-a-token"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	other := NewAdapterWithCost("other-secret", bcrypt.MinCost)
	token, err := other.GenerateToken(testClaims())
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := testAdapter().ParseToken(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for wrong secret, got %v", err)
	}
}

func TestParseTamperedToken(t *testing.T) {
	adapter := testAdapter()
	token, err := adapter.GenerateToken(testClaims())
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + ".AAAA"

	if _, err := adapter.ParseToken(tampered); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for tampered signature, got %v", err)
	}
}
