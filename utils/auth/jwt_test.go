package auth

import (
	"testing"
	"time"
)

func testManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret-not-for-production",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "test-issuer",
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := testManager()

	token, jti, err := manager.GenerateAccessToken(42, "student@example.com", "student", 3)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if jti == "" {
		t.Fatal("expected a non-empty jti")
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "student@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != "student" {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.TokenType != "access" {
		t.Errorf("TokenType = %q, want access", claims.TokenType)
	}
	if claims.TokenVersion != 3 {
		t.Errorf("TokenVersion = %d, want 3", claims.TokenVersion)
	}
	if claims.ID != jti {
		t.Errorf("claims.ID = %q, want jti %q", claims.ID, jti)
	}
	if claims.Issuer != "test-issuer" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
}

func TestRefreshTokenType(t *testing.T) {
	manager := testManager()

	token, _, err := manager.GenerateRefreshToken(7, "user@example.com", "instructor", 0)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("TokenType = %q, want refresh", claims.TokenType)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _, err := testManager().GenerateAccessToken(1, "a@b.com", "student", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	other := NewJWTManager(JWTConfig{
		Secret: "a-different-secret",
		Expiry: time.Hour,
	})
	if _, err := other.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	manager := NewJWTManager(JWTConfig{
		Secret: "test-secret-not-for-production",
		Expiry: -time.Minute,
	})

	token, _, err := manager.GenerateAccessToken(1, "a@b.com", "student", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := manager.ValidateToken(token); err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	if _, err := testManager().ValidateToken("not.a.token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJTIsAreUnique(t *testing.T) {
	manager := testManager()

	_, first, err := manager.GenerateAccessToken(1, "a@b.com", "student", 0)
	if err != nil {
		t.Fatal(err)
	}
	_, second, err := manager.GenerateAccessToken(1, "a@b.com", "student", 0)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two tokens issued with the same jti")
	}
}
