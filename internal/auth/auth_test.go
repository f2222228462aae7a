package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"merlin/internal/config"
)

func testConfig(expiration time.Duration) *config.JWTConfig {
	return &config.JWTConfig{
		Secret:     "test-secret",
		Expiration: expiration,
	}
}

func TestHashPassword(t *testing.T) {
	svc := NewService(testConfig(24 * time.Hour))

	password := "testpassword123"
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if hash == "" {
		t.Error("Hash should not be empty")
	}

	if hash == password {
		t.Error("Hash should not equal the original password")
	}
}

func TestVerifyPassword(t *testing.T) {
	svc := NewService(testConfig(24 * time.Hour))

	password := "testpassword123"
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if err := svc.VerifyPassword(hash, password); err != nil {
		t.Errorf("Should verify correct password, got error: %v", err)
	}

	if err := svc.VerifyPassword(hash, "wrongpassword"); err == nil {
		t.Error("Should not verify incorrect password")
	}
}

func TestGenerateToken(t *testing.T) {
	svc := NewService(testConfig(24 * time.Hour))

	userID := uuid.New()
	email := "test@example.com"

	token, _, err := svc.GenerateToken(userID, email)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if token == "" {
		t.Error("Token should not be empty")
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewService(testConfig(24 * time.Hour))

	userID := uuid.New()
	email := "test@example.com"

	token, _, err := svc.GenerateToken(userID, email)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, claims.UserID)
	}

	if claims.Email != email {
		t.Errorf("Expected email %s, got %s", email, claims.Email)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewService(testConfig(-1 * time.Hour))

	token, _, err := svc.GenerateToken(uuid.New(), "test@example.com")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("Should reject expired token")
	}
}
