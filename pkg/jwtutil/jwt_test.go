package jwtutil

import (
	"testing"

	"shophub/pkg/config"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 168})

	token, err := GenerateToken(42, "shopper@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("user_id = %d, want 42", claims.UserID)
	}
	if claims.Email != "shopper@example.com" {
		t.Errorf("email = %q, want shopper@example.com", claims.Email)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Error("token missing expiry or issued-at claim")
	}
}

func TestValidateTokenRejectsMalformed(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-key"})

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ValidateToken(tok); err == nil {
			t.Errorf("ValidateToken(%q) succeeded, want error", tok)
		}
	}
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "first-key"})
	token, err := GenerateToken(7, "shopper@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	Initialize(&config.JWTConfig{SigningKey: "second-key"})
	if _, err := ValidateToken(token); err == nil {
		t.Error("token signed with a different key validated, want error")
	}
}
