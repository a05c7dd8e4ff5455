package utils

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cret-password" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPasswordHash("s3cret-password", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("wrong-password", hash) {
		t.Error("wrong password accepted")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTConfig("test-secret", 60)

	token, err := GenerateJWTToken("user-123")
	if err != nil {
		t.Fatalf("GenerateJWTToken() error = %v", err)
	}
	claims, err := ParseJWTToken(token)
	if err != nil {
		t.Fatalf("ParseJWTToken() error = %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("userId = %q, want user-123", claims.UserID)
	}
	if !claims.ExpiresAt.After(time.Now()) {
		t.Error("token must expire in the future")
	}
}

func TestParseJWTTokenRejectsGarbage(t *testing.T) {
	SetJWTConfig("test-secret", 60)

	for _, bad := range []string{"", "not.a.token", "a.b.c"} {
		if _, err := ParseJWTToken(bad); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ParseJWTToken(%q) = %v, want ErrInvalidToken", bad, err)
		}
	}
}

func TestParseJWTTokenWrongSecret(t *testing.T) {
	SetJWTConfig("secret-one", 60)
	token, err := GenerateJWTToken("user-123")
	if err != nil {
		t.Fatalf("GenerateJWTToken() error = %v", err)
	}

	SetJWTConfig("secret-two", 60)
	if _, err := ParseJWTToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestGenerateRandomToken(t *testing.T) {
	a, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("GenerateRandomToken() error = %v", err)
	}
	b, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("GenerateRandomToken() error = %v", err)
	}
	if a == b {
		t.Error("two tokens must differ")
	}
	if strings.TrimSpace(a) == "" {
		t.Error("token must not be empty")
	}
}
