package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing-0123"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("ops", LevelAdmin, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "ops" {
		t.Errorf("Subject = %q, want ops", claims.Subject)
	}
	if claims.Level != LevelAdmin {
		t.Errorf("Level = %s, want ADMIN", claims.Level)
	}
	if claims.ID == "" {
		t.Error("JTI (ID) should not be empty")
	}
	if d := time.Until(claims.ExpiresAt.Time); d <= 0 || d > time.Hour {
		t.Errorf("expiry in %v, want within an hour", d)
	}
}

func TestGenerateToken_DefaultTTL(t *testing.T) {
	token, err := GenerateToken("ops", LevelDevice, testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if d := time.Until(claims.ExpiresAt.Time); d <= DefaultTokenTTL-time.Minute {
		t.Errorf("expiry in %v, want about %v", d, DefaultTokenTTL)
	}
}

func TestGenerateToken_InvalidLevel(t *testing.T) {
	if _, err := GenerateToken("ops", AccessLevel(7), testSecret, time.Hour); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("GenerateToken() error = %v, want ErrInvalidLevel", err)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	valid, err := GenerateToken("ops", LevelDevice, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("SignedString() error = %v", err)
		}
		return s
	}
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-valid-jwt"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("another-secret"), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ops", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		})},
		{"expired", sign(jwt.SigningMethodHS256, []byte(testSecret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ops", ExpiresAt: jwt.NewNumericDate(past)},
		})},
		{"no expiry", sign(jwt.SigningMethodHS256, []byte(testSecret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ops"},
		})},
		{"no subject", sign(jwt.SigningMethodHS256, []byte(testSecret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		})},
		{"wrong algorithm", sign(jwt.SigningMethodHS512, []byte(testSecret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ops", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		})},
		{"tampered", valid[:strings.LastIndex(valid, ".")] + ".AAAA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.token, testSecret); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
