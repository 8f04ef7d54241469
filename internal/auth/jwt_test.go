package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/af-corp/debug-relay/internal/config"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func TestJWTValidator_ValidHS256(t *testing.T) {
	v, err := NewJWTValidator(config.AuthConfig{JWTSecret: testSecret})
	if err != nil {
		t.Fatalf("NewJWTValidator: %v", err)
	}

	token, err := IssueToken([]byte(testSecret), "user-123", IssueOptions{Email: "a@b.c", Role: "authenticated", TTL: time.Hour})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	p, err := v.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.UserID != "user-123" {
		t.Errorf("expected user-123, got %s", p.UserID)
	}
	if p.Role != "authenticated" {
		t.Errorf("expected role authenticated, got %s", p.Role)
	}
	if p.ExpiresAt.IsZero() {
		t.Error("expected ExpiresAt to be set")
	}
}

func TestJWTValidator_WrongSecret(t *testing.T) {
	v, _ := NewJWTValidator(config.AuthConfig{JWTSecret: testSecret})
	token, _ := IssueToken([]byte("another-secret"), "user-1", IssueOptions{})

	_, err := v.Validate(context.Background(), token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTValidator_Expired(t *testing.T) {
	v, _ := NewJWTValidator(config.AuthConfig{JWTSecret: testSecret})
	token, _ := IssueToken([]byte(testSecret), "user-1", IssueOptions{TTL: -time.Hour})

	_, err := v.Validate(context.Background(), token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestJWTValidator_MissingSubject(t *testing.T) {
	v, _ := NewJWTValidator(config.AuthConfig{JWTSecret: testSecret})
	token, _ := IssueToken([]byte(testSecret), "", IssueOptions{})

	_, err := v.Validate(context.Background(), token)
	if !errors.Is(err, ErrMissingSubject) {
		t.Errorf("expected ErrMissingSubject, got %v", err)
	}
}

func TestJWTValidator_NoExpiry(t *testing.T) {
	v, _ := NewJWTValidator(config.AuthConfig{JWTSecret: testSecret})
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).SignedString([]byte(testSecret))

	_, err := v.Validate(context.Background(), token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for token without exp, got %v", err)
	}
}

func TestJWTValidator_IssuerAndAudience(t *testing.T) {
	v, _ := NewJWTValidator(config.AuthConfig{
		JWTSecret: testSecret,
		Issuer:    "https://idp.example.com/auth/v1",
		Audience:  "authenticated",
	})

	good, _ := IssueToken([]byte(testSecret), "user-1", IssueOptions{Issuer: "https://idp.example.com/auth/v1", Audience: "authenticated"})
	if _, err := v.Validate(context.Background(), good); err != nil {
		t.Errorf("expected valid token, got %v", err)
	}

	wrongIss, _ := IssueToken([]byte(testSecret), "user-1", IssueOptions{Issuer: "https://evil.example.com", Audience: "authenticated"})
	if _, err := v.Validate(context.Background(), wrongIss); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}
}

func TestJWTValidator_RejectsAlgorithmSwitch(t *testing.T) {
	v, _ := NewJWTValidator(config.AuthConfig{JWTSecret: testSecret})
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	if _, err := v.Validate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected HS512 token to be rejected, got %v", err)
	}
}

func TestJWTValidator_ES256PublicKey(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	v, err := NewJWTValidator(config.AuthConfig{PublicKeyPEM: pemKey})
	if err != nil {
		t.Fatalf("NewJWTValidator: %v", err)
	}

	token, _ := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"sub": "user-ec",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(priv)

	p, err := v.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.UserID != "user-ec" {
		t.Errorf("expected user-ec, got %s", p.UserID)
	}
}

func TestNewJWTValidator_NoKey(t *testing.T) {
	if _, err := NewJWTValidator(config.AuthConfig{}); err == nil {
		t.Error("expected error without secret or public key")
	}
	if _, err := NewJWTValidator(config.AuthConfig{PublicKeyPEM: "not a pem"}); err == nil {
		t.Error("expected error for garbage public key")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
		hours   float64
	}{
		{"30d", false, 30 * 24},
		{"24h", false, 24},
		{"1h", false, 1},
		{"", true, 0},
	}

	for _, tt := range tests {
		dur, err := ParseDuration(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDuration(%q) should have errored", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if dur.Hours() != tt.hours {
			t.Errorf("ParseDuration(%q) = %v hours, want %v", tt.input, dur.Hours(), tt.hours)
		}
	}
}

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	if len(h) != 64 {
		t.Errorf("expected 64-char hash, got %d", len(h))
	}
	if h == HashToken("abd") {
		t.Error("different tokens should hash differently")
	}
	if len(safePrefix("abc")) != 12 {
		t.Error("safePrefix should be 12 chars")
	}
}
