package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/af-corp/debug-relay/internal/config"
)

// Claims are the identity provider's access-token claims.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator verifies tokens locally with the provider's signing key.
type JWTValidator struct {
	key    any
	parser *jwt.Parser
}

// NewJWTValidator builds a validator from either a shared HMAC secret or a PEM
// encoded RSA, ECDSA or Ed25519 public key.
func NewJWTValidator(cfg config.AuthConfig) (*JWTValidator, error) {
	key, defaultAlgs, err := loadVerificationKey(cfg)
	if err != nil {
		return nil, err
	}

	algs := cfg.Algorithms
	if len(algs) == 0 {
		algs = defaultAlgs
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(algs),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTValidator{key: key, parser: jwt.NewParser(opts...)}, nil
}

func loadVerificationKey(cfg config.AuthConfig) (any, []string, error) {
	pemData := []byte(cfg.PublicKeyPEM)
	if len(pemData) == 0 && cfg.PublicKeyFile != "" {
		data, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("read public key file: %w", err)
		}
		pemData = data
	}

	if len(pemData) == 0 {
		if cfg.JWTSecret == "" {
			return nil, nil, errors.New("no jwt secret or public key configured")
		}
		return []byte(cfg.JWTSecret), []string{"HS256"}, nil
	}

	if key, err := jwt.ParseRSAPublicKeyFromPEM(pemData); err == nil {
		return key, []string{"RS256"}, nil
	}
	if key, err := jwt.ParseECPublicKeyFromPEM(pemData); err == nil {
		return key, []string{"ES256"}, nil
	}
	if key, err := jwt.ParseEdPublicKeyFromPEM(pemData); err == nil {
		return key, []string{"EdDSA"}, nil
	}
	return nil, nil, errors.New("public key is not a PEM encoded RSA, EC or Ed25519 key")
}

func (v *JWTValidator) keyFunc(_ *jwt.Token) (any, error) {
	return v.key, nil
}

func (v *JWTValidator) Validate(_ context.Context, token string) (*Principal, error) {
	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(token, claims, v.keyFunc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	p := &Principal{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}
