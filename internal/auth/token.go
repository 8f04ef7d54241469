package auth

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HashToken returns the SHA-256 hex digest of a bearer token. Raw tokens are
// never used as cache keys or logged.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

// safePrefix returns a loggable fingerprint of a token.
func safePrefix(token string) string {
	return HashToken(token)[:12]
}

// IssueOptions configures IssueToken.
type IssueOptions struct {
	Email    string
	Role     string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// IssueToken signs an HS256 access token for subject. It is used by the
// tokengen CLI and tests; production tokens come from the identity provider.
func IssueToken(secret []byte, subject string, opts IssueOptions) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("empty signing secret")
	}
	ttl := opts.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := Claims{
		Email: opts.Email,
		Role:  opts.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    opts.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if opts.Audience != "" {
		claims.Audience = jwt.ClaimStrings{opts.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseDuration parses a duration string like "30d", "24h" or "15m".
func ParseDuration(s string) (time.Duration, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("empty duration")
	}
	last := s[len(s)-1]
	if last == 'd' {
		var days int
		_, err := fmt.Sscanf(s, "%dd", &days)
		if err != nil {
			return 0, fmt.Errorf("parse days: %w", err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
