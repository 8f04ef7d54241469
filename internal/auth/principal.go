package auth

import (
	"context"
	"time"
)

type contextKey string

const principalContextKey contextKey = "debugrelay_principal"

// Principal is the identity extracted from a validated bearer token. UserID is
// the token subject; it is used for logging and attribution only.
type Principal struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok
}
