package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidToken is returned when the identity provider rejects a token.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrMissingSubject is returned when a token validates but names no user.
	ErrMissingSubject = errors.New("token has no subject")
)

// Validator resolves a bearer token to a Principal.
type Validator interface {
	Validate(ctx context.Context, token string) (*Principal, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, token string) (*Principal, error)

func (f ValidatorFunc) Validate(ctx context.Context, token string) (*Principal, error) {
	return f(ctx, token)
}
