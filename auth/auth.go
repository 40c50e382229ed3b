// Package auth abstracts the identity provider the API layer delegates
// registration and login to.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Token is the result of a successful sign-in.
type Token struct {
	UID          string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// Provider creates accounts and issues tokens. Profile documents are the
// API layer's concern, not the provider's.
type Provider interface {
	CreateUser(ctx context.Context, email, password string) (uid string, err error)
	SignIn(ctx context.Context, email, password string) (*Token, error)
}
