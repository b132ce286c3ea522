package auth

import (
	"context"
	"errors"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type UserRepository interface {
	// Insert persists a new user. Returns ErrEmailTaken when the email is
	// already registered (unique constraint).
	Insert(ctx context.Context, email, passwordHash string) (*User, error)
	// FindByEmail returns the user and its password hash, or ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*User, string, error)
}
