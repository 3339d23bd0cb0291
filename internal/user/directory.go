package user

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Directory is the authoritative store of user records, keyed by email.
// Emails are compared exactly as given; no case folding is applied.
type Directory interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	// Create stores u as a new record. It returns ErrDuplicateEmail if the
	// email is taken.
	Create(ctx context.Context, u *User) (*User, error)
	// FindByEmail returns ErrNotFound if no record matches.
	FindByEmail(ctx context.Context, email string) (*User, error)
	// SetVerified marks the record verified and reports whether a record
	// matched. Calling it on an already verified record returns true.
	SetVerified(ctx context.Context, email string) (bool, error)
	// UpdatePassword returns ErrNotFound if no record matches.
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}
