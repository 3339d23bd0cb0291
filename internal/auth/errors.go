package auth

import (
	"errors"
	"fmt"

	"github.com/redmonkez12/eventhub-auth/internal/user"
)

// Flow outcomes. Every error returned by Service matches exactly one of these
// with errors.Is.
var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrEmailNotFound      = errors.New("email not found")
	ErrWrongPassword      = errors.New("wrong password")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrVerificationFailed = errors.New("can't verify email")
	ErrInternal           = errors.New("internal failure")
)

// Input validation.
var (
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password is too short")
)

// internalError wraps an unexpected collaborator failure so it matches
// ErrInternal while keeping the cause for logs.
func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

var kinds = []struct {
	err  error
	kind string
}{
	{ErrEmailAlreadyExists, "email_already_exists"},
	{user.ErrDuplicateEmail, "email_already_exists"},
	{ErrEmailNotFound, "email_not_found"},
	{ErrWrongPassword, "wrong_password"},
	{ErrEmailNotVerified, "email_not_verified"},
	{ErrInvalidToken, "invalid_token"},
	{ErrTokenExpired, "token_expired"},
	{ErrVerificationFailed, "verification_failed"},
	{ErrEmailRequired, "invalid_input"},
	{ErrInvalidEmailFormat, "invalid_input"},
	{ErrPasswordRequired, "invalid_input"},
	{ErrPasswordTooShort, "invalid_input"},
}

// Kind returns a stable, low-cardinality name for err: "success" for nil,
// "internal" for anything outside the taxonomy.
func Kind(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, ErrInternal) {
		return "internal"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
