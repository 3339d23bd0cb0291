package auth

import (
	"context"

	"github.com/redmonkez12/eventhub-auth/internal/token"
)

// Hasher is a one-way password hash. Verify must return false, never panic,
// for malformed hashes, and must compare in constant time.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// Dispatcher sends a token to destination for purpose. It must not block on
// delivery and reports no result; failures are its own concern.
type Dispatcher interface {
	Send(ctx context.Context, destination, tok string, purpose token.Purpose)
}
