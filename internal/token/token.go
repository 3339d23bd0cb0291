// Package token issues and decodes signed, expiring tokens that bind an
// identity (the user's email) to a purpose.
//
// Decode never enforces expiry. Callers compare Claims.ExpiresAt against their
// own clock through Claims.Expired so that an expired token and a forged or
// malformed one stay distinguishable.
package token

import (
	"errors"
	"time"
)

// ErrInvalid is returned by Decode for every failure: bad signature, bad
// structure, unexpected algorithm, missing claims.
var ErrInvalid = errors.New("invalid token")

// Purpose records why a token was issued. A token is only accepted by the
// flow that matches its purpose.
type Purpose string

const (
	PurposeSession            Purpose = "session"
	PurposeSignupVerification Purpose = "signup_verification"
	PurposeForgotPassword     Purpose = "forgot_password"
)

// Valid reports whether p is one of the known purposes.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeSession, PurposeSignupVerification, PurposeForgotPassword:
		return true
	}
	return false
}

// Claims is the decoded content of a token.
type Claims struct {
	Identity  string
	Purpose   Purpose
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now. A token
// checked exactly at ExpiresAt is still valid.
func (c *Claims) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ExpiryFor returns the expiry stamped on a token issued at now with ttl.
// Both encodings carry whole seconds, so the expiry is rounded up to keep the
// token valid for at least ttl.
func ExpiryFor(now time.Time, ttl time.Duration) time.Time {
	exp := now.Add(ttl)
	if t := exp.Truncate(time.Second); !t.Equal(exp) {
		exp = t.Add(time.Second)
	}
	return exp
}

// Codec issues and decodes tokens. Implementations are safe for concurrent use.
type Codec interface {
	Issue(identity string, purpose Purpose, ttl time.Duration) (string, error)
	Decode(token string) (*Claims, error)
}

type options struct {
	now func() time.Time
}

// Option configures a codec.
type Option func(*options)

// WithClock overrides the clock used to stamp issued-at and expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
