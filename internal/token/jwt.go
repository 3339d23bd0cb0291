package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret NewJWTCodec accepts.
const MinSecretLength = 32

type jwtClaims struct {
	jwt.RegisteredClaims
	Purpose Purpose `json:"purpose"`
}

// JWTCodec signs tokens with HS256. It is used for the links sent by email.
type JWTCodec struct {
	secret []byte
	parser *jwt.Parser
	now    func() time.Time
}

func NewJWTCodec(secret []byte, opts ...Option) (*JWTCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}

	o := buildOptions(opts)
	key := make([]byte, len(secret))
	copy(key, secret)

	return &JWTCodec{
		secret: key,
		// Expiry is checked by the caller, so claim validation is off.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
		now: o.now,
	}, nil
}

func (c *JWTCodec) Issue(identity string, purpose Purpose, ttl time.Duration) (string, error) {
	if identity == "" {
		return "", errors.New("identity is required")
	}
	if !purpose.Valid() {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}

	now := c.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ExpiryFor(now, ttl)),
		},
		Purpose: purpose,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (c *JWTCodec) Decode(tokenStr string) (*Claims, error) {
	claims := &jwtClaims{}
	_, err := c.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, ErrInvalid
	}

	if claims.Subject == "" || claims.ExpiresAt == nil || !claims.Purpose.Valid() {
		return nil, ErrInvalid
	}

	out := &Claims{
		Identity:  claims.Subject,
		Purpose:   claims.Purpose,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}
