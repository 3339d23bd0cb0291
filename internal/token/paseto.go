package token

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

const purposeClaim = "purpose"

// PasetoCodec issues PASETO v4.local tokens (XChaCha20 + BLAKE2b-MAC). It is
// used for session tokens.
type PasetoCodec struct {
	symmetricKey paseto.V4SymmetricKey
	parser       paseto.Parser
	now          func() time.Time
}

func NewPasetoCodec(symmetricKey []byte, opts ...Option) (*PasetoCodec, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	o := buildOptions(opts)
	return &PasetoCodec{
		symmetricKey: key,
		parser:       paseto.NewParserWithoutExpiryCheck(),
		now:          o.now,
	}, nil
}

func (c *PasetoCodec) Issue(identity string, purpose Purpose, ttl time.Duration) (string, error) {
	if identity == "" {
		return "", errors.New("identity is required")
	}
	if !purpose.Valid() {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}

	now := c.now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(ExpiryFor(now, ttl))
	token.SetSubject(identity)
	token.SetString(purposeClaim, string(purpose))

	return token.V4Encrypt(c.symmetricKey, nil), nil
}

func (c *PasetoCodec) Decode(tokenStr string) (*Claims, error) {
	token, err := c.parser.ParseV4Local(c.symmetricKey, tokenStr, nil)
	if err != nil {
		return nil, ErrInvalid
	}

	identity, err := token.GetSubject()
	if err != nil || identity == "" {
		return nil, ErrInvalid
	}

	purpose, err := token.GetString(purposeClaim)
	if err != nil || !Purpose(purpose).Valid() {
		return nil, ErrInvalid
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalid
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalid
	}

	return &Claims{
		Identity:  identity,
		Purpose:   Purpose(purpose),
		IssuedAt:  issuedAt.UTC(),
		ExpiresAt: expiresAt.UTC(),
	}, nil
}
