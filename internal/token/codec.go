package token

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/covline/covline/internal/clock"
)

var (
	// ErrBadToken is returned when a token decrypts but its payload is
	// malformed or inconsistent.
	ErrBadToken = errors.New("bad_token")
	// ErrTokenExpired is returned when a well-formed token is past its
	// expiry date.
	ErrTokenExpired = errors.New("token_expired")
)

// Payload is the content carried inside an encrypted validation token.
// Exactly one of PolicyID/QuoteID is set. The token itself is the only
// state; nothing is persisted server-side at issuance.
type Payload struct {
	Email       string    `json:"email"`
	CallbackURL string    `json:"callback_url"`
	PolicyID    string    `json:"policy_id,omitempty"`
	QuoteID     string    `json:"quote_id,omitempty"`
	ExpiredAt   time.Time `json:"expired_at"`
}

func (p Payload) consistent() bool {
	return (p.PolicyID != "") != (p.QuoteID != "")
}

// Codec serializes validation-token payloads to and from opaque
// encrypted strings.
type Codec struct {
	cipher *Cipher
	clock  clock.Clock
}

func NewCodec(cipher *Cipher, clk clock.Clock) *Codec {
	return &Codec{cipher: cipher, clock: clk}
}

// Encode serializes and encrypts the payload.
func (c *Codec) Encode(payload Payload) (string, error) {
	if !payload.consistent() {
		return "", ErrBadToken
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return c.cipher.Encrypt(string(raw)), nil
}

// Decode decrypts and parses a token, then validates it: exactly one of
// policy_id/quote_id must be set, and the expiry date must be in the
// future. Cryptographic failures propagate as ErrBadDecrypt.
func (c *Codec) Decode(token string) (Payload, error) {
	plain, err := c.cipher.Decrypt(token)
	if err != nil {
		return Payload{}, err
	}

	var payload Payload
	if err := json.Unmarshal([]byte(plain), &payload); err != nil {
		return Payload{}, ErrBadToken
	}
	if !payload.consistent() {
		return Payload{}, ErrBadToken
	}
	if payload.ExpiredAt.Before(c.clock.Now()) {
		return Payload{}, ErrTokenExpired
	}
	return payload, nil
}
