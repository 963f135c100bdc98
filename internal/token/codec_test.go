package token

import (
	"errors"
	"testing"
	"time"

	"github.com/covline/covline/internal/clock"
)

func newTestCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()
	return NewCodec(newTestCipher(t), clock.NewFakeClock(now))
}

func TestCodecRoundTrip(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	codec := newTestCodec(t, now)

	payload := Payload{
		Email:       "holder@example.com",
		CallbackURL: "https://app.covline.com/fr/partner1/subscription?policy_id=APP463109486",
		PolicyID:    "APP463109486",
		ExpiredAt:   now.AddDate(0, 6, 0),
	}

	encoded, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.Email != payload.Email ||
		decoded.CallbackURL != payload.CallbackURL ||
		decoded.PolicyID != payload.PolicyID ||
		decoded.QuoteID != payload.QuoteID ||
		!decoded.ExpiredAt.Equal(payload.ExpiredAt) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, payload)
	}
}

func TestCodecQuotePayloadRoundTrip(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	codec := newTestCodec(t, now)

	payload := Payload{
		Email:       "prospect@example.com",
		CallbackURL: "https://partner.example.com/resume",
		QuoteID:     "QUO84913",
		ExpiredAt:   now.AddDate(0, 1, 0),
	}

	encoded, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.QuoteID != payload.QuoteID || decoded.PolicyID != "" {
		t.Fatalf("expected quote payload, got %+v", decoded)
	}
}

func TestCodecRejectsInconsistentPayload(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	codec := newTestCodec(t, now)
	cipher := newTestCipher(t)

	// Encode refuses to build an inconsistent token.
	if _, err := codec.Encode(Payload{Email: "a@b.c", ExpiredAt: now.AddDate(0, 1, 0)}); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken for neither id, got %v", err)
	}
	if _, err := codec.Encode(Payload{
		Email: "a@b.c", PolicyID: "APP1", QuoteID: "QUO1", ExpiredAt: now.AddDate(0, 1, 0),
	}); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken for both ids, got %v", err)
	}

	// Decode rejects inconsistent tokens forged at the cipher layer.
	both := cipher.Encrypt(`{"email":"a@b.c","policy_id":"APP1","quote_id":"QUO1","expired_at":"2099-01-01T00:00:00Z"}`)
	if _, err := codec.Decode(both); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken for both ids, got %v", err)
	}
	neither := cipher.Encrypt(`{"email":"a@b.c","expired_at":"2099-01-01T00:00:00Z"}`)
	if _, err := codec.Decode(neither); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken for neither id, got %v", err)
	}
	notJSON := cipher.Encrypt("not json")
	if _, err := codec.Decode(notJSON); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken for non-json payload, got %v", err)
	}
}

func TestCodecExpiry(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	codec := newTestCodec(t, now)

	expired, err := codec.Encode(Payload{
		Email:     "a@b.c",
		PolicyID:  "APP1",
		ExpiredAt: now.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := codec.Decode(expired); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	valid, err := codec.Encode(Payload{
		Email:     "a@b.c",
		PolicyID:  "APP1",
		ExpiredAt: now.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := codec.Decode(valid); err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
}

func TestCodecRejectsGarbageToken(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	codec := newTestCodec(t, now)

	if _, err := codec.Decode("definitely-not-a-token"); !errors.Is(err, ErrBadDecrypt) {
		t.Fatalf("expected ErrBadDecrypt, got %v", err)
	}
}
