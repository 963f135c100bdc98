package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/covline/covline/internal/config"
	"github.com/covline/covline/internal/payment/domain"
)

const (
	liveSecret = "whsec_live"
	testSecret = "whsec_test"
)

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator(config.PaymentWebhookConfig{
		LiveSecret:       liveSecret,
		TestSecret:       testSecret,
		DemoPartnerCodes: []string{"demo-partner"},
	})
}

func buildEvent(eventType, partnerCode string, created int64) []byte {
	event := map[string]any{
		"id":      "evt_1",
		"type":    eventType,
		"created": created,
		"data": map[string]any{
			"object": map[string]any{
				"id":                   "pi_1",
				"amount":               12900,
				"amount_received":      12900,
				"currency":             "eur",
				"created":              created,
				"payment_method_types": []string{"card"},
				"metadata": map[string]any{
					"policy_id":    "pol_42",
					"partner_code": partnerCode,
				},
			},
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		panic(err)
	}
	return payload
}

func buildSignatureHeader(secret string, payload []byte, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestAuthenticateSucceededEvent(t *testing.T) {
	auth := newTestAuthenticator()
	created := time.Now().UTC().Unix()
	payload := buildEvent("payment_intent.succeeded", "acme", created)
	header := buildSignatureHeader(liveSecret, payload, created)

	cmd, err := auth.Authenticate(context.Background(), payload, header)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if cmd.PolicyID != "pol_42" {
		t.Fatalf("expected policy pol_42, got %s", cmd.PolicyID)
	}
	if cmd.ExternalID != "pi_1" {
		t.Fatalf("expected external id pi_1, got %s", cmd.ExternalID)
	}
	if cmd.Amount != 12900 {
		t.Fatalf("expected amount 12900, got %d", cmd.Amount)
	}
	if cmd.Currency != "EUR" {
		t.Fatalf("expected currency EUR, got %s", cmd.Currency)
	}
	if cmd.Instrument != "card" {
		t.Fatalf("expected instrument card, got %s", cmd.Instrument)
	}
	if cmd.OccurredAt.Unix() != created {
		t.Fatalf("expected occurred at %d, got %d", created, cmd.OccurredAt.Unix())
	}
}

func TestAuthenticateSecretSelection(t *testing.T) {
	auth := newTestAuthenticator()
	created := time.Now().UTC().Unix()

	payload := buildEvent("payment_intent.succeeded", "demo-partner", created)
	header := buildSignatureHeader(testSecret, payload, created)
	if _, err := auth.Authenticate(context.Background(), payload, header); err != nil {
		t.Fatalf("expected test secret to verify for demo partner, got %v", err)
	}

	header = buildSignatureHeader(liveSecret, payload, created)
	if _, err := auth.Authenticate(context.Background(), payload, header); !errors.Is(err, domain.ErrUnauthenticatedEvent) {
		t.Fatalf("expected unauthenticated for live secret on demo partner, got %v", err)
	}

	payload = buildEvent("payment_intent.succeeded", "acme", created)
	header = buildSignatureHeader(testSecret, payload, created)
	if _, err := auth.Authenticate(context.Background(), payload, header); !errors.Is(err, domain.ErrUnauthenticatedEvent) {
		t.Fatalf("expected unauthenticated for test secret on live partner, got %v", err)
	}
}

func TestAuthenticateRejectsTampering(t *testing.T) {
	auth := newTestAuthenticator()
	created := time.Now().UTC().Unix()
	payload := buildEvent("payment_intent.succeeded", "acme", created)
	header := buildSignatureHeader(liveSecret, payload, created)

	tampered := buildEvent("payment_intent.succeeded", "acme", created+1)
	if _, err := auth.Authenticate(context.Background(), tampered, header); !errors.Is(err, domain.ErrUnauthenticatedEvent) {
		t.Fatalf("expected unauthenticated for tampered payload, got %v", err)
	}

	if _, err := auth.Authenticate(context.Background(), payload, ""); !errors.Is(err, domain.ErrUnauthenticatedEvent) {
		t.Fatalf("expected unauthenticated for missing header, got %v", err)
	}

	if _, err := auth.Authenticate(context.Background(), payload, "t=,v1="); !errors.Is(err, domain.ErrUnauthenticatedEvent) {
		t.Fatalf("expected unauthenticated for empty header parts, got %v", err)
	}

	if _, err := auth.Authenticate(context.Background(), []byte("not json"), header); !errors.Is(err, domain.ErrUnauthenticatedEvent) {
		t.Fatalf("expected unauthenticated for unparseable payload, got %v", err)
	}
}

func TestAuthenticateIgnoredEventTypes(t *testing.T) {
	auth := newTestAuthenticator()
	created := time.Now().UTC().Unix()

	for _, eventType := range []string{"payment_intent.payment_failed", "charge.succeeded", "setup_intent.created"} {
		payload := buildEvent(eventType, "acme", created)
		header := buildSignatureHeader(liveSecret, payload, created)
		if _, err := auth.Authenticate(context.Background(), payload, header); !errors.Is(err, domain.ErrEventIgnored) {
			t.Fatalf("expected event %s ignored, got %v", eventType, err)
		}
	}
}

func TestAuthenticateMissingPolicyID(t *testing.T) {
	auth := newTestAuthenticator()
	created := time.Now().UTC().Unix()
	event := map[string]any{
		"id":      "evt_1",
		"type":    "payment_intent.succeeded",
		"created": created,
		"data": map[string]any{
			"object": map[string]any{
				"id":       "pi_1",
				"amount":   12900,
				"currency": "eur",
				"metadata": map[string]any{"partner_code": "acme"},
			},
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	header := buildSignatureHeader(liveSecret, payload, created)
	if _, err := auth.Authenticate(context.Background(), payload, header); !errors.Is(err, domain.ErrInvalidEvent) {
		t.Fatalf("expected invalid event, got %v", err)
	}
}
