package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/covline/covline/internal/config"
	"github.com/covline/covline/internal/payment/domain"
)

// Authenticator verifies payment processor webhooks and turns them into
// confirmation commands. The processor signs the raw request body with a
// per-environment secret; demo partners are registered against the test
// environment, so the partner code carried in the event metadata decides
// which secret the signature is checked against.
type Authenticator struct {
	liveSecret   string
	testSecret   string
	demoPartners map[string]struct{}
}

func NewAuthenticator(cfg config.PaymentWebhookConfig) *Authenticator {
	demo := make(map[string]struct{}, len(cfg.DemoPartnerCodes))
	for _, code := range cfg.DemoPartnerCodes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		demo[code] = struct{}{}
	}
	return &Authenticator{
		liveSecret:   cfg.LiveSecret,
		testSecret:   cfg.TestSecret,
		demoPartners: demo,
	}
}

// Authenticate checks the webhook signature against the raw payload and
// parses the event. Any failure to establish authenticity, including an
// unparseable envelope, is reported as domain.ErrUnauthenticatedEvent.
// Authentic events with a type the service does not act on return
// domain.ErrEventIgnored.
func (a *Authenticator) Authenticate(ctx context.Context, payload []byte, sigHeader string) (*domain.ConfirmPaymentIntentCommand, error) {
	var event processorEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrUnauthenticatedEvent
	}

	var intent paymentIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return nil, domain.ErrUnauthenticatedEvent
	}

	partnerCode := readMetadataValue(intent.Metadata, "partner_code")
	if err := a.verify(payload, sigHeader, a.secretFor(partnerCode)); err != nil {
		return nil, err
	}

	switch strings.TrimSpace(event.Type) {
	case "payment_intent.succeeded":
		return buildCommand(event, intent)
	case "payment_intent.payment_failed":
		// Acknowledged so the processor stops redelivering; the policy
		// stays in its current state until a later succeeded event.
		return nil, domain.ErrEventIgnored
	default:
		return nil, domain.ErrEventIgnored
	}
}

func (a *Authenticator) secretFor(partnerCode string) string {
	if _, ok := a.demoPartners[partnerCode]; ok {
		return a.testSecret
	}
	return a.liveSecret
}

func (a *Authenticator) verify(payload []byte, sigHeader string, secret string) error {
	sigHeader = strings.TrimSpace(sigHeader)
	if sigHeader == "" {
		return domain.ErrUnauthenticatedEvent
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return domain.ErrUnauthenticatedEvent
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return domain.ErrUnauthenticatedEvent
}

func buildCommand(event processorEvent, intent paymentIntent) (*domain.ConfirmPaymentIntentCommand, error) {
	policyID := readMetadataValue(intent.Metadata, "policy_id")
	if policyID == "" {
		return nil, domain.ErrInvalidEvent
	}
	if strings.TrimSpace(intent.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	amount := intent.AmountReceived
	if amount <= 0 {
		amount = intent.Amount
	}

	instrument := ""
	if len(intent.PaymentMethodTypes) > 0 {
		instrument = strings.TrimSpace(intent.PaymentMethodTypes[0])
	}

	return &domain.ConfirmPaymentIntentCommand{
		PolicyID:         policyID,
		Amount:           amount,
		Currency:         strings.ToUpper(strings.TrimSpace(intent.Currency)),
		ExternalID:       intent.ID,
		Processor:        "stripe",
		Instrument:       instrument,
		OccurredAt:       occurredAt(intent.Created, event.Created),
		RawPaymentIntent: []byte(event.Data.Object),
	}, nil
}

type processorEvent struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Created int64              `json:"created"`
	Data    processorEventData `json:"data"`
}

type processorEventData struct {
	Object json.RawMessage `json:"object"`
}

type paymentIntent struct {
	ID                 string            `json:"id"`
	Amount             int64             `json:"amount"`
	AmountReceived     int64             `json:"amount_received"`
	Currency           string            `json:"currency"`
	Created            int64             `json:"created"`
	PaymentMethodTypes []string          `json:"payment_method_types"`
	Metadata           map[string]string `json:"metadata"`
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func occurredAt(primary int64, fallback int64) time.Time {
	value := primary
	if value == 0 {
		value = fallback
	}
	if value == 0 {
		return time.Now().UTC()
	}
	return time.Unix(value, 0).UTC()
}

func readMetadataValue(metadata map[string]string, key string) string {
	if metadata == nil {
		return ""
	}
	return strings.TrimSpace(metadata[key])
}
