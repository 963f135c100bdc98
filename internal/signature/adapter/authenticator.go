package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/covline/covline/internal/config"
	"github.com/covline/covline/internal/signature/domain"
)

// Authenticator verifies signature provider events against the shared
// HMAC key agreed with the provider.
type Authenticator struct {
	sharedKey []byte
}

func NewAuthenticator(cfg config.SignatureEventConfig) *Authenticator {
	return &Authenticator{sharedKey: []byte(cfg.SharedKey)}
}

type eventEnvelope struct {
	SignatureRequestID string             `json:"signature_request_id"`
	EventType          string             `json:"event_type"`
	PolicyID           string             `json:"policy_id"`
	ContractFileName   string             `json:"contract_file_name"`
	Validation         validationEnvelope `json:"validation"`
}

type validationEnvelope struct {
	Time string `json:"time"`
	Hash string `json:"hash"`
}

// Authenticate parses a provider delivery and checks its validation
// hash. Any failure, including an unparseable payload, surfaces as
// domain.ErrUnauthenticatedEvent.
func (a *Authenticator) Authenticate(ctx context.Context, payload []byte) (*domain.Event, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, domain.ErrUnauthenticatedEvent
	}

	event := &domain.Event{
		RequestID:        strings.TrimSpace(envelope.SignatureRequestID),
		Kind:             domain.KindOf(envelope.EventType),
		PolicyID:         strings.TrimSpace(envelope.PolicyID),
		ContractFileName: strings.TrimSpace(envelope.ContractFileName),
		Validation: domain.Validation{
			RawEventType: envelope.EventType,
			Time:         envelope.Validation.Time,
			Hash:         envelope.Validation.Hash,
		},
	}

	if !a.hashMatches(event.Validation) {
		return nil, domain.ErrUnauthenticatedEvent
	}
	return event, nil
}

// ValidateEvent re-checks an already-authenticated event before the
// orchestrator acts on it.
func (a *Authenticator) ValidateEvent(event *domain.Event) error {
	if event == nil {
		return domain.ErrSignatureEventValidation
	}
	if !a.hashMatches(event.Validation) {
		return domain.ErrSignatureEventValidation
	}
	return nil
}

func (a *Authenticator) hashMatches(v domain.Validation) bool {
	if v.Time == "" || v.Hash == "" {
		return false
	}
	mac := hmac.New(sha256.New, a.sharedKey)
	_, _ = mac.Write([]byte(v.Time + v.RawEventType))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(v.Hash), []byte(expected))
}
