package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticatedEvent rejects any payload whose provider
	// signature does not verify, including payloads that fail to parse.
	ErrUnauthenticatedEvent = errors.New("unauthenticated_event")

	// ErrEventIgnored marks provider event types this system does not
	// react to; they are acknowledged, never failed.
	ErrEventIgnored = errors.New("event_ignored")

	// ErrEventAlreadyProcessed marks a redelivered, fully confirmed
	// payment intent.
	ErrEventAlreadyProcessed = errors.New("event_already_processed")

	ErrInvalidEvent = errors.New("invalid_event")
)

// CertificateGenerationError wraps a certificate generator failure
// after the payment was already committed.
type CertificateGenerationError struct {
	PolicyID string
	Err      error
}

func (e *CertificateGenerationError) Error() string {
	return fmt.Sprintf("policy %s: certificate generation failed: %v", e.PolicyID, e.Err)
}

func (e *CertificateGenerationError) Unwrap() error { return e.Err }

// SubscriptionValidationEmailError wraps a failure to build or send the
// subscription confirmation email.
type SubscriptionValidationEmailError struct {
	PolicyID string
	Err      error
}

func (e *SubscriptionValidationEmailError) Error() string {
	return fmt.Sprintf("policy %s: subscription confirmation email failed: %v", e.PolicyID, e.Err)
}

func (e *SubscriptionValidationEmailError) Unwrap() error { return e.Err }
