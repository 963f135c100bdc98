package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrPolicyNotFound = errors.New("policy_not_found")
	ErrQuoteNotFound  = errors.New("quote_not_found")
)

// InvalidTransitionError reports a lifecycle move the state machine
// does not allow.
type InvalidTransitionError struct {
	PolicyID string
	From     PolicyStatus
	To       PolicyStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("policy %s: invalid transition %s -> %s", e.PolicyID, e.From, e.To)
}

// Service is the only sanctioned way to change policy and quote
// lifecycle fields. Transitions are idempotent against webhook
// redelivery: repeating an already-applied transition is a no-op.
type Service interface {
	GetPolicy(ctx context.Context, id string) (*Policy, error)
	GetQuote(ctx context.Context, id string) (*Quote, error)

	// MarkSigned moves a Created policy to Signed, stamping the
	// signature date. No-op when the policy is already Signed.
	MarkSigned(ctx context.Context, policyID string, at time.Time) error

	// MarkApplicable moves a Signed policy to Applicable, recording the
	// payment and signature dates atomically with the status change.
	// No-op when the policy is already Applicable.
	MarkApplicable(ctx context.Context, policyID string, paymentAt, signatureAt time.Time) error

	// Cancel moves any non-terminal policy to Cancelled.
	Cancel(ctx context.Context, policyID string, at time.Time) error

	// MarkPolicyEmailValidated sets email_validated_at when currently
	// unset; already-validated policies are left untouched.
	MarkPolicyEmailValidated(ctx context.Context, policyID string, at time.Time) error

	// MarkQuoteEmailValidated is the quote counterpart.
	MarkQuoteEmailValidated(ctx context.Context, quoteID string, at time.Time) error
}
