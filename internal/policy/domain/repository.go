package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository exposes status-preconditioned writes so idempotency is
// enforced by the database, not by in-process locks.
type Repository interface {
	FindPolicy(ctx context.Context, db *gorm.DB, id string) (*Policy, error)
	FindQuote(ctx context.Context, db *gorm.DB, id string) (*Quote, error)

	// TransitionPolicy updates status from -> to and applies the given
	// column values in the same statement. Returns true when a row was
	// updated, false when the precondition did not hold.
	TransitionPolicy(ctx context.Context, db *gorm.DB, id string, from, to PolicyStatus, set map[string]any) (bool, error)

	// SetPolicyEmailValidated stamps email_validated_at only when the
	// column is still NULL. Returns true when a row was updated.
	SetPolicyEmailValidated(ctx context.Context, db *gorm.DB, id string, at time.Time) (bool, error)

	SetQuoteEmailValidated(ctx context.Context, db *gorm.DB, id string, at time.Time) (bool, error)
}
