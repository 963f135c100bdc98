package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertConfirmation claims an external intent for processing.
	// Returns false when a record for the external id already exists.
	InsertConfirmation(ctx context.Context, db *gorm.DB, rec *ConfirmationRecord) (bool, error)

	FindConfirmation(ctx context.Context, db *gorm.DB, externalID string) (*ConfirmationRecord, error)

	// SetConfirmationStep advances last_step; steps never move backwards.
	SetConfirmationStep(ctx context.Context, db *gorm.DB, externalID string, step int) error

	CompleteConfirmation(ctx context.Context, db *gorm.DB, externalID string, at time.Time) error

	// InsertPayment inserts idempotently on external_id. Returns false
	// when the payment row already exists.
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) (bool, error)
}
