package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	PaymentStatusValid     = "VALID"
	PaymentStatusCancelled = "CANCELLED"
)

// Payment is a confirmed payment, created exactly once per external
// payment intent. The unique index on external_id is the idempotency
// key against webhook redelivery.
type Payment struct {
	ID          snowflake.ID   `gorm:"primaryKey"`
	PolicyID    string         `gorm:"type:text;not null;index"`
	Amount      int64          `gorm:"not null"`
	Currency    string         `gorm:"type:text;not null"`
	Processor   string         `gorm:"type:text;not null"`
	Instrument  string         `gorm:"type:text;not null"`
	ExternalID  string         `gorm:"type:text;not null;uniqueIndex"`
	Status      string         `gorm:"type:text;not null"`
	PayedAt     time.Time      `gorm:"not null"`
	CancelledAt *time.Time     `gorm:""`
	RawPayload  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// Confirmation steps, in pipeline order. Only side-effecting steps are
// recorded; document generation and mail are re-run on resume because
// they are not observable as persisted state.
const (
	StepNone             = 0
	StepPolicyApplicable = 1
	StepPaymentRecorded  = 2
)

// ConfirmationRecord tracks how far a payment confirmation got for a
// given external intent, so a redelivered webhook resumes instead of
// redoing side effects.
type ConfirmationRecord struct {
	ExternalID  string     `gorm:"primaryKey"`
	PolicyID    string     `gorm:"type:text;not null;index"`
	LastStep    int        `gorm:"not null;default:0"`
	ReceivedAt  time.Time  `gorm:"not null"`
	CompletedAt *time.Time `gorm:""`
}

// TableName sets the database table name.
func (ConfirmationRecord) TableName() string { return "payment_confirmations" }

// ConfirmPaymentIntentCommand is the sanitized internal representation
// of a verified payment-succeeded webhook event.
type ConfirmPaymentIntentCommand struct {
	PolicyID         string
	Amount           int64
	Currency         string
	ExternalID       string
	Processor        string
	Instrument       string
	OccurredAt       time.Time
	RawPaymentIntent []byte
}
