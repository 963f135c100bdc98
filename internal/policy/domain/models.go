// Package domain contains persistence models for policies and quotes.
package domain

import "time"

// PolicyStatus represents lifecycle states for a policy.
type PolicyStatus string

const (
	PolicyStatusCreated    PolicyStatus = "CREATED"
	PolicyStatusSigned     PolicyStatus = "SIGNED"
	PolicyStatusApplicable PolicyStatus = "APPLICABLE"
	PolicyStatusCancelled  PolicyStatus = "CANCELLED"
)

// Policy is a subscribed insurance policy. Status only moves through
// the lifecycle service; nothing else writes these columns.
type Policy struct {
	ID               string       `gorm:"primaryKey"`
	PartnerCode      string       `gorm:"type:text;not null;index"`
	Status           PolicyStatus `gorm:"type:text;not null"`
	HolderEmail      string       `gorm:"type:text;not null"`
	HolderFirstname  string       `gorm:"type:text"`
	HolderLastname   string       `gorm:"type:text"`
	RiskAddress      string       `gorm:"type:text"`
	PremiumAmount    int64        `gorm:"not null;default:0"`
	Currency         string       `gorm:"type:text;not null;default:EUR"`
	TermStartDate    *time.Time   `gorm:""`
	TermEndDate      *time.Time   `gorm:""`
	EmailValidatedAt *time.Time   `gorm:""`
	SignatureDate    *time.Time   `gorm:""`
	PaymentDate      *time.Time   `gorm:""`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Policy) TableName() string { return "policies" }

// Quote is a not-yet-subscribed draft; only its email-validation field
// participates in the flows here.
type Quote struct {
	ID               string     `gorm:"primaryKey"`
	PartnerCode      string     `gorm:"type:text;not null;index"`
	HolderEmail      string     `gorm:"type:text;not null"`
	EmailValidatedAt *time.Time `gorm:""`
	CreatedAt        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Quote) TableName() string { return "quotes" }
