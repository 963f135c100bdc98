// Package contract stores signed contract documents and fetches them
// from the e-signature provider.
package contract

import (
	"errors"
	"fmt"
	"time"
)

var ErrSignedContractNotFound = errors.New("signed_contract_not_found")

// SignedContract is a signed policy contract document.
type SignedContract struct {
	FileName    string    `gorm:"primaryKey;column:file_name"`
	PolicyID    string    `gorm:"type:text;not null;index"`
	Content     []byte    `gorm:"type:bytea;not null"`
	ContentType string    `gorm:"type:text;not null;default:application/pdf"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SignedContract) TableName() string { return "signed_contracts" }

// FileNameForPolicy derives the canonical contract file name for a
// policy. Payment confirmation looks the signed contract up under this
// exact name, so the derivation must stay stable.
func FileNameForPolicy(policyID string) string {
	return fmt.Sprintf("Covline_Insurance_Contract_%s.pdf", policyID)
}
