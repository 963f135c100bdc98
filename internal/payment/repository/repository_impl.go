package repository

import (
	"context"
	"time"

	"github.com/covline/covline/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertConfirmation(ctx context.Context, db *gorm.DB, rec *domain.ConfirmationRecord) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO payment_confirmations (
			external_id, policy_id, last_step, received_at, completed_at
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO NOTHING`,
		rec.ExternalID,
		rec.PolicyID,
		rec.LastStep,
		rec.ReceivedAt,
		rec.CompletedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindConfirmation(ctx context.Context, db *gorm.DB, externalID string) (*domain.ConfirmationRecord, error) {
	var item domain.ConfirmationRecord
	err := db.WithContext(ctx).Raw(
		`SELECT external_id, policy_id, last_step, received_at, completed_at
		 FROM payment_confirmations
		 WHERE external_id = ?
		 LIMIT 1`,
		externalID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ExternalID == "" {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) SetConfirmationStep(ctx context.Context, db *gorm.DB, externalID string, step int) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_confirmations
		 SET last_step = ?
		 WHERE external_id = ? AND last_step < ?`,
		step,
		externalID,
		step,
	).Error
}

func (r *repo) CompleteConfirmation(ctx context.Context, db *gorm.DB, externalID string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_confirmations
		 SET completed_at = ?
		 WHERE external_id = ? AND completed_at IS NULL`,
		at,
		externalID,
	).Error
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, policy_id, amount, currency, processor, instrument,
			external_id, status, payed_at, cancelled_at, raw_payload, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO NOTHING`,
		payment.ID,
		payment.PolicyID,
		payment.Amount,
		payment.Currency,
		payment.Processor,
		payment.Instrument,
		payment.ExternalID,
		payment.Status,
		payment.PayedAt,
		payment.CancelledAt,
		payment.RawPayload,
		payment.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
