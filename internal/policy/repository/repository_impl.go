package repository

import (
	"context"
	"errors"
	"time"

	"github.com/covline/covline/internal/policy/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindPolicy(ctx context.Context, db *gorm.DB, id string) (*domain.Policy, error) {
	var policy domain.Policy
	err := db.WithContext(ctx).Where("id = ?", id).First(&policy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *repo) FindQuote(ctx context.Context, db *gorm.DB, id string) (*domain.Quote, error) {
	var quote domain.Quote
	err := db.WithContext(ctx).Where("id = ?", id).First(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repo) TransitionPolicy(ctx context.Context, db *gorm.DB, id string, from, to domain.PolicyStatus, set map[string]any) (bool, error) {
	values := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for column, value := range set {
		values[column] = value
	}

	res := db.WithContext(ctx).
		Model(&domain.Policy{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) SetPolicyEmailValidated(ctx context.Context, db *gorm.DB, id string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE policies
		 SET email_validated_at = ?, updated_at = ?
		 WHERE id = ? AND email_validated_at IS NULL`,
		at, time.Now().UTC(), id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) SetQuoteEmailValidated(ctx context.Context, db *gorm.DB, id string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE quotes
		 SET email_validated_at = ?, updated_at = ?
		 WHERE id = ? AND email_validated_at IS NULL`,
		at, time.Now().UTC(), id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
