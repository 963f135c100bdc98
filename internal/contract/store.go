package contract

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists signed contracts.
type Store interface {
	GetSignedContract(ctx context.Context, fileName string) (*SignedContract, error)
	SaveSignedContract(ctx context.Context, contract *SignedContract) error
}

type StoreParams struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type store struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStore(p StoreParams) Store {
	return &store{
		db:  p.DB,
		log: p.Log.Named("contract.store"),
	}
}

func (s *store) GetSignedContract(ctx context.Context, fileName string) (*SignedContract, error) {
	var contract SignedContract
	err := s.db.WithContext(ctx).Where("file_name = ?", fileName).First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSignedContractNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// SaveSignedContract upserts by file name; a redelivered
// documents-downloadable event overwrites with identical content.
func (s *store) SaveSignedContract(ctx context.Context, contract *SignedContract) error {
	now := time.Now().UTC()
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = now
	}
	contract.UpdatedAt = now

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "content_type", "updated_at"}),
		}).
		Create(contract).Error
}
