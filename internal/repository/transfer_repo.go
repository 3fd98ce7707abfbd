package repository

import (
	"github.com/sahidursuman/flex-commerce/internal/models"

	"gorm.io/gorm"
)

type TransferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

func (r *TransferRepository) Create(t *models.Transfer) error {
	return r.db.Create(t).Error
}

func (r *TransferRepository) GetByReference(ref string) (*models.Transfer, error) {
	var t models.Transfer
	if err := r.db.Where("reference = ?", ref).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransferRepository) ListBySourceWallet(walletID uint, limit int) ([]models.Transfer, error) {
	var transfers []models.Transfer
	q := r.db.Where("fund_source_wallet = ?", walletID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&transfers).Error
	return transfers, err
}

func (r *TransferRepository) Update(t *models.Transfer) error {
	return r.db.Save(t).Error
}
