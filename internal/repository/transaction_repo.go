package repository

import (
	"github.com/sahidursuman/flex-commerce/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository writes and reads ledger rows. Rows are append-only;
// there is deliberately no update or delete here.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(t *models.Transaction) error {
	return r.db.Create(t).Error
}

// ExistsForOriginable reports whether a ledger row was already written for
// the fund source, the guard that keeps callback replays from double-logging.
func (r *TransactionRepository) ExistsForOriginable(originableType string, originableID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.Transaction{}).
		Where("originable_type = ? AND originable_id = ?", originableType, originableID).
		Count(&n).Error
	return n > 0, err
}

// ListForWallet returns the most recent ledger rows the wallet took part in,
// as actor or as fund source.
func (r *TransactionRepository) ListForWallet(walletID uint, limit int) ([]models.Transaction, error) {
	var rows []models.Transaction
	q := r.db.Where(
		"(processable_type = ? AND processable_id = ?) OR (originable_type = ? AND originable_id = ?)",
		models.ActorWallet, walletID, models.OriginWallet, walletID,
	).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}
