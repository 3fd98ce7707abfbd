package repository

import (
	"errors"

	"github.com/sahidursuman/flex-commerce/internal/models"

	"gorm.io/gorm"
)

var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// WalletRepository persists wallet mutations. Every mutation is a single
// guarded UPDATE with the sufficiency check in the WHERE clause, so a
// concurrent writer can never apply a stale in-memory balance.
type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetOrCreate(userID uint) (*models.Wallet, error) {
	w, err := r.GetByUserID(userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = &models.Wallet{UserID: userID}
	if err := r.db.Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

func (r *WalletRepository) Credit(userID uint, amountCents int64) error {
	if amountCents <= 0 {
		return errors.New("credit amount must be positive")
	}
	res := r.db.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Update("balance_cents", gorm.Expr("balance_cents + ?", amountCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ConditionalCredit adds funds that stay reserved until released: balance
// and pending both grow, leaving the available fund unchanged.
func (r *WalletRepository) ConditionalCredit(userID uint, amountCents int64) error {
	if amountCents <= 0 {
		return errors.New("credit amount must be positive")
	}
	res := r.db.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"balance_cents": gorm.Expr("balance_cents + ?", amountCents),
			"pending_cents": gorm.Expr("pending_cents + ?", amountCents),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Debit removes amountCents from the balance. The available-fund guard is
// part of the UPDATE itself; under concurrent debits at most the wallet's
// available fund can leave, no matter what any caller read earlier.
func (r *WalletRepository) Debit(userID uint, amountCents int64) error {
	if amountCents < 0 {
		return errors.New("debit amount must not be negative")
	}
	if amountCents == 0 {
		return nil
	}
	res := r.db.Model(&models.Wallet{}).
		Where("user_id = ? AND balance_cents - pending_cents >= ?", userID, amountCents).
		Update("balance_cents", gorm.Expr("balance_cents - ?", amountCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// ReleasePending turns conditional funds into spendable balance.
func (r *WalletRepository) ReleasePending(userID uint, amountCents int64) error {
	if amountCents <= 0 {
		return errors.New("release amount must be positive")
	}
	res := r.db.Model(&models.Wallet{}).
		Where("user_id = ? AND pending_cents >= ?", userID, amountCents).
		Update("pending_cents", gorm.Expr("pending_cents - ?", amountCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("release exceeds pending funds")
	}
	return nil
}
