package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrWalletProtected is returned whenever a wallet delete is attempted.
var ErrWalletProtected = errors.New("user wallet cannot be removed once created")

// Wallet holds a customer's funds in cents. PendingCents is reserved or
// in-flight money; only BalanceCents - PendingCents is spendable.
type Wallet struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	BalanceCents int64     `gorm:"not null;default:0" json:"balance_cents"`
	PendingCents int64     `gorm:"not null;default:0" json:"pending_cents"`
	Currency     string    `gorm:"size:3;default:'CNY'" json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// BeforeDelete rejects every delete. A wallet lives as long as its user.
func (w *Wallet) BeforeDelete(tx *gorm.DB) error {
	return ErrWalletProtected
}

// AvailableFund is the spendable amount: balance minus reserved funds.
func (w *Wallet) AvailableFund() int64 {
	return w.BalanceCents - w.PendingCents
}

// SufficientFund reports whether the wallet can cover amountCents.
func (w *Wallet) SufficientFund(amountCents int64) bool {
	return w.AvailableFund() >= amountCents
}

// Credit adds amountCents to the balance. Non-positive amounts are rejected.
func (w *Wallet) Credit(amountCents int64) bool {
	if amountCents <= 0 {
		return false
	}
	w.BalanceCents += amountCents
	return true
}

// ConditionalCredit adds funds that are not yet withdrawable: balance and
// pending both grow, so the available fund is unchanged until released.
func (w *Wallet) ConditionalCredit(amountCents int64) bool {
	if amountCents <= 0 {
		return false
	}
	w.BalanceCents += amountCents
	w.PendingCents += amountCents
	return true
}

// Debit removes amountCents from the balance. Fails on negative amounts or
// when the available fund cannot cover the debit.
func (w *Wallet) Debit(amountCents int64) bool {
	if amountCents < 0 || !w.SufficientFund(amountCents) {
		return false
	}
	w.BalanceCents -= amountCents
	return true
}

// ReleasePending makes previously conditional funds spendable.
func (w *Wallet) ReleasePending(amountCents int64) bool {
	if amountCents <= 0 || amountCents > w.PendingCents {
		return false
	}
	w.PendingCents -= amountCents
	return true
}
