package models

import (
	"time"
)

// Transaction is an append-only ledger row written once per fund movement.
// Originable is the fund source (typically a Payment), Transactable the
// business context (typically an Order), Processable the wallet actor when
// the wallet moved the money. Rows are never updated or deleted.
type Transaction struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	AmountCents      int64     `gorm:"not null" json:"amount_cents"`
	OriginableType   string    `gorm:"size:30;not null;index:idx_transactions_originable" json:"originable_type"`
	OriginableID     uint      `gorm:"not null;index:idx_transactions_originable" json:"originable_id"`
	TransactableType string    `gorm:"size:30;index:idx_transactions_transactable" json:"transactable_type"`
	TransactableID   uint      `gorm:"index:idx_transactions_transactable" json:"transactable_id"`
	ProcessableType  string    `gorm:"size:30;index:idx_transactions_processable" json:"processable_type"`
	ProcessableID    uint      `gorm:"index:idx_transactions_processable" json:"processable_id"`
	Note             string    `gorm:"size:255" json:"note"`
	CreatedAt        time.Time `json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Polymorphic type names used in ledger rows.
const (
	OriginPayment  = "Payment"
	OriginTransfer = "Transfer"
	OriginWallet   = "Wallet"
	ContextOrder   = "Order"
	ActorWallet    = "Wallet"
)
