package models

import (
	"time"

	"github.com/sahidursuman/flex-commerce/internal/domain"
)

// Transfer records a fund movement out of (or between) wallets, typically a
// customer withdrawal paid out through the external processor.
type Transfer struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	Reference        string           `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	FundSourceWallet uint             `gorm:"not null;index" json:"fund_source_wallet"`
	FundTargetWallet *uint            `gorm:"index" json:"fund_target_wallet"`
	Processor        domain.Processor `gorm:"not null" json:"processor"`
	AmountCents      int64            `gorm:"not null" json:"amount_cents"`
	Status           string           `gorm:"size:20;not null;index" json:"status"`
	ProcessorRef     string           `gorm:"size:128" json:"processor_ref"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	CompletedAt      *time.Time       `json:"completed_at"`
}

func (Transfer) TableName() string {
	return "transfers"
}
