package models

import (
	"time"

	"github.com/sahidursuman/flex-commerce/internal/domain"
)

// Payment is a single charge/refund/transfer/reward record. The processor
// request and the two response slots hold raw JSON payloads: the return slot
// is filled by the synchronous browser redirect, the notify slot by the
// asynchronous server-to-server callback. They are independent; either may
// arrive first, and both together upgrade the payment to its strongest
// terminal status.
type Payment struct {
	ID                      uint                 `gorm:"primaryKey" json:"id"`
	OrderID                 *uint                `gorm:"index" json:"order_id"`
	AmountCents             int64                `gorm:"not null;default:0" json:"amount_cents"`
	Processor               domain.Processor     `gorm:"not null;index" json:"processor"`
	Variety                 domain.Variety       `gorm:"not null;index" json:"variety"`
	Status                  domain.PaymentStatus `gorm:"not null;default:0;index" json:"status"`
	ProcessorRequest        string               `gorm:"type:text" json:"processor_request"`
	ProcessorResponseReturn string               `gorm:"type:text" json:"processor_response_return"`
	ProcessorResponseNotify string               `gorm:"type:text" json:"processor_response_notify"`
	CreatedAt               time.Time            `json:"created_at"`
	UpdatedAt               time.Time            `json:"updated_at"`

	Order *Order `gorm:"foreignKey:OrderID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
