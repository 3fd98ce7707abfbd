package models

import (
	"time"

	"github.com/sahidursuman/flex-commerce/internal/domain"
)

// Order aggregates inventories through the checkout pipeline. SubtotalCents
// and ShippingCostCents are locked in when the order is confirmed.
type Order struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	Number            string             `gorm:"size:64;uniqueIndex;not null" json:"number"`
	UserID            uint               `gorm:"not null;index" json:"user_id"`
	Status            domain.OrderStatus `gorm:"not null;default:0;index" json:"status"`
	SubtotalCents     int64              `gorm:"not null;default:0" json:"subtotal_cents"`
	ShippingCostCents int64              `gorm:"not null;default:0" json:"shipping_cost_cents"`
	AddressID         *uint              `gorm:"index" json:"address_id"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`

	User        User        `gorm:"foreignKey:UserID" json:"-"`
	Address     *Address    `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Inventories []Inventory `gorm:"foreignKey:OrderID" json:"inventories,omitempty"`
	Payments    []Payment   `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// TotalCents is the amount the customer owes for the whole order.
func (o *Order) TotalCents() int64 {
	return o.SubtotalCents + o.ShippingCostCents
}
