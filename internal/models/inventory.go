package models

import (
	"time"

	"github.com/sahidursuman/flex-commerce/internal/domain"
)

// Inventory is a single sellable unit of a product. It moves through the
// cart into an order and records its purchase price when the order confirms.
type Inventory struct {
	ID                 uint                   `gorm:"primaryKey" json:"id"`
	ProductID          uint                   `gorm:"not null;index" json:"product_id"`
	UserID             *uint                  `gorm:"index" json:"user_id"`
	CartID             *uint                  `gorm:"index" json:"cart_id"`
	OrderID            *uint                  `gorm:"index" json:"order_id"`
	ShippingMethodID   *uint                  `gorm:"index" json:"shipping_method_id"`
	Status             domain.InventoryStatus `gorm:"not null;default:0;index" json:"status"`
	PurchasePriceCents int64                  `gorm:"not null;default:0" json:"purchase_price_cents"`
	PurchaseWeight     int64                  `gorm:"not null;default:0" json:"purchase_weight"`
	PurchasedAt        *time.Time             `json:"purchased_at"`
	ReturnedAt         *time.Time             `json:"returned_at"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}

func (Inventory) TableName() string {
	return "inventories"
}
