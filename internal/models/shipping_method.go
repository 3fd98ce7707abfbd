package models

import (
	"time"

	"gorm.io/gorm"
)

// Shipping method varieties.
const (
	ShippingDelivery   = "DELIVERY"
	ShippingSelfPickup = "SELF_PICKUP"
	ShippingNone       = "NO_SHIPPING"
)

type ShippingMethod struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Variety   string         `gorm:"size:20;not null;index" json:"variety"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Rates []ShippingRate `gorm:"foreignKey:ShippingMethodID" json:"rates,omitempty"`
}

func (ShippingMethod) TableName() string {
	return "shipping_methods"
}

// ShippingRate prices a delivery method for a geographic area: a flat
// initial rate plus an add-on per extra item.
type ShippingRate struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ShippingMethodID uint      `gorm:"not null;index" json:"shipping_method_id"`
	GeoCode          string    `gorm:"size:100;not null;index" json:"geo_code"`
	InitRateCents    int64     `gorm:"not null;default:0" json:"init_rate_cents"`
	AddOnRateCents   int64     `gorm:"not null;default:0" json:"add_on_rate_cents"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (ShippingRate) TableName() string {
	return "shipping_rates"
}
