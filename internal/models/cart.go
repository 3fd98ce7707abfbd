package models

import (
	"time"
)

type Cart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Inventories []Inventory `gorm:"foreignKey:CartID" json:"inventories"`
}

func (Cart) TableName() string {
	return "carts"
}
