package models

import (
	"time"

	"gorm.io/gorm"
)

// Address belongs either to a user (address book) or to an order (the
// delivery address snapshot confirmed during checkout).
type Address struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        *uint          `gorm:"index" json:"user_id"`
	Recipient     string         `gorm:"size:100;not null" json:"recipient"`
	ContactNumber string         `gorm:"size:20;not null" json:"contact_number"`
	Province      string         `gorm:"size:50" json:"province"`
	City          string         `gorm:"size:50" json:"city"`
	District      string         `gorm:"size:50" json:"district"`
	Community     string         `gorm:"size:100;index" json:"community"`
	Street        string         `gorm:"size:255" json:"street"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Address) TableName() string {
	return "addresses"
}
