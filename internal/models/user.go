package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Email         string         `gorm:"size:255;uniqueIndex" json:"email"`
	Name          string         `gorm:"size:100" json:"name"`
	CellNumber    string         `gorm:"size:20;index" json:"cell_number"`
	PasswordHash  string         `gorm:"size:255" json:"-"`
	Role          string         `gorm:"size:20;not null;default:'CUSTOMER'" json:"role"`
	GoogleID      *string        `gorm:"size:64;uniqueIndex" json:"-"`
	AlipayAccount string         `gorm:"size:100" json:"alipay_account"`
	ReferrerID    *uint          `gorm:"index" json:"referrer_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Wallet *Wallet `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
