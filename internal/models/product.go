package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"size:255;not null;index" json:"name"`
	TagLine          string         `gorm:"size:255" json:"tag_line"`
	Description      string         `gorm:"type:text" json:"description"`
	PriceMemberCents int64          `gorm:"not null;default:0" json:"price_member_cents"`
	PriceRewardCents int64          `gorm:"not null;default:0" json:"price_reward_cents"`
	WeightGrams      int64          `gorm:"not null;default:0" json:"weight_grams"`
	ImageURL         string         `gorm:"size:512" json:"image_url"`
	CategoryID       *uint          `gorm:"index" json:"category_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
