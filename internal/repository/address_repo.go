package repository

import (
	"github.com/sahidursuman/flex-commerce/internal/models"

	"gorm.io/gorm"
)

type AddressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) Create(a *models.Address) error {
	return r.db.Create(a).Error
}

func (r *AddressRepository) GetByID(id uint) (*models.Address, error) {
	var a models.Address
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AddressRepository) ListByUser(userID uint) ([]models.Address, error) {
	var addrs []models.Address
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&addrs).Error
	return addrs, err
}

func (r *AddressRepository) Update(a *models.Address) error {
	return r.db.Save(a).Error
}

func (r *AddressRepository) Delete(id, userID uint) error {
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{}).Error
}
