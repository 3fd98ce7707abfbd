package repository

import (
	"errors"

	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/models"

	"gorm.io/gorm"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) GetOrCreateForUser(userID uint) (*models.Cart, error) {
	var c models.Cart
	err := r.db.Where("user_id = ?", userID).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c = models.Cart{UserID: &userID}
	if err := r.db.Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartRepository) GetWithInventories(id uint) (*models.Cart, error) {
	var c models.Cart
	err := r.db.Preload("Inventories", "status = ?", domain.InventoryInCart).
		Preload("Inventories.Product").
		First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AddInventory reserves an inventory unit into the cart.
func (r *CartRepository) AddInventory(cartID uint, inv *models.Inventory) error {
	inv.CartID = &cartID
	inv.Status = domain.InventoryInCart
	return r.db.Save(inv).Error
}

// RemoveInventory releases a unit back to stock.
func (r *CartRepository) RemoveInventory(cartID, inventoryID uint) error {
	return r.db.Model(&models.Inventory{}).
		Where("id = ? AND cart_id = ?", inventoryID, cartID).
		Updates(map[string]interface{}{
			"cart_id": nil,
			"user_id": nil,
			"status":  domain.InventoryUnsold,
		}).Error
}
