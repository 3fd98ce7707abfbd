package repository

import (
	"github.com/sahidursuman/flex-commerce/internal/models"

	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(p *models.Product) error {
	return r.db.Create(p).Error
}

func (r *ProductRepository) GetByID(id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) List(limit, offset int) ([]models.Product, error) {
	var products []models.Product
	q := r.db.Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&products).Error
	return products, err
}

func (r *ProductRepository) ListByCategory(categoryID uint) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("category_id = ?", categoryID).Order("updated_at DESC").Find(&products).Error
	return products, err
}

func (r *ProductRepository) Update(p *models.Product) error {
	return r.db.Save(p).Error
}

func (r *ProductRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

// AvailableInventory returns an unsold inventory unit for the product, if any.
func (r *ProductRepository) AvailableInventory(productID uint) (*models.Inventory, error) {
	var inv models.Inventory
	err := r.db.Where("product_id = ? AND status = 0 AND cart_id IS NULL", productID).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
