package service

import (
	"strings"

	"github.com/sahidursuman/flex-commerce/internal/models"

	"gorm.io/gorm"
)

// ProductSearchService matches the query against product names and tag
// lines, term by term.
type ProductSearchService struct {
	db *gorm.DB
}

func NewProductSearchService(db *gorm.DB) *ProductSearchService {
	return &ProductSearchService{db: db}
}

func (s *ProductSearchService) QuickSearch(query string) ([]models.Product, error) {
	var products []models.Product
	err := s.scope(query).Order("updated_at DESC").Find(&products).Error
	return products, err
}

func (s *ProductSearchService) SearchInCategory(query string, categoryID uint) ([]models.Product, error) {
	var products []models.Product
	err := s.scope(query).Where("category_id = ?", categoryID).
		Order("updated_at DESC").Find(&products).Error
	return products, err
}

func (s *ProductSearchService) scope(query string) *gorm.DB {
	q := s.db.Model(&models.Product{})
	for _, term := range strings.Fields(query) {
		like := "%" + term + "%"
		q = q.Where("name LIKE ? OR tag_line LIKE ?", like, like)
	}
	return q
}
