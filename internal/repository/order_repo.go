package repository

import (
	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetWithInventories(id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Inventories").Preload("Inventories.Product").Preload("Address").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByUser(userID uint, limit int) ([]models.Order, error) {
	var orders []models.Order
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) UpdateStatus(id uint, status domain.OrderStatus) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *OrderRepository) Update(o *models.Order) error {
	return r.db.Save(o).Error
}

// TotalPaidCents sums confirmed-class charge payments against the order.
func (r *OrderRepository) TotalPaidCents(orderID uint) (int64, error) {
	var paid int64
	err := r.db.Model(&models.Payment{}).
		Where("order_id = ? AND variety = ? AND status >= ?",
			orderID, domain.VarietyCharge, domain.PaymentClientSideConfirmed).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&paid).Error
	return paid, err
}

// AmountUnpaidCents is the order total minus confirmed charges.
func (r *OrderRepository) AmountUnpaidCents(o *models.Order) (int64, error) {
	paid, err := r.TotalPaidCents(o.ID)
	if err != nil {
		return 0, err
	}
	return o.TotalCents() - paid, nil
}

// CountByStatus groups orders for the admin dashboard.
func (r *OrderRepository) CountByStatus() (map[domain.OrderStatus]int64, error) {
	type row struct {
		Status domain.OrderStatus
		N      int64
	}
	var rows []row
	err := r.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.OrderStatus]int64, len(rows))
	for _, rw := range rows {
		out[rw.Status] = rw.N
	}
	return out, nil
}
