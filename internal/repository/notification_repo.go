package repository

import (
	"github.com/sahidursuman/flex-commerce/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

// CreateOnce writes the notification unless one with the same user, kind and
// order already exists. Callback replays go through here so the customer is
// told about a settlement exactly once.
func (r *NotificationRepository) CreateOnce(n *models.Notification) error {
	return r.db.Where("user_id = ? AND kind = ? AND order_id = ?", n.UserID, n.Kind, n.OrderID).
		FirstOrCreate(n).Error
}

func (r *NotificationRepository) ListByUser(userID uint, limit int) ([]models.Notification, error) {
	var notifs []models.Notification
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&notifs).Error
	return notifs, err
}

func (r *NotificationRepository) MarkRead(id, userID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true).Error
}
