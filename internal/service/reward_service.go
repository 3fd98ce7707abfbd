package service

import (
	"log"

	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/models"
	"github.com/sahidursuman/flex-commerce/internal/repository"

	"gorm.io/gorm"
)

// RewardService distributes referral rewards once an order has fully
// settled. Failures here never touch the already-committed payment; callers
// treat distribution as best-effort.
type RewardService struct {
	db       *gorm.DB
	settings *repository.SettingRepository
	payments *PaymentService
}

func NewRewardService(db *gorm.DB, settings *repository.SettingRepository, payments *PaymentService) *RewardService {
	return &RewardService{db: db, settings: settings, payments: payments}
}

// Distribute credits the purchaser's referrer with a percentage of the order
// total as a non-withdrawable reward. Safe to call repeatedly for the same
// order: distribution happens at most once.
func (s *RewardService) Distribute(orderID uint) error {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		return err
	}
	if !order.Status.Rewardable() {
		return nil
	}

	var existing int64
	err := s.db.Model(&models.Payment{}).
		Where("order_id = ? AND variety = ?", orderID, domain.VarietyReward).
		Count(&existing).Error
	if err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	var user models.User
	if err := s.db.First(&user, order.UserID).Error; err != nil {
		return err
	}
	if user.ReferrerID == nil {
		return nil
	}

	percent := s.settings.GetInt(domain.SettingRewardPercent, 0)
	if percent <= 0 {
		return nil
	}
	amount := order.TotalCents() * int64(percent) / 100
	if amount <= 0 {
		return nil
	}

	variety := domain.VarietyReward
	withdrawable := false
	flow, err := s.payments.Resolve(PaymentParams{
		OrderID:      orderID,
		UserID:       *user.ReferrerID,
		AmountCents:  amount,
		Variety:      &variety,
		Withdrawable: &withdrawable,
	})
	if err != nil {
		return err
	}
	if err := flow.Create(); err != nil {
		return err
	}
	log.Printf("[reward] order %d: %d cents to referrer %d", orderID, amount, *user.ReferrerID)
	return nil
}
