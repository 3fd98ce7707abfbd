package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/models"
	"github.com/sahidursuman/flex-commerce/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrEmptyCart           = errors.New("cart has no items to order")
	ErrOrderNotAdvanceable = errors.New("order cannot advance from its current status")
	ErrShippingIncomplete  = errors.New("every item needs a shipping method")
	ErrNoShippingRate      = errors.New("no shipping rate covers the delivery address")
)

// OrderService walks an order through the pre-payment pipeline: cart to
// order, shipping selection, address confirmation, order confirmation.
// Status only ever moves forward.
type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// CreateFromCart turns the cart's reserved items into a new order.
func (s *OrderService) CreateFromCart(cartID, userID uint) (*models.Order, error) {
	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cart, err := repository.NewCartRepository(tx).GetWithInventories(cartID)
		if err != nil {
			return err
		}
		if len(cart.Inventories) == 0 {
			return ErrEmptyCart
		}
		order = &models.Order{
			Number: fmt.Sprintf("ord-%s", uuid.New().String()),
			UserID: userID,
			Status: domain.OrderCreated,
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		ids := make([]uint, 0, len(cart.Inventories))
		for _, inv := range cart.Inventories {
			ids = append(ids, inv.ID)
		}
		return tx.Model(&models.Inventory{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"order_id": order.ID,
				"cart_id":  nil,
				"user_id":  userID,
				"status":   domain.InventoryInOrder,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// SelectShipping assigns a shipping method to each listed inventory.
func (s *OrderService) SelectShipping(orderID uint, methodByInventory map[uint]uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.loadForStatus(tx, orderID, domain.OrderShippingSelected)
		if err != nil {
			return err
		}
		for invID, methodID := range methodByInventory {
			res := tx.Model(&models.Inventory{}).
				Where("id = ? AND order_id = ?", invID, orderID).
				Update("shipping_method_id", methodID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("inventory %d does not belong to order %d", invID, orderID)
			}
		}
		return s.advance(tx, order, domain.OrderShippingSelected)
	})
}

// ConfirmShipping locks the selection once every item has a method.
func (s *OrderService) ConfirmShipping(orderID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.loadForStatus(tx, orderID, domain.OrderShippingConfirmed)
		if err != nil {
			return err
		}
		var missing int64
		err = tx.Model(&models.Inventory{}).
			Where("order_id = ? AND shipping_method_id IS NULL", orderID).
			Count(&missing).Error
		if err != nil {
			return err
		}
		if missing > 0 {
			return ErrShippingIncomplete
		}
		return s.advance(tx, order, domain.OrderShippingConfirmed)
	})
}

// ConfirmAddress snapshots the delivery address onto the order.
func (s *OrderService) ConfirmAddress(orderID, addressID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.loadForStatus(tx, orderID, domain.OrderAddressConfirmed)
		if err != nil {
			return err
		}
		src, err := repository.NewAddressRepository(tx).GetByID(addressID)
		if err != nil {
			return err
		}
		// Copy so later edits to the address book never change a placed order.
		snapshot := models.Address{
			Recipient:     src.Recipient,
			ContactNumber: src.ContactNumber,
			Province:      src.Province,
			City:          src.City,
			District:      src.District,
			Community:     src.Community,
			Street:        src.Street,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}
		order.AddressID = &snapshot.ID
		if err := tx.Model(order).Update("address_id", snapshot.ID).Error; err != nil {
			return err
		}
		return s.advance(tx, order, domain.OrderAddressConfirmed)
	})
}

// Confirm locks purchase prices and the shipping cost; after this the order
// enters the chargeable band and totals never change.
func (s *OrderService) Confirm(orderID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.loadForStatus(tx, orderID, domain.OrderConfirmed)
		if err != nil {
			return err
		}
		full, err := repository.NewOrderRepository(tx).GetWithInventories(orderID)
		if err != nil {
			return err
		}

		var subtotal int64
		for i := range full.Inventories {
			inv := &full.Inventories[i]
			inv.PurchasePriceCents = inv.Product.PriceMemberCents
			inv.PurchaseWeight = inv.Product.WeightGrams
			inv.Status = domain.InventoryInOrderConfirmed
			if err := tx.Model(inv).Updates(map[string]interface{}{
				"purchase_price_cents": inv.PurchasePriceCents,
				"purchase_weight":      inv.PurchaseWeight,
				"status":               inv.Status,
			}).Error; err != nil {
				return err
			}
			subtotal += inv.PurchasePriceCents
		}

		shipping, err := s.shippingCost(tx, full)
		if err != nil {
			return err
		}
		if err := tx.Model(order).Updates(map[string]interface{}{
			"subtotal_cents":      subtotal,
			"shipping_cost_cents": shipping,
		}).Error; err != nil {
			return err
		}
		return s.advance(tx, order, domain.OrderConfirmed)
	})
}

// shippingCost prices each delivery group against the rate matching the
// order address: the flat initial rate plus the add-on per extra item.
// Pickup and no-shipping items cost nothing.
func (s *OrderService) shippingCost(tx *gorm.DB, order *models.Order) (int64, error) {
	counts := map[uint]int64{}
	for _, inv := range order.Inventories {
		if inv.ShippingMethodID == nil {
			return 0, ErrShippingIncomplete
		}
		counts[*inv.ShippingMethodID]++
	}
	var total int64
	for methodID, n := range counts {
		var method models.ShippingMethod
		if err := tx.First(&method, methodID).Error; err != nil {
			return 0, err
		}
		if method.Variety != models.ShippingDelivery {
			continue
		}
		if order.Address == nil {
			return 0, ErrNoShippingRate
		}
		var rate models.ShippingRate
		err := tx.Where("shipping_method_id = ? AND geo_code = ?", methodID, order.Address.Community).
			First(&rate).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrNoShippingRate
			}
			return 0, err
		}
		total += rate.InitRateCents + rate.AddOnRateCents*(n-1)
	}
	return total, nil
}

// loadForStatus fetches the order and checks the move to target goes forward.
func (s *OrderService) loadForStatus(tx *gorm.DB, orderID uint, target domain.OrderStatus) (*models.Order, error) {
	order, err := repository.NewOrderRepository(tx).GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status >= target {
		return nil, ErrOrderNotAdvanceable
	}
	return order, nil
}

func (s *OrderService) advance(tx *gorm.DB, order *models.Order, status domain.OrderStatus) error {
	if err := repository.NewOrderRepository(tx).UpdateStatus(order.ID, status); err != nil {
		return err
	}
	order.Status = status
	return nil
}
