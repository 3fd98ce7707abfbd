package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sahidursuman/flex-commerce/internal/middleware"
	"github.com/sahidursuman/flex-commerce/internal/models"
	"github.com/sahidursuman/flex-commerce/internal/repository"
	"github.com/sahidursuman/flex-commerce/internal/service"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders      *service.OrderService
	orderRepo   *repository.OrderRepository
	cartRepo    *repository.CartRepository
	paymentRepo *repository.PaymentRepository
}

func NewOrderHandler(
	orders *service.OrderService,
	orderRepo *repository.OrderRepository,
	cartRepo *repository.CartRepository,
	paymentRepo *repository.PaymentRepository,
) *OrderHandler {
	return &OrderHandler{orders: orders, orderRepo: orderRepo, cartRepo: cartRepo, paymentRepo: paymentRepo}
}

// Create turns the caller's cart into a new order.
func (h *OrderHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	cart, err := h.cartRepo.GetOrCreateForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}
	order, err := h.orders.CreateFromCart(cart.ID, userID)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (h *OrderHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	orders, err := h.orderRepo.ListByUser(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}
	full, err := h.orderRepo.GetWithInventories(order.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	unpaid, err := h.orderRepo.AmountUnpaidCents(full)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	payments, err := h.paymentRepo.ListByOrder(full.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":               full,
		"payments":            payments,
		"status":              full.Status.String(),
		"total_cents":         full.TotalCents(),
		"amount_unpaid_cents": unpaid,
	})
}

// SelectShipping assigns a shipping method per inventory item.
func (h *OrderHandler) SelectShipping(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}
	var req struct {
		Selections []struct {
			InventoryID      uint `json:"inventory_id" binding:"required"`
			ShippingMethodID uint `json:"shipping_method_id" binding:"required"`
		} `json:"selections" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	byInventory := make(map[uint]uint, len(req.Selections))
	for _, sel := range req.Selections {
		byInventory[sel.InventoryID] = sel.ShippingMethodID
	}
	if err := h.orders.SelectShipping(order.ID, byInventory); err != nil {
		h.pipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "status": "shipping_selected"})
}

func (h *OrderHandler) ConfirmShipping(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}
	if err := h.orders.ConfirmShipping(order.ID); err != nil {
		h.pipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "status": "shipping_confirmed"})
}

func (h *OrderHandler) ConfirmAddress(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}
	var req struct {
		AddressID uint `json:"address_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.orders.ConfirmAddress(order.ID, req.AddressID); err != nil {
		h.pipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "status": "address_confirmed"})
}

// Confirm locks prices and shipping cost; the order becomes chargeable.
func (h *OrderHandler) Confirm(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}
	if err := h.orders.Confirm(order.ID); err != nil {
		h.pipelineError(c, err)
		return
	}
	full, err := h.orderRepo.GetByID(order.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": full, "status": "confirmed", "total_cents": full.TotalCents()})
}

func (h *OrderHandler) ownedOrder(c *gin.Context) (order *models.Order, ok bool) {
	userID := middleware.GetUserID(c)
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return nil, false
	}
	order, err = h.orderRepo.GetByID(uint(orderID))
	if err != nil || order.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return nil, false
	}
	return order, true
}

func (h *OrderHandler) pipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotAdvanceable),
		errors.Is(err, service.ErrShippingIncomplete),
		errors.Is(err, service.ErrNoShippingRate):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order update failed"})
	}
}
