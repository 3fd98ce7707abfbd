package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/middleware"
	"github.com/sahidursuman/flex-commerce/internal/models"
	"github.com/sahidursuman/flex-commerce/internal/repository"
	"github.com/sahidursuman/flex-commerce/internal/service"
	"github.com/sahidursuman/flex-commerce/internal/ws"
	"github.com/sahidursuman/flex-commerce/pkg/alipay"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	payments  *service.PaymentService
	gateway   *alipay.Client
	orderRepo *repository.OrderRepository
	notifRepo *repository.NotificationRepository
	hub       *ws.Hub
}

func NewPaymentHandler(
	payments *service.PaymentService,
	gateway *alipay.Client,
	orderRepo *repository.OrderRepository,
	notifRepo *repository.NotificationRepository,
	hub *ws.Hub,
) *PaymentHandler {
	return &PaymentHandler{
		payments:  payments,
		gateway:   gateway,
		orderRepo: orderRepo,
		notifRepo: notifRepo,
		hub:       hub,
	}
}

// Create makes a charge against the order and executes it. Wallet charges
// settle in place; alipay charges answer with the hosted page redirect URL.
func (h *PaymentHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req struct {
		Processor   string `json:"processor" binding:"required"`
		AmountCents int64  `json:"amount_cents"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	processor, ok := domain.ParseProcessor(req.Processor)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown processor"})
		return
	}
	order, err := h.orderRepo.GetByID(uint(orderID))
	if err != nil || order.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	flow, err := h.payments.Resolve(service.PaymentParams{
		OrderID:     uint(orderID),
		UserID:      userID,
		AmountCents: req.AmountCents,
		Processor:   &processor,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment error"})
		return
	}
	if err := flow.Create(); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	redirectURL, err := flow.Charge()
	h.pushOrderUpdate(flow)
	if err != nil {
		c.JSON(errStatus(err), gin.H{
			"error":        err.Error(),
			"payment":      flow.Payment,
			"order_status": flow.Order.Status.String(),
		})
		return
	}
	resp := gin.H{
		"payment":      flow.Payment,
		"order_status": flow.Order.Status.String(),
	}
	if redirectURL != "" {
		resp["redirect_url"] = redirectURL
	}
	if flow.Settled() {
		h.notifySettled(flow)
	}
	c.JSON(http.StatusCreated, resp)
}

// Get returns a payment owned by the caller.
func (h *PaymentHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	paymentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}
	flow, err := h.payments.Resolve(service.PaymentParams{PaymentID: uint(paymentID)})
	if err != nil || flow.Payment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	if flow.Order == nil || flow.Order.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": flow.Payment, "order_status": flow.Order.Status.String()})
}

// AlipayReturn is the synchronous browser redirect back from the hosted
// page. It stores the payload into the return slot and reconciles.
func (h *PaymentHandler) AlipayReturn(c *gin.Context) {
	flow, ok := h.resolveCallback(c)
	if !ok {
		return
	}
	raw := valuesToJSON(c.Request.URL.Query())
	if err := flow.StoreReturnResponse(raw); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment error"})
		return
	}
	if err := flow.AlipayConfirm(); err != nil {
		log.Printf("[alipay return] payment %d: %v", flow.Payment.ID, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "payment could not be confirmed"})
		return
	}
	h.pushOrderUpdate(flow)
	h.notifySettled(flow)
	c.JSON(http.StatusOK, gin.H{
		"payment":      flow.Payment,
		"order_status": flow.Order.Status.String(),
	})
}

// AlipayNotify is the asynchronous server-to-server callback. The processor
// retries until it reads a plain "success"; replies are therefore plain text
// and duplicates must succeed, which reconciliation guarantees.
func (h *PaymentHandler) AlipayNotify(c *gin.Context) {
	flow, ok := h.resolveCallback(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusOK, "failure")
		return
	}
	if !h.gateway.VerifyNotify(c.Request.PostForm) {
		log.Printf("[alipay notify] payment %d: bad signature", flow.Payment.ID)
		c.String(http.StatusOK, "failure")
		return
	}
	raw := valuesToJSON(c.Request.PostForm)
	if err := flow.StoreNotifyResponse(raw); err != nil {
		c.String(http.StatusOK, "failure")
		return
	}
	if err := flow.AlipayConfirm(); err != nil {
		log.Printf("[alipay notify] payment %d: %v", flow.Payment.ID, err)
		c.String(http.StatusOK, "failure")
		return
	}
	h.pushOrderUpdate(flow)
	h.notifySettled(flow)
	c.String(http.StatusOK, "success")
}

func (h *PaymentHandler) resolveCallback(c *gin.Context) (*service.PaymentFlow, bool) {
	paymentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return nil, false
	}
	flow, err := h.payments.Resolve(service.PaymentParams{PaymentID: uint(paymentID)})
	if err != nil || flow.Payment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return nil, false
	}
	return flow, true
}

func (h *PaymentHandler) pushOrderUpdate(flow *service.PaymentFlow) {
	if flow.Order == nil {
		return
	}
	h.hub.NotifyUser(flow.Order.UserID, ws.OrderUpdate{
		Type:        "order_update",
		OrderID:     flow.Order.ID,
		OrderStatus: flow.Order.Status.String(),
		PaymentID:   flow.Payment.ID,
	})
}

func (h *PaymentHandler) notifySettled(flow *service.PaymentFlow) {
	if !flow.Settled() || flow.Order == nil {
		return
	}
	err := h.notifRepo.CreateOnce(&models.Notification{
		UserID:  flow.Order.UserID,
		OrderID: &flow.Order.ID,
		Kind:    "ORDER_SETTLED",
		Title:   "Payment received",
		Body:    "Your order " + flow.Order.Number + " is fully paid.",
	})
	if err != nil {
		log.Printf("[payment] notification for order %d: %v", flow.Order.ID, err)
	}
}

func valuesToJSON(values url.Values) string {
	flat := make(map[string]string, len(values))
	for k := range values {
		flat[k] = values.Get(k)
	}
	raw, err := json.Marshal(flat)
	if err != nil {
		return ""
	}
	return string(raw)
}

// errStatus maps a service error to a response code.
func errStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidOrderStatus),
		errors.Is(err, service.ErrAmountExceedsOrderTotal),
		errors.Is(err, service.ErrInsufficientFund),
		errors.Is(err, service.ErrResponseMismatch):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
