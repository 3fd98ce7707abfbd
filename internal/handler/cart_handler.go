package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sahidursuman/flex-commerce/internal/middleware"
	"github.com/sahidursuman/flex-commerce/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CartHandler struct {
	cartRepo    *repository.CartRepository
	productRepo *repository.ProductRepository
}

func NewCartHandler(cartRepo *repository.CartRepository, productRepo *repository.ProductRepository) *CartHandler {
	return &CartHandler{cartRepo: cartRepo, productRepo: productRepo}
}

func (h *CartHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	cart, err := h.cartRepo.GetOrCreateForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}
	full, err := h.cartRepo.GetWithInventories(cart.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": full})
}

// AddItem reserves one unsold inventory unit of the product into the cart.
func (h *CartHandler) AddItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		ProductID uint `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cart, err := h.cartRepo.GetOrCreateForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}
	inv, err := h.productRepo.AvailableInventory(req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "product out of stock"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reserve item"})
		return
	}
	inv.UserID = &userID
	if err := h.cartRepo.AddInventory(cart.ID, inv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reserve item"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"inventory": inv})
}

// RemoveItem releases a reserved unit back to stock.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	inventoryID, err := strconv.ParseUint(c.Param("inventory_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inventory id"})
		return
	}
	cart, err := h.cartRepo.GetOrCreateForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}
	if err := h.cartRepo.RemoveInventory(cart.ID, uint(inventoryID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": inventoryID})
}
