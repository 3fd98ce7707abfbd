package handler

import (
	"net/http"
	"strconv"

	"github.com/sahidursuman/flex-commerce/internal/middleware"
	"github.com/sahidursuman/flex-commerce/internal/models"
	"github.com/sahidursuman/flex-commerce/internal/repository"

	"github.com/gin-gonic/gin"
)

type AddressHandler struct {
	addressRepo *repository.AddressRepository
}

func NewAddressHandler(addressRepo *repository.AddressRepository) *AddressHandler {
	return &AddressHandler{addressRepo: addressRepo}
}

type addressRequest struct {
	Recipient     string `json:"recipient" binding:"required"`
	ContactNumber string `json:"contact_number" binding:"required"`
	Province      string `json:"province"`
	City          string `json:"city"`
	District      string `json:"district"`
	Community     string `json:"community"`
	Street        string `json:"street"`
}

func (h *AddressHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	addr := &models.Address{
		UserID:        &userID,
		Recipient:     req.Recipient,
		ContactNumber: req.ContactNumber,
		Province:      req.Province,
		City:          req.City,
		District:      req.District,
		Community:     req.Community,
		Street:        req.Street,
	}
	if err := h.addressRepo.Create(addr); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save address"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"address": addr})
}

func (h *AddressHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	addrs, err := h.addressRepo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list addresses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addrs})
}

func (h *AddressHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
		return
	}
	addr, err := h.addressRepo.GetByID(uint(id))
	if err != nil || addr.UserID == nil || *addr.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
		return
	}
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	addr.Recipient = req.Recipient
	addr.ContactNumber = req.ContactNumber
	addr.Province = req.Province
	addr.City = req.City
	addr.District = req.District
	addr.Community = req.Community
	addr.Street = req.Street
	if err := h.addressRepo.Update(addr); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update address"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr})
}

func (h *AddressHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
		return
	}
	if err := h.addressRepo.Delete(uint(id), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete address"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
