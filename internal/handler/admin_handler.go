package handler

import (
	"net/http"
	"strconv"

	"github.com/sahidursuman/flex-commerce/internal/models"
	"github.com/sahidursuman/flex-commerce/internal/repository"
	"github.com/sahidursuman/flex-commerce/internal/service"
	"github.com/sahidursuman/flex-commerce/pkg/cloudinary"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	orderRepo   *repository.OrderRepository
	productRepo *repository.ProductRepository
	settingRepo *repository.SettingRepository
	walletRepo  *repository.WalletRepository
	transfers   *service.TransferService
	uploads     cloudinary.Client
}

func NewAdminHandler(
	orderRepo *repository.OrderRepository,
	productRepo *repository.ProductRepository,
	settingRepo *repository.SettingRepository,
	walletRepo *repository.WalletRepository,
	transfers *service.TransferService,
	uploads cloudinary.Client,
) *AdminHandler {
	return &AdminHandler{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		settingRepo: settingRepo,
		walletRepo:  walletRepo,
		transfers:   transfers,
		uploads:     uploads,
	}
}

// Dashboard summarizes orders per pipeline status.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	counts, err := h.orderRepo.CountByStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dashboard"})
		return
	}
	byName := make(map[string]int64, len(counts))
	for status, n := range counts {
		byName[status.String()] = n
	}
	c.JSON(http.StatusOK, gin.H{"orders_by_status": byName})
}

func (h *AdminHandler) ListSettings(c *gin.Context) {
	settings, err := h.settingRepo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *AdminHandler) SetSetting(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.settingRepo.Set(req.Key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save setting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": req.Key, "value": req.Value})
}

type productRequest struct {
	Name             string `json:"name" binding:"required"`
	TagLine          string `json:"tag_line"`
	Description      string `json:"description"`
	PriceMemberCents int64  `json:"price_member_cents"`
	PriceRewardCents int64  `json:"price_reward_cents"`
	WeightGrams      int64  `json:"weight_grams"`
	CategoryID       *uint  `json:"category_id"`
}

func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := &models.Product{
		Name:             req.Name,
		TagLine:          req.TagLine,
		Description:      req.Description,
		PriceMemberCents: req.PriceMemberCents,
		PriceRewardCents: req.PriceRewardCents,
		WeightGrams:      req.WeightGrams,
		CategoryID:       req.CategoryID,
	}
	if err := h.productRepo.Create(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": p})
}

func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	p, err := h.productRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.Name = req.Name
	p.TagLine = req.TagLine
	p.Description = req.Description
	p.PriceMemberCents = req.PriceMemberCents
	p.PriceRewardCents = req.PriceRewardCents
	p.WeightGrams = req.WeightGrams
	p.CategoryID = req.CategoryID
	if err := h.productRepo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	if err := h.productRepo.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// UploadProductImage stores the product image and saves its URL.
func (h *AdminHandler) UploadProductImage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	p, err := h.productRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image"})
		return
	}
	defer file.Close()
	url, err := h.uploads.UploadProductImage(c.Request.Context(), file, strconv.FormatUint(id, 10))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	p.ImageURL = url
	if err := h.productRepo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// ReleasePending converts a user's conditional reward funds into spendable
// balance, typically after the referred order clears its return window.
func (h *AdminHandler) ReleasePending(c *gin.Context) {
	var req struct {
		UserID      uint  `json:"user_id" binding:"required"`
		AmountCents int64 `json:"amount_cents" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.walletRepo.ReleasePending(req.UserID, req.AmountCents); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": req.UserID, "released_cents": req.AmountCents})
}

// CompleteTransfer marks a pending payout as finished at the processor.
func (h *AdminHandler) CompleteTransfer(c *gin.Context) {
	var req struct {
		Reference    string `json:"reference" binding:"required"`
		ProcessorRef string `json:"processor_ref"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.transfers.Complete(req.Reference, req.ProcessorRef); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "transfer not found or not completable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reference": req.Reference, "status": "COMPLETED"})
}
