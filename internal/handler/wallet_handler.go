package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/middleware"
	"github.com/sahidursuman/flex-commerce/internal/repository"
	"github.com/sahidursuman/flex-commerce/internal/service"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	walletRepo   *repository.WalletRepository
	txRepo       *repository.TransactionRepository
	transferRepo *repository.TransferRepository
	transfers    *service.TransferService
}

func NewWalletHandler(
	walletRepo *repository.WalletRepository,
	txRepo *repository.TransactionRepository,
	transferRepo *repository.TransferRepository,
	transfers *service.TransferService,
) *WalletHandler {
	return &WalletHandler{walletRepo: walletRepo, txRepo: txRepo, transferRepo: transferRepo, transfers: transfers}
}

func (h *WalletHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	w, err := h.walletRepo.GetOrCreate(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"wallet":          w,
		"available_cents": w.AvailableFund(),
	})
}

// Ledger returns the wallet's most recent transaction rows.
func (h *WalletHandler) Ledger(c *gin.Context) {
	userID := middleware.GetUserID(c)
	w, err := h.walletRepo.GetOrCreate(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.txRepo.ListForWallet(w.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ledger"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": rows})
}

// Withdrawals lists the transfers that left the caller's wallet.
func (h *WalletHandler) Withdrawals(c *gin.Context) {
	userID := middleware.GetUserID(c)
	w, err := h.walletRepo.GetOrCreate(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	transfers, err := h.transferRepo.ListBySourceWallet(w.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}

// Withdraw pays available funds out to the caller's alipay account.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		AmountCents int64 `json:"amount_cents" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	transfer, err := h.transfers.Create(c.Request.Context(), domain.ProcessorAlipay, userID, userID, req.AmountCents)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientBalance),
			errors.Is(err, service.ErrNoPayoutAccount):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "withdrawal failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transfer": transfer})
}

// Transfer moves available funds to another user's wallet.
func (h *WalletHandler) Transfer(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		PayeeID     uint  `json:"payee_id" binding:"required"`
		AmountCents int64 `json:"amount_cents" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	transfer, err := h.transfers.Create(c.Request.Context(), domain.ProcessorWallet, userID, req.PayeeID, req.AmountCents)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientBalance),
			errors.Is(err, service.ErrSameWallet):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "transfer failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transfer": transfer})
}
