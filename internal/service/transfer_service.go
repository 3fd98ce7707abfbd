package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/models"
	"github.com/sahidursuman/flex-commerce/internal/repository"
	"github.com/sahidursuman/flex-commerce/pkg/alipay"

	"gorm.io/gorm"
)

var (
	ErrNoPayoutAccount = errors.New("no alipay account on file for payout")
	ErrSameWallet      = errors.New("transfer source and target are the same wallet")
)

// TransferService moves funds out of wallets: withdrawals paid out through
// the processor, or wallet-to-wallet transfers. It never touches payments
// owned by PaymentService.
type TransferService struct {
	db      *gorm.DB
	gateway *alipay.Client
}

func NewTransferService(db *gorm.DB, gateway *alipay.Client) *TransferService {
	return &TransferService{db: db, gateway: gateway}
}

// Create initiates a transfer of amountCents from the payer's wallet. With
// the alipay processor the funds leave through a processor payout and payee
// must equal payer (a withdrawal to their own external account); with the
// wallet processor the funds move to the payee's wallet directly.
func (s *TransferService) Create(ctx context.Context, processor domain.Processor, payerID, payeeID uint, amountCents int64) (*models.Transfer, error) {
	if amountCents <= 0 {
		return nil, errors.New("transfer amount must be positive")
	}
	payer, err := repository.NewUserRepository(s.db).GetByID(payerID)
	if err != nil {
		return nil, err
	}
	if processor == domain.ProcessorAlipay && payer.AlipayAccount == "" {
		return nil, ErrNoPayoutAccount
	}
	wallets := repository.NewWalletRepository(s.db)
	sourceWallet, err := wallets.GetOrCreate(payerID)
	if err != nil {
		return nil, err
	}
	if !sourceWallet.SufficientFund(amountCents) {
		return nil, repository.ErrInsufficientBalance
	}

	reference := fmt.Sprintf("tr-%s", uuid.New().String())

	// Debit and record first, payout second. A rejected payout is compensated
	// below, so funds can never leave the processor without a local record.
	var transfer *models.Transfer
	err = s.db.Transaction(func(tx *gorm.DB) error {
		txWallets := repository.NewWalletRepository(tx)
		if err := txWallets.Debit(payerID, amountCents); err != nil {
			return err
		}
		transfer = &models.Transfer{
			Reference:        reference,
			FundSourceWallet: sourceWallet.ID,
			Processor:        processor,
			AmountCents:      amountCents,
			Status:           domain.TransferPending,
		}
		if processor == domain.ProcessorWallet {
			if payeeID == payerID {
				return ErrSameWallet
			}
			targetWallet, err := txWallets.GetOrCreate(payeeID)
			if err != nil {
				return err
			}
			if err := txWallets.Credit(payeeID, amountCents); err != nil {
				return err
			}
			transfer.FundTargetWallet = &targetWallet.ID
			transfer.Status = domain.TransferCompleted
		}
		if err := repository.NewTransferRepository(tx).Create(transfer); err != nil {
			return err
		}
		return repository.NewTransactionRepository(tx).Create(&models.Transaction{
			AmountCents:     amountCents,
			OriginableType:  models.OriginTransfer,
			OriginableID:    transfer.ID,
			ProcessableType: models.ActorWallet,
			ProcessableID:   sourceWallet.ID,
			Note:            fmt.Sprintf("transfer %s", reference),
		})
	})
	if err != nil {
		return nil, err
	}

	if processor == domain.ProcessorAlipay {
		_, err := s.gateway.FundTransfer(ctx, alipay.TransferRequest{
			OutBizNo:     reference,
			PayeeAccount: payer.AlipayAccount,
			AmountCents:  amountCents,
			Remark:       "Wallet withdrawal",
		})
		if err != nil {
			log.Printf("[transfer] payout init failed for %s: %v", reference, err)
			if ferr := s.failPayout(transfer, payerID); ferr != nil {
				log.Printf("[transfer] compensation failed for %s: %v", reference, ferr)
			}
			return nil, err
		}
	}
	return transfer, nil
}

// failPayout refunds the debit and marks the transfer failed after the
// processor rejected the payout. The refund gets its own ledger row; rows
// already written stay untouched.
func (s *TransferService) failPayout(transfer *models.Transfer, payerID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewWalletRepository(tx).Credit(payerID, transfer.AmountCents); err != nil {
			return err
		}
		transfer.Status = domain.TransferFailed
		if err := repository.NewTransferRepository(tx).Update(transfer); err != nil {
			return err
		}
		return repository.NewTransactionRepository(tx).Create(&models.Transaction{
			AmountCents:     transfer.AmountCents,
			OriginableType:  models.OriginTransfer,
			OriginableID:    transfer.ID,
			ProcessableType: models.ActorWallet,
			ProcessableID:   transfer.FundSourceWallet,
			Note:            fmt.Sprintf("transfer %s reversed", transfer.Reference),
		})
	})
}

// Complete marks a pending payout finished, driven by the out-of-band sweep
// or an operator confirming the processor's transfer record.
func (s *TransferService) Complete(reference, processorRef string) error {
	transfers := repository.NewTransferRepository(s.db)
	t, err := transfers.GetByReference(reference)
	if err != nil {
		return err
	}
	if t.Status == domain.TransferCompleted {
		return nil
	}
	now := time.Now()
	t.Status = domain.TransferCompleted
	t.ProcessorRef = processorRef
	t.CompletedAt = &now
	return transfers.Update(t)
}
