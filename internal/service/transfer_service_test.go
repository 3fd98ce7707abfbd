package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/models"
	"github.com/sahidursuman/flex-commerce/internal/repository"
	"github.com/sahidursuman/flex-commerce/pkg/alipay"

	"github.com/stretchr/testify/require"
)

func TestWalletTransferMovesFunds(t *testing.T) {
	db := testDB(t)
	transfers := NewTransferService(db, testGateway(t))
	payer := createUser(t, db, 10000)
	payee := createUser(t, db, 0)

	transfer, err := transfers.Create(context.Background(), domain.ProcessorWallet, payer.ID, payee.ID, 4000)
	require.NoError(t, err)
	require.Equal(t, domain.TransferCompleted, transfer.Status)
	require.NotNil(t, transfer.FundTargetWallet)

	require.EqualValues(t, 6000, reloadWallet(t, db, payer.ID).BalanceCents)
	require.EqualValues(t, 4000, reloadWallet(t, db, payee.ID).BalanceCents)
	require.EqualValues(t, 1, countTransactions(t, db))
}

func TestWalletTransferRejectsSameWallet(t *testing.T) {
	db := testDB(t)
	transfers := NewTransferService(db, testGateway(t))
	payer := createUser(t, db, 10000)

	_, err := transfers.Create(context.Background(), domain.ProcessorWallet, payer.ID, payer.ID, 4000)
	require.ErrorIs(t, err, ErrSameWallet)
	require.EqualValues(t, 10000, reloadWallet(t, db, payer.ID).BalanceCents)
}

func TestTransferRejectsInsufficientFunds(t *testing.T) {
	db := testDB(t)
	transfers := NewTransferService(db, testGateway(t))
	payer := createUser(t, db, 1000)
	payee := createUser(t, db, 0)

	_, err := transfers.Create(context.Background(), domain.ProcessorWallet, payer.ID, payee.ID, 4000)
	require.ErrorIs(t, err, repository.ErrInsufficientBalance)
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	db := testDB(t)
	transfers := NewTransferService(db, testGateway(t))
	payer := createUser(t, db, 1000)
	payee := createUser(t, db, 0)

	_, err := transfers.Create(context.Background(), domain.ProcessorWallet, payer.ID, payee.ID, 0)
	require.Error(t, err)
	_, err = transfers.Create(context.Background(), domain.ProcessorWallet, payer.ID, payee.ID, -100)
	require.Error(t, err)
}

func TestWithdrawalRequiresPayoutAccount(t *testing.T) {
	db := testDB(t)
	transfers := NewTransferService(db, testGateway(t))
	payer := createUser(t, db, 10000)

	_, err := transfers.Create(context.Background(), domain.ProcessorAlipay, payer.ID, payer.ID, 4000)
	require.ErrorIs(t, err, ErrNoPayoutAccount)
}

func TestWithdrawalDebitsWalletAndStaysPending(t *testing.T) {
	db := testDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "alipay.fund.trans.toaccount.transfer", r.PostForm.Get("method"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	gateway, err := alipay.NewClient(srv.URL, "test-app", "", "")
	require.NoError(t, err)
	transfers := NewTransferService(db, gateway)

	payer := createUser(t, db, 10000)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", payer.ID).Update("alipay_account", "payer@example.com").Error)

	transfer, err := transfers.Create(context.Background(), domain.ProcessorAlipay, payer.ID, payer.ID, 4000)
	require.NoError(t, err)
	require.Equal(t, domain.TransferPending, transfer.Status)
	require.Nil(t, transfer.FundTargetWallet)
	require.EqualValues(t, 6000, reloadWallet(t, db, payer.ID).BalanceCents)

	require.NoError(t, transfers.Complete(transfer.Reference, "20260829001"))
	got, err := repository.NewTransferRepository(db).GetByReference(transfer.Reference)
	require.NoError(t, err)
	require.Equal(t, domain.TransferCompleted, got.Status)
	require.Equal(t, "20260829001", got.ProcessorRef)
	require.NotNil(t, got.CompletedAt)

	// Completing again is a no-op.
	require.NoError(t, transfers.Complete(transfer.Reference, "ignored"))
	got, err = repository.NewTransferRepository(db).GetByReference(transfer.Reference)
	require.NoError(t, err)
	require.Equal(t, "20260829001", got.ProcessorRef)
}

func TestFailedPayoutRefundsWallet(t *testing.T) {
	db := testDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	gateway, err := alipay.NewClient(srv.URL, "test-app", "", "")
	require.NoError(t, err)
	transfers := NewTransferService(db, gateway)

	payer := createUser(t, db, 10000)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", payer.ID).Update("alipay_account", "payer@example.com").Error)

	_, err = transfers.Create(context.Background(), domain.ProcessorAlipay, payer.ID, payer.ID, 4000)
	require.Error(t, err)

	// The debit is compensated and the transfer is kept as a failed record,
	// with the refund visible in the ledger.
	require.EqualValues(t, 10000, reloadWallet(t, db, payer.ID).BalanceCents)

	var rows []models.Transfer
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, domain.TransferFailed, rows[0].Status)
	require.EqualValues(t, 2, countTransactions(t, db))
}
