package models

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestWalletAvailableFund(t *testing.T) {
	w := &Wallet{BalanceCents: 1000, PendingCents: 300}
	require.EqualValues(t, 700, w.AvailableFund())
	require.True(t, w.SufficientFund(700))
	require.False(t, w.SufficientFund(701))
}

func TestWalletCredit(t *testing.T) {
	w := &Wallet{}
	require.True(t, w.Credit(500))
	require.EqualValues(t, 500, w.BalanceCents)
	require.False(t, w.Credit(0))
	require.False(t, w.Credit(-1))
	require.EqualValues(t, 500, w.BalanceCents)
}

func TestWalletConditionalCredit(t *testing.T) {
	w := &Wallet{BalanceCents: 1000}
	require.True(t, w.ConditionalCredit(200))
	require.EqualValues(t, 1200, w.BalanceCents)
	require.EqualValues(t, 200, w.PendingCents)
	// Conditional funds do not change what is spendable.
	require.EqualValues(t, 1000, w.AvailableFund())
	require.False(t, w.ConditionalCredit(0))
}

func TestWalletDebit(t *testing.T) {
	w := &Wallet{BalanceCents: 1000, PendingCents: 300}
	require.False(t, w.Debit(800))
	require.True(t, w.Debit(700))
	require.EqualValues(t, 300, w.BalanceCents)
	require.False(t, w.Debit(-1))
	// A zero debit is a no-op but not an error.
	require.True(t, w.Debit(0))
}

func TestWalletReleasePending(t *testing.T) {
	w := &Wallet{BalanceCents: 1000, PendingCents: 300}
	require.False(t, w.ReleasePending(301))
	require.True(t, w.ReleasePending(300))
	require.EqualValues(t, 0, w.PendingCents)
	require.EqualValues(t, 1000, w.AvailableFund())
	require.False(t, w.ReleasePending(1))
}

func TestWalletCannotBeDeleted(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:wallet_delete_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Wallet{}))

	u := &User{Email: "owner@example.com", Name: "Owner"}
	require.NoError(t, db.Create(u).Error)
	w := &Wallet{UserID: u.ID, BalanceCents: 100}
	require.NoError(t, db.Create(w).Error)

	err = db.Delete(w).Error
	require.ErrorIs(t, err, ErrWalletProtected)

	var count int64
	require.NoError(t, db.Model(&Wallet{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
