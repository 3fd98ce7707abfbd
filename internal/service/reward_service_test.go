package service

import (
	"testing"

	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/models"
	"github.com/sahidursuman/flex-commerce/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRewardService(t *testing.T, db *gorm.DB) *RewardService {
	t.Helper()
	settings := repository.NewSettingRepository(db)
	return NewRewardService(db, settings, newPaymentService(t, db))
}

func setRewardPercent(t *testing.T, db *gorm.DB, percent string) {
	t.Helper()
	require.NoError(t, repository.NewSettingRepository(db).Set(domain.SettingRewardPercent, percent))
}

func TestDistributeCreditsReferrer(t *testing.T) {
	db := testDB(t)
	rewards := newRewardService(t, db)
	setRewardPercent(t, db, "10")

	referrer := createUser(t, db, 0)
	buyer := createUser(t, db, 0)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", buyer.ID).Update("referrer_id", referrer.ID).Error)
	order := createOrder(t, db, buyer.ID, domain.OrderPaymentSuccess, 20000)

	require.NoError(t, rewards.Distribute(order.ID))

	wallet := reloadWallet(t, db, referrer.ID)
	require.EqualValues(t, 2000, wallet.BalanceCents)
	require.EqualValues(t, 2000, wallet.PendingCents)
	require.EqualValues(t, 0, wallet.AvailableFund())
	require.EqualValues(t, 1, countPayments(t, db))
}

func TestDistributeIsIdempotentPerOrder(t *testing.T) {
	db := testDB(t)
	rewards := newRewardService(t, db)
	setRewardPercent(t, db, "10")

	referrer := createUser(t, db, 0)
	buyer := createUser(t, db, 0)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", buyer.ID).Update("referrer_id", referrer.ID).Error)
	order := createOrder(t, db, buyer.ID, domain.OrderPaymentSuccess, 20000)

	require.NoError(t, rewards.Distribute(order.ID))
	require.NoError(t, rewards.Distribute(order.ID))

	wallet := reloadWallet(t, db, referrer.ID)
	require.EqualValues(t, 2000, wallet.BalanceCents)
	require.EqualValues(t, 1, countPayments(t, db))
}

func TestDistributeSkipsWithoutReferrer(t *testing.T) {
	db := testDB(t)
	rewards := newRewardService(t, db)
	setRewardPercent(t, db, "10")

	buyer := createUser(t, db, 0)
	order := createOrder(t, db, buyer.ID, domain.OrderPaymentSuccess, 20000)

	require.NoError(t, rewards.Distribute(order.ID))
	require.EqualValues(t, 0, countPayments(t, db))
}

func TestDistributeSkipsUnsettledOrder(t *testing.T) {
	db := testDB(t)
	rewards := newRewardService(t, db)
	setRewardPercent(t, db, "10")

	referrer := createUser(t, db, 0)
	buyer := createUser(t, db, 0)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", buyer.ID).Update("referrer_id", referrer.ID).Error)
	order := createOrder(t, db, buyer.ID, domain.OrderPartialPayment, 20000)

	require.NoError(t, rewards.Distribute(order.ID))
	require.EqualValues(t, 0, countPayments(t, db))
}

func TestDistributeSkipsWhenPercentUnset(t *testing.T) {
	db := testDB(t)
	rewards := newRewardService(t, db)

	referrer := createUser(t, db, 0)
	buyer := createUser(t, db, 0)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", buyer.ID).Update("referrer_id", referrer.ID).Error)
	order := createOrder(t, db, buyer.ID, domain.OrderPaymentSuccess, 20000)

	require.NoError(t, rewards.Distribute(order.ID))
	require.EqualValues(t, 0, countPayments(t, db))
}

func TestWalletChargeTriggersRewardDistribution(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	setRewardPercent(t, db, "10")

	referrer := createUser(t, db, 0)
	buyer := createUser(t, db, 20000)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", buyer.ID).Update("referrer_id", referrer.ID).Error)
	order := createOrder(t, db, buyer.ID, domain.OrderConfirmed, 20000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: buyer.ID, Processor: walletProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())
	_, err = flow.Charge()
	require.NoError(t, err)
	require.True(t, flow.Settled())

	wallet := reloadWallet(t, db, referrer.ID)
	require.EqualValues(t, 2000, wallet.BalanceCents)
	require.EqualValues(t, 2000, wallet.PendingCents)

	// One charge payment and one reward payment.
	require.EqualValues(t, 2, countPayments(t, db))
}
