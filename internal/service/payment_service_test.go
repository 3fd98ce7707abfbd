package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPaymentService(t *testing.T, db *gorm.DB) *PaymentService {
	t.Helper()
	return NewPaymentService(db, testGateway(t), testConfig())
}

func walletProcessor() *domain.Processor {
	p := domain.ProcessorWallet
	return &p
}

func alipayProcessor() *domain.Processor {
	p := domain.ProcessorAlipay
	return &p
}

func TestCreateChargeRejectsUnconfirmedOrder(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 10000)
	order := createOrder(t, db, user.ID, domain.OrderCreated, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: walletProcessor()})
	require.NoError(t, err)
	err = flow.Create()
	require.ErrorIs(t, err, ErrInvalidOrderStatus)
	require.Nil(t, flow.Payment)
	require.EqualValues(t, 0, countPayments(t, db))
}

func TestCreateChargeRejectsSettledOrder(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 10000)
	order := createOrder(t, db, user.ID, domain.OrderPaymentSuccess, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, AmountCents: 10000, Processor: walletProcessor()})
	require.NoError(t, err)
	require.ErrorIs(t, flow.Create(), ErrInvalidOrderStatus)
	require.EqualValues(t, 0, countPayments(t, db))
}

func TestCreateChargeAllowsFailedOrderRetry(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 10000)
	order := createOrder(t, db, user.ID, domain.OrderPaymentFail, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: walletProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())
	require.NotNil(t, flow.Payment)
	require.Equal(t, domain.OrderPaymentPending, flow.Order.Status)
}

func TestCreateChargeRejectsAmountAboveTotal(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 100000)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, AmountCents: 10001, Processor: walletProcessor()})
	require.NoError(t, err)
	err = flow.Create()
	require.ErrorIs(t, err, ErrAmountExceedsOrderTotal)
	require.Nil(t, flow.Payment)
	require.EqualValues(t, 0, countPayments(t, db))

	order = reloadOrder(t, db, order.ID)
	require.Equal(t, domain.OrderConfirmed, order.Status)
}

func TestCreateWalletChargeRejectsInsufficientFund(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 5000)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: walletProcessor()})
	require.NoError(t, err)
	err = flow.Create()
	require.ErrorIs(t, err, ErrInsufficientFund)
	require.EqualValues(t, 0, countPayments(t, db))

	order = reloadOrder(t, db, order.ID)
	require.Equal(t, domain.OrderConfirmed, order.Status)
}

func TestChargeWalletSettlesOrder(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 15000)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)
	inv := &models.Inventory{ProductID: 1, OrderID: &order.ID, Status: domain.InventoryInOrderConfirmed}
	require.NoError(t, db.Create(inv).Error)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: walletProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())

	redirect, err := flow.Charge()
	require.NoError(t, err)
	require.Empty(t, redirect)
	require.True(t, flow.Settled())

	wallet := reloadWallet(t, db, user.ID)
	require.EqualValues(t, 5000, wallet.BalanceCents)

	payment := reloadPayment(t, db, flow.Payment.ID)
	require.Equal(t, domain.PaymentProcessorConfirmed, payment.Status)
	require.EqualValues(t, 10000, payment.AmountCents)

	order = reloadOrder(t, db, order.ID)
	require.Equal(t, domain.OrderPaymentSuccess, order.Status)

	var reloaded models.Inventory
	require.NoError(t, db.First(&reloaded, inv.ID).Error)
	require.Equal(t, domain.InventoryPurchased, reloaded.Status)
	require.NotNil(t, reloaded.PurchasedAt)

	require.EqualValues(t, 1, countTransactions(t, db))
}

func TestChargeWalletFailureKeepsPaymentAndFailsOrder(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 15000)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: walletProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())

	// Drain the wallet between create and charge.
	require.NoError(t, db.Model(&models.Wallet{}).Where("user_id = ?", user.ID).Update("balance_cents", 3000).Error)

	_, err = flow.Charge()
	require.ErrorIs(t, err, ErrInsufficientFund)
	require.False(t, flow.Settled())

	wallet := reloadWallet(t, db, user.ID)
	require.EqualValues(t, 3000, wallet.BalanceCents)

	payment := reloadPayment(t, db, flow.Payment.ID)
	require.Equal(t, domain.PaymentInsufficientFund, payment.Status)

	order = reloadOrder(t, db, order.ID)
	require.Equal(t, domain.OrderPaymentFail, order.Status)

	require.EqualValues(t, 0, countTransactions(t, db))
}

func TestChargeWalletPartialPayment(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 15000)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, AmountCents: 4000, Processor: walletProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())

	_, err = flow.Charge()
	require.NoError(t, err)
	require.False(t, flow.Settled())

	order = reloadOrder(t, db, order.ID)
	require.Equal(t, domain.OrderPartialPayment, order.Status)

	wallet := reloadWallet(t, db, user.ID)
	require.EqualValues(t, 11000, wallet.BalanceCents)

	// A follow-up charge for the remainder settles the order.
	flow2, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: walletProcessor()})
	require.NoError(t, err)
	require.EqualValues(t, 6000, flow2.AmountCents)
	require.NoError(t, flow2.Create())
	_, err = flow2.Charge()
	require.NoError(t, err)
	require.True(t, flow2.Settled())

	order = reloadOrder(t, db, order.ID)
	require.Equal(t, domain.OrderPaymentSuccess, order.Status)
	require.EqualValues(t, 2, countTransactions(t, db))
}

func TestChargeAlipayReturnsRedirectURL(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 0)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: alipayProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())

	redirect, err := flow.Charge()
	require.NoError(t, err)
	require.Contains(t, redirect, "https://gateway.test/gateway.do?")
	require.Contains(t, redirect, "alipay.trade.page.pay")

	payment := reloadPayment(t, db, flow.Payment.ID)
	var biz map[string]string
	require.NoError(t, json.Unmarshal([]byte(payment.ProcessorRequest), &biz))
	require.Equal(t, strconv.FormatUint(uint64(payment.ID), 10), biz["out_trade_no"])
	require.Equal(t, "100.00", biz["total_amount"])
	require.Equal(t, "FAST_INSTANT_TRADE_PAY", biz["product_code"])

	order = reloadOrder(t, db, order.ID)
	require.Equal(t, domain.OrderPaymentPending, order.Status)
}

func alipayCallbackPayload(paymentID uint, amount string) string {
	return fmt.Sprintf(`{"out_trade_no":%q,"total_amount":%q,"trade_no":"2026082900001"}`,
		strconv.FormatUint(uint64(paymentID), 10), amount)
}

func TestAlipayConfirmFromReturnChannel(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 0)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: alipayProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())

	require.NoError(t, flow.StoreReturnResponse(alipayCallbackPayload(flow.Payment.ID, "100.00")))
	require.NoError(t, flow.AlipayConfirm())
	require.True(t, flow.Settled())

	payment := reloadPayment(t, db, flow.Payment.ID)
	require.Equal(t, domain.PaymentClientSideConfirmed, payment.Status)

	order = reloadOrder(t, db, order.ID)
	require.Equal(t, domain.OrderPaymentSuccess, order.Status)
	require.EqualValues(t, 1, countTransactions(t, db))
}

func TestAlipayConfirmBothChannelsUpgradeStatusOnce(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 0)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: alipayProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())
	paymentID := flow.Payment.ID

	require.NoError(t, flow.StoreReturnResponse(alipayCallbackPayload(paymentID, "100.00")))
	require.NoError(t, flow.AlipayConfirm())

	// The async notify arrives later, resolved fresh as the handler would.
	flow2, err := svc.Resolve(PaymentParams{PaymentID: paymentID})
	require.NoError(t, err)
	require.NoError(t, flow2.StoreNotifyResponse(alipayCallbackPayload(paymentID, "100.00")))
	require.NoError(t, flow2.AlipayConfirm())

	payment := reloadPayment(t, db, paymentID)
	require.Equal(t, domain.PaymentConfirmed, payment.Status)

	order = reloadOrder(t, db, order.ID)
	require.Equal(t, domain.OrderPaymentSuccess, order.Status)

	// Replays never double-log the ledger.
	require.EqualValues(t, 1, countTransactions(t, db))
}

func TestAlipayConfirmNotifyOnly(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 0)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: alipayProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())

	require.NoError(t, flow.StoreNotifyResponse(alipayCallbackPayload(flow.Payment.ID, "100.00")))
	require.NoError(t, flow.AlipayConfirm())

	payment := reloadPayment(t, db, flow.Payment.ID)
	require.Equal(t, domain.PaymentProcessorConfirmed, payment.Status)
}

func TestAlipayConfirmRejectsWrongTradeNo(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 0)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: alipayProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())

	require.NoError(t, flow.StoreNotifyResponse(alipayCallbackPayload(flow.Payment.ID+99, "100.00")))
	require.ErrorIs(t, flow.AlipayConfirm(), ErrResponseMismatch)

	payment := reloadPayment(t, db, flow.Payment.ID)
	require.Equal(t, domain.PaymentCreated, payment.Status)
	order = reloadOrder(t, db, order.ID)
	require.Equal(t, domain.OrderPaymentPending, order.Status)
	require.EqualValues(t, 0, countTransactions(t, db))
}

func TestAlipayConfirmRejectsWrongAmount(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 0)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: alipayProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())

	require.NoError(t, flow.StoreNotifyResponse(alipayCallbackPayload(flow.Payment.ID, "99.99")))
	require.ErrorIs(t, flow.AlipayConfirm(), ErrResponseMismatch)
}

func TestAlipayConfirmRejectsEmptyResponses(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 0)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: alipayProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())
	require.ErrorIs(t, flow.AlipayConfirm(), ErrResponseMismatch)
}

func TestResolveDefaultsAmountToUnpaid(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 0)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)
	paid := &models.Payment{
		OrderID:     &order.ID,
		AmountCents: 3000,
		Processor:   domain.ProcessorWallet,
		Variety:     domain.VarietyCharge,
		Status:      domain.PaymentConfirmed,
	}
	require.NoError(t, db.Create(paid).Error)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID})
	require.NoError(t, err)
	require.EqualValues(t, 7000, flow.AmountCents)
}

func TestResolveFollowsPaymentToOrderAndUser(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 0)
	order := createOrder(t, db, user.ID, domain.OrderPaymentPending, 10000)
	payment := &models.Payment{
		OrderID:     &order.ID,
		AmountCents: 10000,
		Processor:   domain.ProcessorAlipay,
		Variety:     domain.VarietyCharge,
	}
	require.NoError(t, db.Create(payment).Error)

	flow, err := svc.Resolve(PaymentParams{PaymentID: payment.ID})
	require.NoError(t, err)
	require.NotNil(t, flow.Payment)
	require.NotNil(t, flow.Order)
	require.NotNil(t, flow.User)
	require.Equal(t, order.ID, flow.Order.ID)
	require.Equal(t, user.ID, flow.User.ID)
	require.Equal(t, domain.ProcessorAlipay, flow.Processor)
}

func TestCreateRewardNonWithdrawable(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	referrer := createUser(t, db, 1000)
	buyer := createUser(t, db, 0)
	order := createOrder(t, db, buyer.ID, domain.OrderPaymentSuccess, 20000)

	variety := domain.VarietyReward
	withdrawable := false
	flow, err := svc.Resolve(PaymentParams{
		OrderID:      order.ID,
		UserID:       referrer.ID,
		AmountCents:  2000,
		Variety:      &variety,
		Withdrawable: &withdrawable,
	})
	require.NoError(t, err)
	require.NoError(t, flow.Create())

	wallet := reloadWallet(t, db, referrer.ID)
	require.EqualValues(t, 3000, wallet.BalanceCents)
	require.EqualValues(t, 2000, wallet.PendingCents)
	require.EqualValues(t, 1000, wallet.AvailableFund())

	payment := reloadPayment(t, db, flow.Payment.ID)
	require.Equal(t, domain.PaymentConfirmed, payment.Status)
	require.Equal(t, domain.VarietyReward, payment.Variety)
	require.EqualValues(t, 1, countTransactions(t, db))
}

func TestCreateRewardRejectsUnsettledOrder(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	referrer := createUser(t, db, 0)
	buyer := createUser(t, db, 0)
	order := createOrder(t, db, buyer.ID, domain.OrderPartialPayment, 20000)

	variety := domain.VarietyReward
	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: referrer.ID, AmountCents: 2000, Variety: &variety})
	require.NoError(t, err)
	require.ErrorIs(t, flow.Create(), ErrInvalidOrderStatus)
	require.EqualValues(t, 0, countPayments(t, db))
}

func TestExpireStalePayments(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 0)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, AmountCents: 10000, Processor: alipayProcessor()})
	require.NoError(t, err)
	require.NoError(t, flow.Create())

	confirmed := &models.Payment{
		OrderID:     &order.ID,
		AmountCents: 10000,
		Processor:   domain.ProcessorAlipay,
		Variety:     domain.VarietyCharge,
		Status:      domain.PaymentConfirmed,
	}
	require.NoError(t, db.Create(confirmed).Error)

	stale := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Payment{}).Where("id IN ?", []uint{flow.Payment.ID, confirmed.ID}).Update("created_at", stale).Error)

	n, err := svc.ExpireStalePayments()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, domain.PaymentExpired, reloadPayment(t, db, flow.Payment.ID).Status)
	require.Equal(t, domain.PaymentConfirmed, reloadPayment(t, db, confirmed.ID).Status)
}

func TestChargeRequiresResolvedPayment(t *testing.T) {
	db := testDB(t)
	svc := newPaymentService(t, db)
	user := createUser(t, db, 10000)
	order := createOrder(t, db, user.ID, domain.OrderConfirmed, 10000)

	flow, err := svc.Resolve(PaymentParams{OrderID: order.ID, UserID: user.ID, Processor: walletProcessor()})
	require.NoError(t, err)

	// Charge before Create: nothing has been persisted to execute.
	_, err = flow.Charge()
	require.ErrorIs(t, err, ErrNoPaymentResolved)
	require.EqualValues(t, 10000, reloadWallet(t, db, user.ID).BalanceCents)
}
