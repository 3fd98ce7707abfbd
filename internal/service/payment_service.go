package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/sahidursuman/flex-commerce/config"
	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/models"
	"github.com/sahidursuman/flex-commerce/internal/repository"
	"github.com/sahidursuman/flex-commerce/pkg/alipay"

	"gorm.io/gorm"
)

// Domain validation failures. Each aborts its enclosing transaction; callers
// only ever see an error plus unchanged state.
var (
	ErrInvalidOrderStatus      = errors.New("invalid order status")
	ErrAmountExceedsOrderTotal = errors.New("payment amount cannot exceed order total")
	ErrInsufficientFund        = errors.New("insufficient fund")
	ErrResponseMismatch        = errors.New("processor response does not match payment")
	ErrNoPaymentResolved       = errors.New("no payment resolved")
)

// PaymentService drives the order/payment state machine. Long-lived; each
// operation starts from Resolve, which loads whatever the caller identified
// and follows relations for the rest.
type PaymentService struct {
	db       *gorm.DB
	gateway  *alipay.Client
	cfg      *config.Config
	settings *repository.SettingRepository
}

func NewPaymentService(db *gorm.DB, gateway *alipay.Client, cfg *config.Config) *PaymentService {
	return &PaymentService{
		db:       db,
		gateway:  gateway,
		cfg:      cfg,
		settings: repository.NewSettingRepository(db),
	}
}

// PaymentParams identifies an operation's subject. Pointer fields distinguish
// "not given" from zero values; missing fields are resolved by following
// payment -> order -> user.
type PaymentParams struct {
	OrderID      uint
	PaymentID    uint
	UserID       uint
	AmountCents  int64 // 0 defaults to the order's unpaid balance
	Processor    *domain.Processor
	Variety      *domain.Variety
	Withdrawable *bool // rewards only; defaults to true
}

// PaymentFlow is one resolved operation. Payment, Order and User stay
// inspectable after the call for rendering and redirect decisions.
type PaymentFlow struct {
	svc *PaymentService

	Payment *models.Payment
	Order   *models.Order
	User    *models.User

	AmountCents  int64
	Processor    domain.Processor
	Variety      domain.Variety
	withdrawable bool
	settled      bool
}

// Resolve loads the identified records and fills the gaps from relations.
func (s *PaymentService) Resolve(p PaymentParams) (*PaymentFlow, error) {
	f := &PaymentFlow{svc: s, Variety: domain.VarietyCharge, withdrawable: true}

	if p.PaymentID != 0 {
		payment, err := firstOrNil[models.Payment](s.db, p.PaymentID)
		if err != nil {
			return nil, err
		}
		f.Payment = payment
	}

	orderID := p.OrderID
	if orderID == 0 && f.Payment != nil && f.Payment.OrderID != nil {
		orderID = *f.Payment.OrderID
	}
	if orderID != 0 {
		order, err := firstOrNil[models.Order](s.db, orderID)
		if err != nil {
			return nil, err
		}
		f.Order = order
	}

	if p.Processor != nil {
		f.Processor = *p.Processor
	} else if f.Payment != nil {
		f.Processor = f.Payment.Processor
	}

	switch {
	case p.AmountCents != 0:
		f.AmountCents = p.AmountCents
	case f.Order != nil:
		unpaid, err := repository.NewOrderRepository(s.db).AmountUnpaidCents(f.Order)
		if err != nil {
			return nil, err
		}
		f.AmountCents = unpaid
	case f.Payment != nil:
		f.AmountCents = f.Payment.AmountCents
	}

	userID := p.UserID
	if userID == 0 && f.Order != nil {
		userID = f.Order.UserID
	}
	if userID != 0 {
		user, err := firstOrNil[models.User](s.db, userID)
		if err != nil {
			return nil, err
		}
		f.User = user
	}

	if p.Variety != nil {
		f.Variety = *p.Variety
	}
	if p.Withdrawable != nil {
		f.withdrawable = *p.Withdrawable
	}
	return f, nil
}

// Create builds the payment record for the flow's variety. On any failure the
// whole sequence rolls back and no payment row survives.
func (f *PaymentFlow) Create() error {
	switch f.Variety {
	case domain.VarietyCharge:
		return f.createCharge()
	case domain.VarietyReward:
		return f.createReward()
	default:
		return fmt.Errorf("payment variety %s cannot be created here", f.Variety)
	}
}

func (f *PaymentFlow) createCharge() error {
	err := f.svc.db.Transaction(func(tx *gorm.DB) error {
		if err := f.buildCharge(tx); err != nil {
			return err
		}
		if err := f.validateOrderStatus(); err != nil {
			return err
		}
		if err := f.validateAmountWithOrder(); err != nil {
			return err
		}
		if f.Processor == domain.ProcessorWallet {
			if err := f.validateCustomerFund(tx); err != nil {
				return err
			}
		}
		return f.setOrderStatus(tx, domain.OrderPaymentPending)
	})
	if err != nil {
		f.Payment = nil
		return err
	}
	return nil
}

// createReward deposits the reward, confirms the payment and writes the
// ledger entry as one atomic unit.
func (f *PaymentFlow) createReward() error {
	err := f.svc.db.Transaction(func(tx *gorm.DB) error {
		if err := f.buildReward(tx); err != nil {
			return err
		}
		if err := f.validateOrderStatus(); err != nil {
			return err
		}
		if err := f.depositReward(tx); err != nil {
			return err
		}
		return f.createTransaction(tx)
	})
	if err != nil {
		f.Payment = nil
		return err
	}
	return nil
}

// Charge executes the payment. The wallet path settles immediately; the
// alipay path only returns the hosted payment page URL the customer must be
// redirected to, leaving local state untouched until the callbacks arrive.
func (f *PaymentFlow) Charge() (redirectURL string, err error) {
	if f.Payment == nil {
		return "", ErrNoPaymentResolved
	}
	switch f.Payment.Processor {
	case domain.ProcessorWallet:
		return "", f.chargeWallet()
	case domain.ProcessorAlipay:
		return f.chargeAlipay()
	default:
		return "", fmt.Errorf("unknown processor %d", f.Payment.Processor)
	}
}

// chargeWallet debits the wallet and settles the order in one transaction.
// The failure path is deliberately asymmetric: it commits the failed payment
// and still runs settlement, because the order's aggregate state must reflect
// every attempted charge, including the ones that did not land.
func (f *PaymentFlow) chargeWallet() error {
	err := f.svc.db.Transaction(func(tx *gorm.DB) error {
		if err := f.validateCustomerFund(tx); err != nil {
			return err
		}
		if err := repository.NewWalletRepository(tx).Debit(f.User.ID, f.AmountCents); err != nil {
			return ErrInsufficientFund
		}
		f.Payment.AmountCents = f.AmountCents
		if err := f.markSuccess(tx); err != nil {
			return err
		}
		return f.processResult(tx)
	})
	if err != nil {
		f.markFailure()
		if perr := f.processResult(f.svc.db); perr != nil {
			log.Printf("[payment] settle after failed charge %d: %v", f.Payment.ID, perr)
		}
		return err
	}
	f.afterSettle()
	return nil
}

func (f *PaymentFlow) chargeAlipay() (string, error) {
	return f.svc.gateway.PageExecuteURL(alipay.PageRequest{
		Method:     "alipay.trade.page.pay",
		ReturnURL:  fmt.Sprintf("%s/api/v1/payments/%d/alipay_return", f.svc.cfg.Alipay.ReturnRoot, f.Payment.ID),
		NotifyURL:  fmt.Sprintf("%s/api/v1/payments/%d/alipay_notify", f.svc.cfg.Alipay.ReturnRoot, f.Payment.ID),
		BizContent: f.Payment.ProcessorRequest,
	})
}

// AlipayConfirm reconciles a processor callback with local state. Idempotent
// and safe for the two callback channels to arrive in any order: each channel
// alone confirms one side, both together upgrade to the strongest terminal
// status, and the ledger guard keeps replays from double-logging. Any failure
// rolls the whole reconciliation back.
func (f *PaymentFlow) AlipayConfirm() error {
	err := f.svc.db.Transaction(func(tx *gorm.DB) error {
		if err := f.validateProcessorResponse(); err != nil {
			return err
		}
		if err := f.confirmPaymentAndOrder(tx); err != nil {
			return err
		}
		if err := f.createTransaction(tx); err != nil {
			return err
		}
		return f.confirmInventories(tx)
	})
	if err != nil {
		return err
	}
	f.afterSettle()
	return nil
}

// StoreReturnResponse records the synchronous browser-return payload.
func (f *PaymentFlow) StoreReturnResponse(raw string) error {
	f.Payment.ProcessorResponseReturn = raw
	return f.svc.db.Model(f.Payment).Update("processor_response_return", raw).Error
}

// StoreNotifyResponse records the asynchronous notification payload.
func (f *PaymentFlow) StoreNotifyResponse(raw string) error {
	f.Payment.ProcessorResponseNotify = raw
	return f.svc.db.Model(f.Payment).Update("processor_response_notify", raw).Error
}

// Settled reports whether the last operation fully settled the order.
func (f *PaymentFlow) Settled() bool {
	return f.settled
}

func (f *PaymentFlow) buildCharge(tx *gorm.DB) error {
	if f.Order == nil {
		return ErrInvalidOrderStatus
	}
	payment := &models.Payment{
		OrderID:     &f.Order.ID,
		Processor:   f.Processor,
		Variety:     domain.VarietyCharge,
		AmountCents: f.AmountCents,
	}
	if err := tx.Create(payment).Error; err != nil {
		return err
	}
	f.Payment = payment
	if f.Processor == domain.ProcessorAlipay {
		return f.buildProcessorRequest(tx)
	}
	return nil
}

func (f *PaymentFlow) buildReward(tx *gorm.DB) error {
	if f.Order == nil {
		return ErrInvalidOrderStatus
	}
	payment := &models.Payment{
		OrderID:     &f.Order.ID,
		Processor:   domain.ProcessorWallet,
		Variety:     domain.VarietyReward,
		AmountCents: f.AmountCents,
	}
	if err := tx.Create(payment).Error; err != nil {
		return err
	}
	f.Payment = payment
	return nil
}

// buildProcessorRequest serializes the outbound hosted-page payload onto the
// payment so the later redirect and callback validation share one source.
func (f *PaymentFlow) buildProcessorRequest(tx *gorm.DB) error {
	unpaid, err := repository.NewOrderRepository(tx).AmountUnpaidCents(f.Order)
	if err != nil {
		return err
	}
	biz := map[string]string{
		"out_trade_no": strconv.FormatUint(uint64(f.Payment.ID), 10),
		"product_code": "FAST_INSTANT_TRADE_PAY",
		"total_amount": alipay.FormatAmount(unpaid),
		"subject":      fmt.Sprintf("[%s] Payment for order: %d", f.svc.cfg.Payment.AppTitle, f.Order.ID),
	}
	raw, err := json.Marshal(biz)
	if err != nil {
		return err
	}
	f.Payment.ProcessorRequest = string(raw)
	return tx.Model(f.Payment).Update("processor_request", f.Payment.ProcessorRequest).Error
}

func (f *PaymentFlow) validateOrderStatus() error {
	if f.Order == nil {
		return ErrInvalidOrderStatus
	}
	switch f.Variety {
	case domain.VarietyCharge:
		if f.Order.Status.Chargeable() {
			return nil
		}
	case domain.VarietyReward:
		if f.Order.Status.Rewardable() {
			return nil
		}
	}
	return ErrInvalidOrderStatus
}

func (f *PaymentFlow) validateAmountWithOrder() error {
	if f.Payment.AmountCents <= f.Order.TotalCents() {
		return nil
	}
	return ErrAmountExceedsOrderTotal
}

func (f *PaymentFlow) validateCustomerFund(tx *gorm.DB) error {
	if f.User == nil {
		return ErrInsufficientFund
	}
	wallet, err := repository.NewWalletRepository(tx).GetOrCreate(f.User.ID)
	if err != nil {
		return err
	}
	if wallet.SufficientFund(f.Payment.AmountCents) {
		return nil
	}
	return ErrInsufficientFund
}

func (f *PaymentFlow) markSuccess(tx *gorm.DB) error {
	f.Payment.Status = domain.PaymentProcessorConfirmed
	if err := tx.Save(f.Payment).Error; err != nil {
		return err
	}
	return f.createTransaction(tx)
}

// markFailure commits the failure status outside any transaction.
func (f *PaymentFlow) markFailure() {
	f.Payment.Status = domain.PaymentInsufficientFund
	if err := f.svc.db.Model(f.Payment).Update("status", f.Payment.Status).Error; err != nil {
		log.Printf("[payment] mark failure %d: %v", f.Payment.ID, err)
	}
}

// processResult applies the settlement policy after any charge attempt:
// fully paid orders succeed and trigger inventory confirmation, partially
// collected funds park the order in partial payment, and a failed charge
// fails the order unless earlier charges already landed.
func (f *PaymentFlow) processResult(tx *gorm.DB) error {
	if f.Order == nil {
		return nil
	}
	orders := repository.NewOrderRepository(tx)
	order, err := orders.GetByID(f.Order.ID)
	if err != nil {
		return err
	}
	f.Order = order
	unpaid, err := orders.AmountUnpaidCents(order)
	if err != nil {
		return err
	}
	switch {
	case unpaid == 0:
		if err := f.setOrderStatus(tx, domain.OrderPaymentSuccess); err != nil {
			return err
		}
		if err := f.confirmInventories(tx); err != nil {
			return err
		}
		f.settled = true
	case f.Payment.Status.ConfirmedClass():
		return f.setOrderStatus(tx, domain.OrderPartialPayment)
	default:
		if f.Order.Status != domain.OrderPartialPayment {
			return f.setOrderStatus(tx, domain.OrderPaymentFail)
		}
	}
	return nil
}

type processorResponse struct {
	OutTradeNo  string `json:"out_trade_no"`
	TotalAmount string `json:"total_amount"`
	TradeNo     string `json:"trade_no"`
}

// validateProcessorResponse checks the processor-reported payload against
// local state, preferring the async notify channel when both reported.
func (f *PaymentFlow) validateProcessorResponse() error {
	raw := f.Payment.ProcessorResponseNotify
	if raw == "" {
		raw = f.Payment.ProcessorResponseReturn
	}
	if raw == "" {
		return ErrResponseMismatch
	}
	var rsp processorResponse
	if err := json.Unmarshal([]byte(raw), &rsp); err != nil {
		return ErrResponseMismatch
	}
	if rsp.OutTradeNo != strconv.FormatUint(uint64(f.Payment.ID), 10) {
		return ErrResponseMismatch
	}
	cents, err := parseAmountCents(rsp.TotalAmount)
	if err != nil || cents != f.Payment.AmountCents {
		return ErrResponseMismatch
	}
	return nil
}

// confirmPaymentAndOrder reconciles the payment status from whichever
// channels have reported and marks the order paid.
func (f *PaymentFlow) confirmPaymentAndOrder(tx *gorm.DB) error {
	hasReturn := f.Payment.ProcessorResponseReturn != ""
	hasNotify := f.Payment.ProcessorResponseNotify != ""
	switch {
	case hasReturn && hasNotify:
		f.Payment.Status = domain.PaymentConfirmed
	case hasReturn:
		f.Payment.Status = domain.PaymentClientSideConfirmed
	case hasNotify:
		f.Payment.Status = domain.PaymentProcessorConfirmed
	}
	if err := tx.Model(f.Payment).Update("status", f.Payment.Status).Error; err != nil {
		return err
	}
	if err := f.setOrderStatus(tx, domain.OrderPaymentSuccess); err != nil {
		return err
	}
	f.settled = true
	return nil
}

// confirmInventories marks the order's items purchased once the order is
// fully paid.
func (f *PaymentFlow) confirmInventories(tx *gorm.DB) error {
	if f.Order == nil || f.Order.Status != domain.OrderPaymentSuccess {
		return nil
	}
	now := time.Now()
	return tx.Model(&models.Inventory{}).
		Where("order_id = ?", f.Order.ID).
		Updates(map[string]interface{}{
			"status":       domain.InventoryPurchased,
			"purchased_at": now,
		}).Error
}

func (f *PaymentFlow) depositReward(tx *gorm.DB) error {
	if f.User == nil {
		return ErrInsufficientFund
	}
	wallets := repository.NewWalletRepository(tx)
	var err error
	if f.withdrawable {
		err = wallets.Credit(f.User.ID, f.AmountCents)
	} else {
		err = wallets.ConditionalCredit(f.User.ID, f.AmountCents)
	}
	if err != nil {
		return err
	}
	f.Payment.Status = domain.PaymentConfirmed
	return tx.Model(f.Payment).Update("status", f.Payment.Status).Error
}

// createTransaction writes the ledger entry for the payment, at most once.
func (f *PaymentFlow) createTransaction(tx *gorm.DB) error {
	ledger := repository.NewTransactionRepository(tx)
	exists, err := ledger.ExistsForOriginable(models.OriginPayment, f.Payment.ID)
	if err != nil || exists {
		return err
	}
	entry := &models.Transaction{
		AmountCents:    f.AmountCents,
		OriginableType: models.OriginPayment,
		OriginableID:   f.Payment.ID,
	}
	if f.Order != nil {
		entry.TransactableType = models.ContextOrder
		entry.TransactableID = f.Order.ID
	}
	if f.Payment.Processor == domain.ProcessorWallet && f.User != nil {
		wallet, err := repository.NewWalletRepository(tx).GetOrCreate(f.User.ID)
		if err != nil {
			return err
		}
		entry.ProcessableType = models.ActorWallet
		entry.ProcessableID = wallet.ID
	}
	return ledger.Create(entry)
}

func (f *PaymentFlow) setOrderStatus(tx *gorm.DB, status domain.OrderStatus) error {
	if err := repository.NewOrderRepository(tx).UpdateStatus(f.Order.ID, status); err != nil {
		return err
	}
	f.Order.Status = status
	return nil
}

// afterSettle runs once the settlement transaction committed. Reward
// distribution is best-effort here: a failure cannot invalidate the payment.
func (f *PaymentFlow) afterSettle() {
	if !f.settled || f.Order == nil {
		return
	}
	rewards := NewRewardService(f.svc.db, f.svc.settings, f.svc)
	if err := rewards.Distribute(f.Order.ID); err != nil {
		log.Printf("[payment] reward distribution for order %d: %v", f.Order.ID, err)
	}
}

// ExpireStalePayments marks still-unexecuted payments older than the
// configured expiry window as expired. Intended for a periodic sweep;
// anything the processor already touched is left alone.
func (s *PaymentService) ExpireStalePayments() (int64, error) {
	cutoff := time.Now().Add(-s.cfg.Payment.PaymentExpiry)
	res := s.db.Model(&models.Payment{}).
		Where("status = ? AND created_at < ?", domain.PaymentCreated, cutoff).
		Update("status", domain.PaymentExpired)
	return res.RowsAffected, res.Error
}

func parseAmountCents(s string) (int64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(v * 100)), nil
}

// firstOrNil loads a record by primary key, mapping not-found to nil.
func firstOrNil[T any](db *gorm.DB, id uint) (*T, error) {
	var rec T
	err := db.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
