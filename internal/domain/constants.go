package domain

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// Processor identifies who moves the money for a payment.
type Processor int

const (
	ProcessorWallet Processor = 0
	ProcessorAlipay Processor = 1
)

func (p Processor) String() string {
	switch p {
	case ProcessorWallet:
		return "wallet"
	case ProcessorAlipay:
		return "alipay"
	}
	return "unknown"
}

// ParseProcessor maps the wire name of a processor to its code.
func ParseProcessor(s string) (Processor, bool) {
	switch s {
	case "wallet":
		return ProcessorWallet, true
	case "alipay":
		return ProcessorAlipay, true
	}
	return 0, false
}

// Variety is the business purpose of a payment record.
type Variety int

const (
	VarietyCharge   Variety = 0
	VarietyRefund   Variety = 1
	VarietyTransfer Variety = 2
	VarietyReward   Variety = 3
)

func (v Variety) String() string {
	switch v {
	case VarietyCharge:
		return "charge"
	case VarietyRefund:
		return "refund"
	case VarietyTransfer:
		return "transfer"
	case VarietyReward:
		return "reward"
	}
	return "unknown"
}

// PaymentStatus codes are ordered: anything at or above
// PaymentClientSideConfirmed counts as a confirmed-class payment when
// summing what an order has collected.
type PaymentStatus int

const (
	PaymentCreated             PaymentStatus = 0
	PaymentInsufficientFund    PaymentStatus = 5
	PaymentTimeout             PaymentStatus = 10
	PaymentExpired             PaymentStatus = 15
	PaymentClientSideConfirmed PaymentStatus = 20
	PaymentProcessorConfirmed  PaymentStatus = 30
	PaymentConfirmed           PaymentStatus = 40
)

// ConfirmedClass reports whether the status means the processor (or wallet)
// actually captured funds.
func (s PaymentStatus) ConfirmedClass() bool {
	return s >= PaymentClientSideConfirmed
}

// OrderStatus codes are ordered along the checkout pipeline. Charges may only
// be created while the order sits in the [OrderConfirmed, OrderPaymentSuccess)
// band; rewards require OrderPaymentSuccess or later.
type OrderStatus int

const (
	OrderCreated           OrderStatus = 0
	OrderShippingSelected  OrderStatus = 5
	OrderShippingConfirmed OrderStatus = 10
	OrderAddressConfirmed  OrderStatus = 15
	OrderConfirmed         OrderStatus = 20
	OrderPaymentPending    OrderStatus = 30
	OrderPartialPayment    OrderStatus = 40
	OrderPaymentFail       OrderStatus = 50
	OrderPaymentSuccess    OrderStatus = 60
)

// Chargeable reports whether a charge may be created against the order.
// Failed and partially paid orders stay in the band so follow-up charges
// can complete them.
func (s OrderStatus) Chargeable() bool {
	return s >= OrderConfirmed && s < OrderPaymentSuccess
}

// Rewardable reports whether reward payments may be created for the order.
func (s OrderStatus) Rewardable() bool {
	return s >= OrderPaymentSuccess
}

func (s OrderStatus) String() string {
	switch s {
	case OrderCreated:
		return "created"
	case OrderShippingSelected:
		return "shipping_selected"
	case OrderShippingConfirmed:
		return "shipping_confirmed"
	case OrderAddressConfirmed:
		return "address_confirmed"
	case OrderConfirmed:
		return "confirmed"
	case OrderPaymentPending:
		return "payment_pending"
	case OrderPartialPayment:
		return "partial_payment"
	case OrderPaymentFail:
		return "payment_fail"
	case OrderPaymentSuccess:
		return "payment_success"
	}
	return "unknown"
}

// InventoryStatus tracks a purchasable item through cart, order and sale.
type InventoryStatus int

const (
	InventoryUnsold           InventoryStatus = 0
	InventoryInCart           InventoryStatus = 1
	InventoryInOrder          InventoryStatus = 2
	InventoryInOrderConfirmed InventoryStatus = 3
	InventoryPurchased        InventoryStatus = 4
	InventoryReturned         InventoryStatus = 5
)

// System setting keys.
const (
	SettingRewardPercent = "reward_percent" // referral reward, percent of order total
)

// Transfer statuses.
const (
	TransferPending   = "PENDING"
	TransferCompleted = "COMPLETED"
	TransferFailed    = "FAILED"
)
