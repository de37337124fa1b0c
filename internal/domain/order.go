package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderReady      OrderStatus = "ready"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:    {OrderProcessing: true, OrderCancelled: true},
	OrderProcessing: {OrderReady: true, OrderCancelled: true},
	OrderReady:      {OrderCompleted: true, OrderCancelled: true},
	OrderCompleted:  {},
	OrderCancelled:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	return orderTransitions[s][to]
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentQRIS PaymentMethod = "qris"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentQRIS
}

// Online reports whether the method is settled through the payment gateway.
func (m PaymentMethod) Online() bool {
	return m == PaymentQRIS
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentChallenge PaymentStatus = "challenge"
)

// paid is terminal; a failed payment may still be settled by a late retry.
var paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending:   {PaymentPaid: true, PaymentFailed: true, PaymentChallenge: true},
	PaymentChallenge: {PaymentPaid: true, PaymentFailed: true},
	PaymentFailed:    {PaymentPaid: true},
	PaymentPaid:      {},
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	return paymentTransitions[s][to]
}

var (
	ErrInvalidOrderStatus   = errors.New("invalid order status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrStatusTransition     = errors.New("status transition not allowed")
)

type Order struct {
	ID                 string          `json:"id"`
	CustomerName       string          `json:"customer_name"`
	TableNumber        string          `json:"table_number"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	PaymentMethod      PaymentMethod   `json:"payment_method"`
	Status             OrderStatus     `json:"status"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	GatewayToken       string          `json:"gateway_token,omitempty"`
	GatewayOrderID     string          `json:"gateway_order_id,omitempty"`
	GatewayRedirectURL string          `json:"gateway_redirect_url,omitempty"`
	Items              []OrderItem     `json:"order_items"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// NextStatus validates a workflow move. Setting the current status again is
// reported as unchanged rather than as an error.
func (o Order) NextStatus(to OrderStatus) (changed bool, err error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidOrderStatus, to)
	}
	if o.Status == to {
		return false, nil
	}
	if !o.Status.CanTransition(to) {
		return false, fmt.Errorf("%w: %s -> %s", ErrStatusTransition, o.Status, to)
	}

	return true, nil
}

// NextPaymentStatus is NextStatus for the payment workflow.
func (o Order) NextPaymentStatus(to PaymentStatus) (changed bool, err error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, to)
	}
	if o.PaymentStatus == to {
		return false, nil
	}
	if !o.PaymentStatus.CanTransition(to) {
		return false, fmt.Errorf("%w: %s -> %s", ErrStatusTransition, o.PaymentStatus, to)
	}

	return true, nil
}

// ItemsSummary renders the items as "Latte (2x); Croissant (1x)".
func (o Order) ItemsSummary() string {
	parts := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		parts = append(parts, fmt.Sprintf("%s (%dx)", item.ProductName, item.Quantity))
	}

	return strings.Join(parts, "; ")
}

type OrderItem struct {
	ID          uint            `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	ImageURL    string          `json:"image_url,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Notes       string          `json:"notes"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderStatusView is what customers poll while waiting for a payment.
type OrderStatusView struct {
	OrderID       string        `json:"order_id"`
	Status        OrderStatus   `json:"order_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}
