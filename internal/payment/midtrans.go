package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/vietanh2810/coffeeshop-api/internal/config"
	"github.com/vietanh2810/coffeeshop-api/internal/domain"
)

const orderIDLength = 36

type Midtrans struct {
	client    snap.Client
	serverKey string
	now       func() time.Time
}

func NewMidtrans(conf *config.MidtransConfig) *Midtrans {
	env := midtrans.Sandbox
	if conf.IsProduction {
		env = midtrans.Production
	}

	m := &Midtrans{
		serverKey: conf.ServerKey,
		now:       time.Now,
	}
	m.client.New(conf.ServerKey, env)

	return m
}

func (m *Midtrans) Name() string {
	return "midtrans"
}

// CreateTransaction opens a Snap checkout. Midtrans rejects a reused
// order_id, so every attempt gets a timestamp suffix.
func (m *Midtrans) CreateTransaction(_ context.Context, order domain.Order) (Transaction, error) {
	gatewayOrderID := fmt.Sprintf("%s-%d", order.ID, m.now().Unix())
	gross := order.TotalAmount.Round(0).IntPart()

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  gatewayOrderID,
			GrossAmt: gross,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: order.CustomerName,
		},
	}
	if items, ok := midtransItems(order, gross); ok {
		req.Items = &items
	}

	resp, mErr := m.client.CreateTransaction(req)
	if mErr != nil {
		return Transaction{}, fmt.Errorf("m.client.CreateTransaction -> %w", mErr)
	}

	return Transaction{
		Token:          resp.Token,
		RedirectURL:    resp.RedirectURL,
		GatewayOrderID: gatewayOrderID,
	}, nil
}

// midtransItems is only sent when the item prices add up to the gross
// amount, Snap refuses the request otherwise.
func midtransItems(order domain.Order, gross int64) ([]midtrans.ItemDetails, bool) {
	var sum int64
	items := make([]midtrans.ItemDetails, 0, len(order.Items))
	for _, item := range order.Items {
		price := item.Price.Round(0).IntPart()
		sum += price * int64(item.Quantity)
		items = append(items, midtrans.ItemDetails{
			ID:    strconv.FormatUint(uint64(item.ProductID), 10),
			Name:  truncate(item.ProductName, 50),
			Price: price,
			Qty:   int32(item.Quantity),
		})
	}

	return items, len(items) > 0 && sum == gross
}

type midtransNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
}

func (m *Midtrans) ParseNotification(payload []byte, _ http.Header) (Notification, error) {
	var n midtransNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return Notification{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if n.OrderID == "" || n.TransactionStatus == "" {
		return Notification{}, fmt.Errorf("%w: missing order_id or transaction_status", ErrMalformedPayload)
	}

	expected := MidtransSignature(n.OrderID, n.StatusCode, n.GrossAmount, m.serverKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) != 1 {
		return Notification{}, ErrInvalidSignature
	}

	return Notification{
		OrderID:        orderIDFromGatewayID(n.OrderID),
		GatewayOrderID: n.OrderID,
		Status:         MidtransStatus(n.TransactionStatus, n.FraudStatus),
		RawStatus:      n.TransactionStatus,
	}, nil
}

// MidtransSignature is SHA512(order_id + status_code + gross_amount + server_key).
func MidtransSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))

	return hex.EncodeToString(sum[:])
}

// MidtransStatus maps a Midtrans transaction status to a payment status.
// Unknown combinations stay pending.
func MidtransStatus(transactionStatus, fraudStatus string) domain.PaymentStatus {
	switch transactionStatus {
	case "capture":
		switch fraudStatus {
		case "challenge":
			return domain.PaymentChallenge
		case "accept":
			return domain.PaymentPaid
		}
	case "settlement":
		return domain.PaymentPaid
	case "deny", "cancel", "expire":
		return domain.PaymentFailed
	}

	return domain.PaymentPending
}

func orderIDFromGatewayID(gatewayOrderID string) string {
	if len(gatewayOrderID) > orderIDLength {
		return gatewayOrderID[:orderIDLength]
	}

	return gatewayOrderID
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}
