// Package payment adapts online payment providers to the order payment
// workflow. A Gateway creates a hosted checkout for an order and turns the
// provider's signed webhook into a domain payment status.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vietanh2810/coffeeshop-api/internal/config"
	"github.com/vietanh2810/coffeeshop-api/internal/domain"
)

var (
	ErrInvalidSignature = errors.New("invalid notification signature")
	ErrMalformedPayload = errors.New("malformed notification payload")
	ErrUnknownProvider  = errors.New("unknown payment provider")
)

type Transaction struct {
	Token          string
	RedirectURL    string
	GatewayOrderID string
}

// Notification is a verified webhook. Ignored is set for events that carry
// no payment status change for an order.
type Notification struct {
	OrderID        string
	GatewayOrderID string
	Status         domain.PaymentStatus
	RawStatus      string
	Ignored        bool
}

type Gateway interface {
	Name() string
	CreateTransaction(ctx context.Context, order domain.Order) (Transaction, error)
	ParseNotification(payload []byte, header http.Header) (Notification, error)
}

// New builds the configured gateway. It returns a nil Gateway when online
// payment is disabled.
func New(conf *config.PaymentConfig, publicURL string) (Gateway, error) {
	if conf == nil || conf.Provider == "" {
		return nil, nil
	}

	switch conf.Provider {
	case "midtrans":
		if conf.Midtrans == nil || conf.Midtrans.ServerKey == "" {
			return nil, fmt.Errorf("payment.midtrans.server_key is required")
		}
		return NewMidtrans(conf.Midtrans), nil
	case "stripe":
		if conf.Stripe == nil || conf.Stripe.SecretKey == "" || conf.Stripe.WebhookSecret == "" {
			return nil, fmt.Errorf("payment.stripe.secret_key and webhook_secret are required")
		}
		return NewStripe(conf.Stripe, publicURL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, conf.Provider)
	}
}
