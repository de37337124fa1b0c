package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"

	"github.com/vietanh2810/coffeeshop-api/internal/config"
	"github.com/vietanh2810/coffeeshop-api/internal/domain"
)

// Currencies Stripe charges in whole units.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

type Stripe struct {
	api           *client.API
	webhookSecret string
	currency      string
	publicURL     string
}

func NewStripe(conf *config.StripeConfig, publicURL string) *Stripe {
	api := &client.API{}
	api.Init(conf.SecretKey, nil)

	return &Stripe{
		api:           api,
		webhookSecret: conf.WebhookSecret,
		currency:      strings.ToLower(conf.Currency),
		publicURL:     strings.TrimRight(publicURL, "/"),
	}
}

func (s *Stripe) Name() string {
	return "stripe"
}

func (s *Stripe) CreateTransaction(ctx context.Context, order domain.Order) (Transaction, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		ClientReferenceID:  stripe.String(order.ID),
		SuccessURL:         stripe.String(s.publicURL + "/order/" + order.ID),
		CancelURL:          stripe.String(s.publicURL + "/payment/" + order.ID),
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.ID)

	for _, item := range order.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.ProductName),
				},
				UnitAmount: stripe.Int64(minorUnits(item.Price, s.currency)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return Transaction{}, fmt.Errorf("s.api.CheckoutSessions.New -> %w", err)
	}

	return Transaction{
		Token:          sess.ID,
		RedirectURL:    sess.URL,
		GatewayOrderID: sess.ID,
	}, nil
}

func (s *Stripe) ParseNotification(payload []byte, header http.Header) (Notification, error) {
	event, err := webhook.ConstructEvent(payload, header.Get("Stripe-Signature"), s.webhookSecret)
	if err != nil {
		return Notification{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	var status domain.PaymentStatus
	switch event.Type {
	case "checkout.session.completed":
		status = domain.PaymentPending
	case "checkout.session.async_payment_succeeded":
		status = domain.PaymentPaid
	case "checkout.session.async_payment_failed", "checkout.session.expired":
		status = domain.PaymentFailed
	default:
		return Notification{RawStatus: event.Type, Ignored: true}, nil
	}

	var sess stripe.CheckoutSession
	if err = json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return Notification{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	// A completed session is only settled when the card was charged
	// synchronously, delayed methods follow up with async_payment_*.
	if event.Type == "checkout.session.completed" && sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		status = domain.PaymentPaid
	}

	orderID := sess.ClientReferenceID
	if orderID == "" {
		orderID = sess.Metadata["order_id"]
	}
	if orderID == "" {
		return Notification{}, fmt.Errorf("%w: session %s has no order reference", ErrMalformedPayload, sess.ID)
	}

	return Notification{
		OrderID:        orderID,
		GatewayOrderID: sess.ID,
		Status:         status,
		RawStatus:      event.Type,
	}, nil
}

func minorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[currency] {
		return amount.Round(0).IntPart()
	}

	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
