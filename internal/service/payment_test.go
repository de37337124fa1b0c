package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/events"
	"github.com/vietanh2810/coffeeshop-api/internal/notify"
	"github.com/vietanh2810/coffeeshop-api/internal/payment"
)

func TestPaymentService_CreateTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	latte := f.seedProduct(t, "Latte", 25000, 10)

	_, err := f.paymentService(nil).CreateTransaction(ctx, "any")
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)

	gw := &fakeGateway{tx: payment.Transaction{Token: "tok", RedirectURL: "https://pay.example/tok", GatewayOrderID: "gw-1"}}
	svc := f.paymentService(gw)

	cash := f.placeOrder(t, latte, 1, domain.PaymentCash)
	_, err = svc.CreateTransaction(ctx, cash.ID)
	assert.ErrorIs(t, err, ErrNotOnlinePayment)

	_, err = svc.CreateTransaction(ctx, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	qris := f.placeOrder(t, latte, 1, domain.PaymentQRIS)
	tx, err := svc.CreateTransaction(ctx, qris.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", tx.Token)
	assert.Equal(t, []string{qris.ID}, gw.created)

	stored, err := f.orders.FindByGatewayOrderID(ctx, "gw-1")
	require.NoError(t, err)
	assert.Equal(t, qris.ID, stored.ID)
	assert.Equal(t, "https://pay.example/tok", stored.GatewayRedirectURL)

	_, err = svc.UpdatePaymentStatus(ctx, qris.ID, domain.PaymentPaid)
	require.NoError(t, err)
	_, err = svc.CreateTransaction(ctx, qris.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestPaymentService_HandleNotification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	latte := f.seedProduct(t, "Latte", 25000, 10)
	order := f.placeOrder(t, latte, 1, domain.PaymentQRIS)

	gw := &fakeGateway{}
	svc := f.paymentService(gw)

	status := func() domain.PaymentStatus {
		t.Helper()
		view, err := svc.Status(ctx, order.ID)
		require.NoError(t, err)
		return view.PaymentStatus
	}

	gw.notification = payment.Notification{OrderID: order.ID, Status: domain.PaymentChallenge, RawStatus: "capture"}
	require.NoError(t, svc.HandleNotification(ctx, nil, nil))
	assert.Equal(t, domain.PaymentChallenge, status())

	gw.notification = payment.Notification{OrderID: order.ID, Status: domain.PaymentPaid, RawStatus: "settlement"}
	require.NoError(t, svc.HandleNotification(ctx, nil, nil))
	assert.Equal(t, domain.PaymentPaid, status())

	// A late failure after settlement is acknowledged but not applied.
	gw.notification = payment.Notification{OrderID: order.ID, Status: domain.PaymentFailed, RawStatus: "expire"}
	require.NoError(t, svc.HandleNotification(ctx, nil, nil))
	assert.Equal(t, domain.PaymentPaid, status())

	assert.Equal(t, []string{events.TypeOrderCreated, events.TypePaymentUpdated, events.TypePaymentUpdated}, f.publisher.types)
	assert.Contains(t, f.notifier.rooms(notify.EventPaymentUpdate), notify.OrderRoom(order.ID))

	gw.notification = payment.Notification{Ignored: true}
	assert.NoError(t, svc.HandleNotification(ctx, nil, nil))

	gw.notification = payment.Notification{OrderID: "00000000-0000-0000-0000-000000000000", Status: domain.PaymentPaid}
	assert.ErrorIs(t, svc.HandleNotification(ctx, nil, nil), ErrOrderNotFound)

	gw.parseErr = payment.ErrInvalidSignature
	assert.ErrorIs(t, svc.HandleNotification(ctx, nil, nil), ErrInvalidSignature)

	assert.ErrorIs(t, f.paymentService(nil).HandleNotification(ctx, nil, nil), ErrGatewayNotConfigured)
}

func TestPaymentService_HandleNotification_ByGatewayOrderID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	latte := f.seedProduct(t, "Latte", 25000, 10)
	order := f.placeOrder(t, latte, 1, domain.PaymentQRIS)
	require.NoError(t, f.orders.UpdateGatewayTransaction(ctx, order.ID, "tok", "cs_test_123", "https://checkout.example"))

	gw := &fakeGateway{notification: payment.Notification{GatewayOrderID: "cs_test_123", Status: domain.PaymentFailed}}
	svc := f.paymentService(gw)
	require.NoError(t, svc.HandleNotification(ctx, nil, nil))

	found, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, found.PaymentStatus)
}

func TestPaymentService_UpdatePaymentStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	latte := f.seedProduct(t, "Latte", 25000, 10)
	order := f.placeOrder(t, latte, 1, domain.PaymentCash)
	svc := f.paymentService(nil)

	paid, err := svc.UpdatePaymentStatus(ctx, order.ID, domain.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, paid.PaymentStatus)

	// Admins may correct a mistaken payment, which the webhook flow never does.
	reverted, err := svc.UpdatePaymentStatus(ctx, order.ID, domain.PaymentPending)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, reverted.PaymentStatus)

	_, err = svc.UpdatePaymentStatus(ctx, order.ID, "refunded")
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentStatus)
}

func TestPaymentService_Status_WebhookDuringCacheFill(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	latte := f.seedProduct(t, "Latte", 25000, 10)
	order := f.placeOrder(t, latte, 1, domain.PaymentQRIS)

	cache := newMemStatusCache()
	gw := &fakeGateway{notification: payment.Notification{OrderID: order.ID, Status: domain.PaymentPaid, RawStatus: "settlement"}}
	webhook := NewPaymentService(gw, f.orders, f.notifier, f.publisher, cache)

	orders := &hookedOrders{OrderRepository: f.orders}
	orders.afterFind = func() {
		require.NoError(t, webhook.HandleNotification(ctx, nil, nil))
	}
	poller := NewPaymentService(gw, orders, f.notifier, f.publisher, cache)

	// The first poll read the order before the settlement was stored.
	view, err := poller.Status(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, view.PaymentStatus)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentPaid, stored.PaymentStatus)

	view, err = poller.Status(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, view.PaymentStatus)
}

func TestPaymentService_Status_CachedViewFollowsUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	latte := f.seedProduct(t, "Latte", 25000, 10)
	order := f.placeOrder(t, latte, 1, domain.PaymentQRIS)

	cache := newMemStatusCache()
	payments := NewPaymentService(&fakeGateway{}, f.orders, f.notifier, f.publisher, cache)
	orders := NewOrderService(f.orders, f.products, f.carts, f.notifier, f.publisher, cache)

	view, err := payments.Status(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, view.Status)

	_, err = orders.UpdateStatus(ctx, order.ID, domain.OrderProcessing)
	require.NoError(t, err)
	view, err = payments.Status(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderProcessing, view.Status)
	assert.Equal(t, domain.PaymentPending, view.PaymentStatus)

	_, err = payments.UpdatePaymentStatus(ctx, order.ID, domain.PaymentPaid)
	require.NoError(t, err)
	view, err = payments.Status(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderProcessing, view.Status)
	assert.Equal(t, domain.PaymentPaid, view.PaymentStatus)
}
