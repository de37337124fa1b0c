package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/events"
	"github.com/vietanh2810/coffeeshop-api/internal/metrics"
	"github.com/vietanh2810/coffeeshop-api/internal/notify"
	"github.com/vietanh2810/coffeeshop-api/internal/payment"
	"github.com/vietanh2810/coffeeshop-api/internal/repository"
)

var (
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrNotOnlinePayment     = errors.New("order is not paid online")
	ErrAlreadyPaid          = errors.New("order is already paid")
	ErrInvalidSignature     = payment.ErrInvalidSignature
	ErrMalformedPayload     = payment.ErrMalformedPayload
)

type PaymentService struct {
	gateway   payment.Gateway
	orders    OrderRepository
	notifier  Notifier
	publisher Publisher
	cache     StatusCache
}

// NewPaymentService accepts a nil gateway when online payment is disabled.
func NewPaymentService(
	gateway payment.Gateway,
	orders OrderRepository,
	notifier Notifier,
	publisher Publisher,
	cache StatusCache,
) *PaymentService {
	return &PaymentService{
		gateway:   gateway,
		orders:    orders,
		notifier:  notifier,
		publisher: publisher,
		cache:     cache,
	}
}

func (s *PaymentService) Enabled() bool {
	return s.gateway != nil
}

// CreateTransaction opens a hosted checkout at the gateway for an online order.
func (s *PaymentService) CreateTransaction(ctx context.Context, orderID string) (payment.Transaction, error) {
	if s.gateway == nil {
		return payment.Transaction{}, ErrGatewayNotConfigured
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return payment.Transaction{}, fmt.Errorf("s.orders.FindByID -> %w", err)
	}
	if !order.PaymentMethod.Online() {
		return payment.Transaction{}, ErrNotOnlinePayment
	}
	if order.PaymentStatus == domain.PaymentPaid {
		return payment.Transaction{}, ErrAlreadyPaid
	}

	tx, err := s.gateway.CreateTransaction(ctx, order)
	if err != nil {
		return payment.Transaction{}, fmt.Errorf("s.gateway.CreateTransaction -> %w", err)
	}

	if err = s.orders.UpdateGatewayTransaction(ctx, order.ID, tx.Token, tx.GatewayOrderID, tx.RedirectURL); err != nil {
		return payment.Transaction{}, fmt.Errorf("s.orders.UpdateGatewayTransaction -> %w", err)
	}

	return tx, nil
}

// HandleNotification applies a gateway webhook. Statuses the payment workflow
// does not allow from the current one are acknowledged and dropped.
func (s *PaymentService) HandleNotification(ctx context.Context, payload []byte, header http.Header) error {
	if s.gateway == nil {
		return ErrGatewayNotConfigured
	}
	provider := s.gateway.Name()

	n, err := s.gateway.ParseNotification(payload, header)
	if err != nil {
		metrics.PaymentNotifications.WithLabelValues(provider, "rejected").Inc()
		return fmt.Errorf("s.gateway.ParseNotification -> %w", err)
	}
	if n.Ignored {
		metrics.PaymentNotifications.WithLabelValues(provider, "ignored").Inc()
		return nil
	}

	order, err := s.findNotified(ctx, n)
	if err != nil {
		metrics.PaymentNotifications.WithLabelValues(provider, "unknown_order").Inc()
		return err
	}

	changed, err := order.NextPaymentStatus(n.Status)
	if err != nil {
		metrics.PaymentNotifications.WithLabelValues(provider, "ignored").Inc()
		zap.L().Info("ignoring payment notification",
			zap.String("order_id", order.ID),
			zap.String("current", string(order.PaymentStatus)),
			zap.String("received", n.RawStatus),
			zap.Error(err),
		)
		return nil
	}
	if !changed {
		metrics.PaymentNotifications.WithLabelValues(provider, "unchanged").Inc()
		return nil
	}

	if err = s.apply(ctx, order, n.Status); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			metrics.PaymentNotifications.WithLabelValues(provider, "ignored").Inc()
			return nil
		}
		return err
	}
	metrics.PaymentNotifications.WithLabelValues(provider, "applied").Inc()

	return nil
}

// UpdatePaymentStatus is the admin override: any valid status may be set.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, fmt.Errorf("%w: %q", domain.ErrInvalidPaymentStatus, status)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("s.orders.FindByID -> %w", err)
	}
	if order.PaymentStatus == status {
		return order, nil
	}

	if err = s.apply(ctx, order, status); err != nil {
		return domain.Order{}, err
	}
	order.PaymentStatus = status

	return order, nil
}

// Status is polled by the payment page every few seconds.
func (s *PaymentService) Status(ctx context.Context, orderID string) (domain.OrderStatusView, error) {
	view, err := s.cache.Get(ctx, orderID)
	if err == nil {
		return view, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		zap.L().Warn("read status cache", zap.String("order_id", orderID), zap.Error(err))
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.OrderStatusView{}, fmt.Errorf("s.orders.FindByID -> %w", err)
	}

	view = domain.OrderStatusView{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
	}
	// A write that landed after FindByID wins over this fill.
	if err = s.cache.SetIfAbsent(ctx, view); err != nil {
		zap.L().Warn("fill status cache", zap.String("order_id", orderID), zap.Error(err))
	}

	return view, nil
}

func (s *PaymentService) findNotified(ctx context.Context, n payment.Notification) (domain.Order, error) {
	if n.OrderID != "" {
		order, err := s.orders.FindByID(ctx, n.OrderID)
		switch {
		case err == nil:
			return order, nil
		case !errors.Is(err, ErrOrderNotFound) || n.GatewayOrderID == "":
			return domain.Order{}, fmt.Errorf("s.orders.FindByID -> %w", err)
		}
	}

	order, err := s.orders.FindByGatewayOrderID(ctx, n.GatewayOrderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("s.orders.FindByGatewayOrderID -> %w", err)
	}

	return order, nil
}

func (s *PaymentService) apply(ctx context.Context, order domain.Order, status domain.PaymentStatus) error {
	if err := s.orders.UpdatePaymentStatus(ctx, order.ID, order.PaymentStatus, status); err != nil {
		return fmt.Errorf("s.orders.UpdatePaymentStatus -> %w", err)
	}
	metrics.PaymentStatusChanges.WithLabelValues(string(status)).Inc()

	view := domain.OrderStatusView{OrderID: order.ID, Status: order.Status, PaymentStatus: status}
	if err := s.cache.Set(ctx, view); err != nil {
		zap.L().Warn("write status cache", zap.String("order_id", order.ID), zap.Error(err))
	}

	payload := map[string]any{"orderId": order.ID, "payment_status": status}
	s.publisher.Publish(ctx, events.TypePaymentUpdated, order.ID, payload)
	for _, room := range []string{notify.OrderRoom(order.ID), notify.AdminRoom} {
		if err := s.notifier.Notify(ctx, room, notify.EventPaymentUpdate, payload); err != nil {
			zap.L().Warn("realtime notification", zap.String("room", room), zap.Error(err))
		}
	}

	return nil
}
