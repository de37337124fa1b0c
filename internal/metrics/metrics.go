package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coffeeshop"

var (
	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders placed, by payment method.",
	}, []string{"payment_method"})

	OrderRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_rejections_total",
		Help:      "Order placements refused before reaching the database, by reason.",
	}, []string{"reason"})

	OrderStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_changes_total",
		Help:      "Order workflow transitions, by target status.",
	}, []string{"status"})

	PaymentNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_notifications_total",
		Help:      "Gateway webhooks received, by provider and outcome.",
	}, []string{"provider", "outcome"})

	PaymentStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_status_changes_total",
		Help:      "Payment status transitions applied, by target status.",
	}, []string{"status"})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_clients",
		Help:      "Connected realtime clients.",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Domain events handed to the broker, by type and result.",
	}, []string{"type", "result"})
)
