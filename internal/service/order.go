package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/events"
	"github.com/vietanh2810/coffeeshop-api/internal/metrics"
	"github.com/vietanh2810/coffeeshop-api/internal/notify"
	"github.com/vietanh2810/coffeeshop-api/internal/pkg/sanitize"
	"github.com/vietanh2810/coffeeshop-api/internal/repository"
)

var (
	ErrOrderNotFound     = repository.ErrOrderNotFound
	ErrInsufficientStock = repository.ErrInsufficientStock
	ErrStatusConflict    = repository.ErrStatusConflict
	ErrStatusTransition  = domain.ErrStatusTransition
	ErrInvalidStatus     = domain.ErrInvalidOrderStatus
	ErrCartEmpty         = errors.New("cart is empty")
	ErrInvalidPayment    = errors.New("invalid payment method")
	ErrInvalidPeriod     = errors.New("invalid month or year")
)

const (
	popularProductsLimit = 5
	recentOrdersLimit    = 5
)

var csvHeader = []string{
	"Order ID", "Customer Name", "Table Number", "Total Amount", "Status",
	"Payment Method", "Payment Status", "Date", "Items",
}

type OrderRepository interface {
	Place(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id string) (domain.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (domain.Order, error)
	FindAll(ctx context.Context, limit int) ([]domain.Order, error)
	FindCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id string, from, to domain.PaymentStatus) error
	UpdateGatewayTransaction(ctx context.Context, id, token, gatewayOrderID, redirectURL string) error
	SumPaidBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	FindPopularProducts(ctx context.Context, limit int) ([]domain.PopularProduct, error)
}

type ProductLookup interface {
	FindByIDs(ctx context.Context, ids []uint) ([]domain.Product, error)
}

// Notifier pushes realtime events to the sockets joined to a room.
type Notifier interface {
	Notify(ctx context.Context, room, event string, data any) error
}

type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
}

type StatusCache interface {
	Get(ctx context.Context, orderID string) (domain.OrderStatusView, error)
	Set(ctx context.Context, view domain.OrderStatusView) error
	SetIfAbsent(ctx context.Context, view domain.OrderStatusView) error
}

type Checkout struct {
	CustomerName  string
	TableNumber   string
	PaymentMethod domain.PaymentMethod
}

type OrderService struct {
	orders    OrderRepository
	products  ProductLookup
	carts     CartStore
	notifier  Notifier
	publisher Publisher
	cache     StatusCache
	now       func() time.Time
}

func NewOrderService(
	orders OrderRepository,
	products ProductLookup,
	carts CartStore,
	notifier Notifier,
	publisher Publisher,
	cache StatusCache,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		carts:     carts,
		notifier:  notifier,
		publisher: publisher,
		cache:     cache,
		now:       time.Now,
	}
}

// PlaceOrder turns the session cart into an order. Prices come from the
// catalog, and the stock decrement happens in the same transaction as the
// insert so a concurrent order can never oversell.
func (s *OrderService) PlaceOrder(ctx context.Context, sessionID string, checkout Checkout) (domain.Order, error) {
	if !checkout.PaymentMethod.Valid() {
		return domain.Order{}, fmt.Errorf("%w: %q", ErrInvalidPayment, checkout.PaymentMethod)
	}

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("s.carts.Get -> %w", err)
	}
	if cart.IsEmpty() {
		metrics.OrderRejections.WithLabelValues("empty_cart").Inc()
		return domain.Order{}, ErrCartEmpty
	}

	quantities := cart.Quantities()
	ids := make([]uint, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return domain.Order{}, fmt.Errorf("s.products.FindByIDs -> %w", err)
	}
	catalog := make(map[uint]domain.Product, len(found))
	for _, p := range found {
		catalog[p.ID] = p
	}

	for _, id := range ids {
		p, ok := catalog[id]
		if !ok {
			metrics.OrderRejections.WithLabelValues("not_found").Inc()
			return domain.Order{}, rejected(ErrProductNotFound, "product %d not found", id)
		}
		if !p.IsAvailable {
			metrics.OrderRejections.WithLabelValues("unavailable").Inc()
			return domain.Order{}, rejected(ErrProductUnavailable, "%s is not available", p.Name)
		}
		if p.Stock < quantities[id] {
			metrics.OrderRejections.WithLabelValues("stock").Inc()
			return domain.Order{}, rejected(ErrInsufficientStock, "insufficient stock for %s", p.Name)
		}
	}

	order := domain.Order{
		CustomerName:  sanitize.Text(checkout.CustomerName),
		TableNumber:   sanitize.Text(checkout.TableNumber),
		PaymentMethod: checkout.PaymentMethod,
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentPending,
		TotalAmount:   decimal.Zero,
	}
	for _, line := range cart.Items {
		p := catalog[line.ProductID]
		item := domain.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			ImageURL:    p.ImageURL,
			Quantity:    line.Quantity,
			Price:       p.Price,
			Notes:       line.Notes,
		}
		order.Items = append(order.Items, item)
		order.TotalAmount = order.TotalAmount.Add(item.Subtotal())
	}

	placed, err := s.orders.Place(ctx, order)
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			metrics.OrderRejections.WithLabelValues("stock").Inc()
		}
		return domain.Order{}, fmt.Errorf("s.orders.Place -> %w", err)
	}
	metrics.OrdersPlaced.WithLabelValues(string(placed.PaymentMethod)).Inc()

	if err = s.carts.Delete(ctx, sessionID); err != nil {
		zap.L().Warn("clear cart after order", zap.String("order_id", placed.ID), zap.Error(err))
	}

	s.publisher.Publish(ctx, events.TypeOrderCreated, placed.ID, placed)
	s.notify(ctx, notify.AdminRoom, notify.EventNewOrder, map[string]any{
		"orderId":       placed.ID,
		"customerName":  placed.CustomerName,
		"tableNumber":   placed.TableNumber,
		"totalAmount":   placed.TotalAmount,
		"paymentMethod": placed.PaymentMethod,
	})

	return placed, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("s.orders.FindByID -> %w", err)
	}

	return order, nil
}

// List returns every order with its items, newest first.
func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.FindAll(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("s.orders.FindAll -> %w", err)
	}

	return orders, nil
}

// UpdateStatus moves an order through the kitchen workflow and pushes the
// change to whoever tracks it.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	changed, err := order.NextStatus(status)
	if err != nil {
		return domain.Order{}, err
	}
	if !changed {
		return order, nil
	}

	if err = s.orders.UpdateStatus(ctx, id, order.Status, status); err != nil {
		return domain.Order{}, fmt.Errorf("s.orders.UpdateStatus -> %w", err)
	}
	order.Status = status
	metrics.OrderStatusChanges.WithLabelValues(string(status)).Inc()

	view := domain.OrderStatusView{OrderID: id, Status: status, PaymentStatus: order.PaymentStatus}
	if err = s.cache.Set(ctx, view); err != nil {
		zap.L().Warn("write status cache", zap.String("order_id", id), zap.Error(err))
	}

	payload := map[string]any{"orderId": id, "status": status}
	s.publisher.Publish(ctx, events.TypeOrderStatusChanged, id, payload)
	s.notify(ctx, notify.OrderRoom(id), notify.EventOrderUpdate, payload)
	s.notify(ctx, notify.AdminRoom, notify.EventOrderUpdate, payload)

	return order, nil
}

// Dashboard never fails: a query error is logged and its figure left at zero.
func (s *OrderService) Dashboard(ctx context.Context) domain.Dashboard {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	dash := domain.Dashboard{
		TodaySales:      decimal.Zero,
		MonthSales:      decimal.Zero,
		PopularProducts: []domain.PopularProduct{},
		RecentOrders:    []domain.Order{},
	}

	if sum, err := s.orders.SumPaidBetween(ctx, startOfDay, startOfDay.AddDate(0, 0, 1)); err != nil {
		zap.L().Error("dashboard today sales", zap.Error(err))
	} else {
		dash.TodaySales = sum
	}

	if sum, err := s.orders.SumPaidBetween(ctx, startOfMonth, startOfMonth.AddDate(0, 1, 0)); err != nil {
		zap.L().Error("dashboard month sales", zap.Error(err))
	} else {
		dash.MonthSales = sum
	}

	if popular, err := s.orders.FindPopularProducts(ctx, popularProductsLimit); err != nil {
		zap.L().Error("dashboard popular products", zap.Error(err))
	} else if popular != nil {
		dash.PopularProducts = popular
	}

	if recent, err := s.orders.FindAll(ctx, recentOrdersLimit); err != nil {
		zap.L().Error("dashboard recent orders", zap.Error(err))
	} else if recent != nil {
		dash.RecentOrders = recent
	}

	return dash
}

// ExportCSV writes the orders created during the given calendar month.
func (s *OrderService) ExportCSV(ctx context.Context, w io.Writer, year, month int) error {
	if month < 1 || month > 12 || year < 2000 || year > 9999 {
		return ErrInvalidPeriod
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.now().Location())
	orders, err := s.orders.FindCreatedBetween(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return fmt.Errorf("s.orders.FindCreatedBetween -> %w", err)
	}

	cw := csv.NewWriter(w)
	if err = cw.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range orders {
		record := []string{
			o.ID,
			o.CustomerName,
			o.TableNumber,
			o.TotalAmount.StringFixed(2),
			string(o.Status),
			string(o.PaymentMethod),
			string(o.PaymentStatus),
			o.CreatedAt.In(from.Location()).Format("2006-01-02 15:04:05"),
			o.ItemsSummary(),
		}
		if err = cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()

	return cw.Error()
}

// ExportFilename is the attachment name used for a monthly export.
func ExportFilename(year, month int) string {
	return fmt.Sprintf("orders-%d-%d.csv", month, year)
}

func (s *OrderService) notify(ctx context.Context, room, event string, data any) {
	if err := s.notifier.Notify(ctx, room, event, data); err != nil {
		zap.L().Warn("realtime notification", zap.String("room", room), zap.String("event", event), zap.Error(err))
	}
}

// rejectionError carries the message shown to the customer while still
// matching its sentinel with errors.Is.
type rejectionError struct {
	msg string
	err error
}

func rejected(sentinel error, format string, args ...any) error {
	return &rejectionError{msg: fmt.Sprintf(format, args...), err: sentinel}
}

func (e *rejectionError) Error() string { return e.msg }

func (e *rejectionError) Unwrap() error { return e.err }
