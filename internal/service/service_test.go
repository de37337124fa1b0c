package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vietanh2810/coffeeshop-api/internal/db"
	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/payment"
	"github.com/vietanh2810/coffeeshop-api/internal/repository"
	"github.com/vietanh2810/coffeeshop-api/internal/repository/dao"
)

type notification struct {
	Room  string
	Event string
	Data  any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(_ context.Context, room, event string, data any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, notification{Room: room, Event: event, Data: data})

	return nil
}

func (n *recordingNotifier) rooms(event string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	var rooms []string
	for _, s := range n.sent {
		if s.Event == event {
			rooms = append(rooms, s.Room)
		}
	}

	return rooms
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, _ string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.types = append(p.types, eventType)
}

type fakeGateway struct {
	tx           payment.Transaction
	notification payment.Notification
	parseErr     error
	created      []string
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) CreateTransaction(_ context.Context, order domain.Order) (payment.Transaction, error) {
	g.created = append(g.created, order.ID)
	return g.tx, nil
}

func (g *fakeGateway) ParseNotification([]byte, http.Header) (payment.Notification, error) {
	return g.notification, g.parseErr
}

type fixture struct {
	db        *gorm.DB
	products  *repository.ProductRepository
	orders    *repository.OrderRepository
	carts     *repository.MemoryCartStore
	notifier  *recordingNotifier
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gormDB, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, dao.InitTables(gormDB))
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		_ = sqlDB.Close()
	})

	return &fixture{
		db:        gormDB,
		products:  repository.NewProductRepository(dao.NewProductDAO(gormDB)),
		orders:    repository.NewOrderRepository(dao.NewOrderDAO(gormDB)),
		carts:     repository.NewMemoryCartStore(time.Hour),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}
}

func (f *fixture) orderService() *OrderService {
	return NewOrderService(f.orders, f.products, f.carts, f.notifier, f.publisher, repository.NoopStatusCache{})
}

func (f *fixture) cartService() *CartService {
	return NewCartService(f.carts, f.products)
}

func (f *fixture) paymentService(gw payment.Gateway) *PaymentService {
	return NewPaymentService(gw, f.orders, f.notifier, f.publisher, repository.NoopStatusCache{})
}

func (f *fixture) seedProduct(t *testing.T, name string, price int64, stock int) domain.Product {
	t.Helper()

	p, err := f.products.Create(context.Background(), domain.Product{
		Name:        name,
		Price:       decimal.NewFromInt(price),
		Category:    "Coffee",
		Stock:       stock,
		IsAvailable: true,
	})
	require.NoError(t, err)

	return p
}

// placeOrder fills a fresh cart with one line and checks it out.
func (f *fixture) placeOrder(t *testing.T, product domain.Product, qty int, method domain.PaymentMethod) domain.Order {
	t.Helper()

	ctx := context.Background()
	session := "session-" + product.Name
	_, err := f.cartService().Add(ctx, session, product.ID, qty, "")
	require.NoError(t, err)

	order, err := f.orderService().PlaceOrder(ctx, session, Checkout{
		CustomerName:  "Budi",
		TableNumber:   "7",
		PaymentMethod: method,
	})
	require.NoError(t, err)

	return order
}

// memStatusCache mirrors the Redis SET / SET NX semantics of repository.StatusCache.
type memStatusCache struct {
	mu    sync.Mutex
	views map[string]domain.OrderStatusView
}

func newMemStatusCache() *memStatusCache {
	return &memStatusCache{views: map[string]domain.OrderStatusView{}}
}

func (c *memStatusCache) Get(_ context.Context, orderID string) (domain.OrderStatusView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	view, ok := c.views[orderID]
	if !ok {
		return domain.OrderStatusView{}, repository.ErrCacheMiss
	}

	return view, nil
}

func (c *memStatusCache) Set(_ context.Context, view domain.OrderStatusView) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.views[view.OrderID] = view

	return nil
}

func (c *memStatusCache) SetIfAbsent(_ context.Context, view domain.OrderStatusView) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.views[view.OrderID]; !ok {
		c.views[view.OrderID] = view
	}

	return nil
}

// hookedOrders runs afterFind once, right after the first FindByID returns.
type hookedOrders struct {
	OrderRepository
	afterFind func()
}

func (h *hookedOrders) FindByID(ctx context.Context, id string) (domain.Order, error) {
	order, err := h.OrderRepository.FindByID(ctx, id)
	if h.afterFind != nil {
		hook := h.afterFind
		h.afterFind = nil
		hook()
	}

	return order, err
}
