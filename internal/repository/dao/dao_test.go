package dao

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vietanh2810/coffeeshop-api/internal/db"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, InitTables(gormDB))

	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		_ = sqlDB.Close()
	})

	return gormDB
}

func seedProduct(t *testing.T, d *ProductDAO, name string, price int64, stock int) Product {
	t.Helper()

	p, err := d.Insert(context.Background(), Product{
		Name:        name,
		Price:       decimal.NewFromInt(price),
		Category:    "coffee",
		Stock:       stock,
		IsAvailable: true,
	})
	require.NoError(t, err)

	return p
}

func newOrder(productID uint, qty int, price int64) Order {
	return Order{
		CustomerName:  "Budi",
		TableNumber:   "4",
		TotalAmount:   decimal.NewFromInt(price * int64(qty)),
		PaymentMethod: "cash",
		Status:        "pending",
		PaymentStatus: "pending",
		Items: []OrderItem{
			{ProductID: productID, Quantity: qty, Price: decimal.NewFromInt(price)},
		},
	}
}

func TestProductDAO(t *testing.T) {
	ctx := context.Background()
	d := NewProductDAO(newTestDB(t))

	latte := seedProduct(t, d, "Latte", 25000, 10)
	_ = seedProduct(t, d, "Mocha", 28000, 0)

	found, err := d.FindByID(ctx, latte.ID)
	require.NoError(t, err)
	assert.Equal(t, "Latte", found.Name)
	assert.True(t, decimal.NewFromInt(25000).Equal(found.Price))

	_, err = d.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrProductNotFound)

	menu, err := d.FindMenu(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "Latte", menu[0].Name)

	available, err := d.FindAvailable(ctx)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	latte.IsAvailable = false
	latte.Stock = 0
	updated, err := d.Update(ctx, latte)
	require.NoError(t, err)
	assert.False(t, updated.IsAvailable)
	assert.Equal(t, 0, updated.Stock)

	_, err = d.Update(ctx, Product{ID: 999, Name: "Ghost", Price: decimal.NewFromInt(1), Category: "x"})
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, d.Delete(ctx, latte.ID))
	assert.ErrorIs(t, d.Delete(ctx, latte.ID), ErrProductNotFound)
}

func TestOrderDAO_Place(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	products := NewProductDAO(gormDB)
	orders := NewOrderDAO(gormDB)

	latte := seedProduct(t, products, "Latte", 25000, 5)

	placed, err := orders.Place(ctx, newOrder(latte.ID, 3, 25000), map[uint]int{latte.ID: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, placed.ID)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, placed.ID, placed.Items[0].OrderID)

	after, err := products.FindByID(ctx, latte.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.Stock)

	found, err := orders.FindByID(ctx, placed.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Latte", found.Items[0].Product.Name)

	assert.ErrorIs(t, products.Delete(ctx, latte.ID), ErrProductInUse)
}

func TestOrderDAO_Place_InsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	products := NewProductDAO(gormDB)
	orders := NewOrderDAO(gormDB)

	latte := seedProduct(t, products, "Latte", 25000, 2)

	_, err := orders.Place(ctx, newOrder(latte.ID, 3, 25000), map[uint]int{latte.ID: 3})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	after, err := products.FindByID(ctx, latte.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.Stock)

	all, err := orders.FindAll(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOrderDAO_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	products := NewProductDAO(gormDB)
	orders := NewOrderDAO(gormDB)

	latte := seedProduct(t, products, "Latte", 25000, 5)
	placed, err := orders.Place(ctx, newOrder(latte.ID, 2, 25000), map[uint]int{latte.ID: 2})
	require.NoError(t, err)

	assert.ErrorIs(t, orders.UpdateStatus(ctx, placed.ID, "ready", "completed", false), ErrStatusConflict)

	require.NoError(t, orders.UpdateStatus(ctx, placed.ID, "pending", "cancelled", true))

	after, err := products.FindByID(ctx, latte.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, after.Stock)

	found, err := orders.FindByID(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", found.Status)
}

func TestOrderDAO_PaymentAndGateway(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	products := NewProductDAO(gormDB)
	orders := NewOrderDAO(gormDB)

	latte := seedProduct(t, products, "Latte", 25000, 5)
	placed, err := orders.Place(ctx, newOrder(latte.ID, 1, 25000), map[uint]int{latte.ID: 1})
	require.NoError(t, err)

	require.NoError(t, orders.UpdateGatewayTransaction(ctx, placed.ID, "tok", "gw-1", "https://pay.example/tok"))
	assert.ErrorIs(t, orders.UpdateGatewayTransaction(ctx, "missing", "t", "g", "u"), ErrOrderNotFound)

	byGateway, err := orders.FindByGatewayOrderID(ctx, "gw-1")
	require.NoError(t, err)
	assert.Equal(t, placed.ID, byGateway.ID)
	assert.Equal(t, "tok", byGateway.GatewayToken)

	require.NoError(t, orders.UpdatePaymentStatus(ctx, placed.ID, "pending", "paid"))
	assert.ErrorIs(t, orders.UpdatePaymentStatus(ctx, placed.ID, "pending", "failed"), ErrStatusConflict)
}

func TestOrderDAO_Reports(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	products := NewProductDAO(gormDB)
	orders := NewOrderDAO(gormDB)

	latte := seedProduct(t, products, "Latte", 20000, 100)
	croissant := seedProduct(t, products, "Croissant", 15000, 100)

	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	place := func(productID uint, qty int, price int64, createdAt time.Time, payment, status string) {
		o := newOrder(productID, qty, price)
		o.CreatedAt = createdAt
		o.PaymentStatus = payment
		o.Status = status
		_, err := orders.Place(ctx, o, map[uint]int{productID: qty})
		require.NoError(t, err)
	}

	place(latte.ID, 2, 20000, day, "paid", "completed")
	place(croissant.ID, 1, 15000, day.Add(2*time.Hour), "paid", "ready")
	place(croissant.ID, 5, 15000, day.Add(3*time.Hour), "pending", "cancelled")
	place(latte.ID, 1, 20000, day.AddDate(0, 0, -10), "paid", "completed")
	place(latte.ID, 1, 20000, day.AddDate(0, -1, 0), "paid", "completed")

	startOfDay := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	today, err := orders.SumPaidBetween(ctx, startOfDay, startOfDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(55000).Equal(today), today.String())

	startOfMonth := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	month, err := orders.SumPaidBetween(ctx, startOfMonth, startOfMonth.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(75000).Equal(month), month.String())

	empty, err := orders.SumPaidBetween(ctx, startOfMonth.AddDate(1, 0, 0), startOfMonth.AddDate(1, 1, 0))
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	popular, err := orders.FindPopularProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "Latte", popular[0].Name)
	assert.Equal(t, int64(4), popular[0].Quantity)
	assert.Equal(t, int64(1), popular[1].Quantity)

	march, err := orders.FindCreatedBetween(ctx, startOfMonth, startOfMonth.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Len(t, march, 4)

	recent, err := orders.FindAll(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt))
}
