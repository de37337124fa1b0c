package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
)

func TestProductService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewProductService(f.products)

	created, err := svc.Save(ctx, domain.Product{
		Name:        " Iced <i>Latte</i> ",
		Description: "Espresso & cold milk",
		Price:       decimal.NewFromInt(28000),
		Category:    "Coffee",
		Stock:       4,
		IsAvailable: true,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Iced Latte", created.Name)
	assert.Equal(t, "Espresso & cold milk", created.Description)

	_, err = svc.Save(ctx, domain.Product{Name: "Iced Latte", Price: decimal.NewFromInt(1), Category: "Coffee"})
	assert.ErrorIs(t, err, ErrProductNameExists)

	_, err = svc.Save(ctx, domain.Product{Name: "Scone", Price: decimal.NewFromInt(12000), Category: "Pastry", Stock: 0, IsAvailable: true})
	require.NoError(t, err)

	menu, err := svc.ListMenu(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "Coffee", menu[0].Name)

	available, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	created.Stock = 9
	created.IsAvailable = false
	updated, err := svc.Save(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)
	assert.False(t, updated.IsAvailable)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), ErrProductNotFound)
}

func TestProductService_DeleteInUse(t *testing.T) {
	f := newFixture(t)
	svc := NewProductService(f.products)

	latte := f.seedProduct(t, "Latte", 25000, 5)
	f.placeOrder(t, latte, 1, domain.PaymentCash)

	assert.ErrorIs(t, svc.Delete(context.Background(), latte.ID), ErrProductInUse)
}
