package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.cartService()

	latte := f.seedProduct(t, "Latte", 25000, 3)
	muffin := f.seedProduct(t, "Muffin", 15000, 10)

	cart, err := svc.Add(ctx, "s", latte.ID, 1, "oat milk")
	require.NoError(t, err)
	cart, err = svc.Add(ctx, "s", latte.ID, 1, "oat milk")
	require.NoError(t, err)
	cart, err = svc.Add(ctx, "s", muffin.ID, 2, "<script>x</script>warm")
	require.NoError(t, err)

	require.Equal(t, 2, cart.Count())
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "Latte", cart.Items[0].Name)
	assert.Equal(t, "warm", cart.Items[1].Notes)
	assert.Equal(t, "80000", cart.Total().String())

	_, err = svc.Add(ctx, "s", latte.ID, 2, "")
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = svc.Add(ctx, "s", latte.ID, 0, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Add(ctx, "s", 404, 1, "")
	assert.ErrorIs(t, err, ErrProductNotFound)

	cart, err = svc.Update(ctx, "s", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[1].Quantity)

	cart, err = svc.Update(ctx, "s", 9, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Count())

	cart, err = svc.Update(ctx, "s", 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, cart.Count())
	assert.Equal(t, "Muffin", cart.Items[0].Name)

	cart, err = svc.Remove(ctx, "s", 0)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	_, err = svc.Add(ctx, "s", muffin.ID, 1, "")
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "s"))
	cart, err = svc.Get(ctx, "s")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCartService_UnavailableProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.cartService()

	latte := f.seedProduct(t, "Latte", 25000, 3)
	latte.IsAvailable = false
	_, err := f.products.Update(ctx, latte)
	require.NoError(t, err)

	_, err = svc.Add(ctx, "s", latte.ID, 1, "")
	assert.ErrorIs(t, err, ErrProductUnavailable)
}
