package v1

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/service"
)

type fakeCartService struct {
	cart    domain.Cart
	err     error
	session string
	added   []uint
	cleared bool
}

func (f *fakeCartService) Get(_ context.Context, sessionID string) (domain.Cart, error) {
	f.session = sessionID
	return f.cart, f.err
}

func (f *fakeCartService) Add(_ context.Context, sessionID string, productID uint, quantity int, notes string) (domain.Cart, error) {
	f.session = sessionID
	if f.err != nil {
		return domain.Cart{}, f.err
	}
	f.added = append(f.added, productID)
	f.cart.Add(domain.CartItem{ProductID: productID, Quantity: quantity, Notes: notes, Price: decimal.NewFromInt(10000)})

	return f.cart, nil
}

func (f *fakeCartService) Update(_ context.Context, _ string, index, quantity int) (domain.Cart, error) {
	f.cart.Update(index, quantity)
	return f.cart, f.err
}

func (f *fakeCartService) Remove(_ context.Context, _ string, index int) (domain.Cart, error) {
	f.cart.Remove(index)
	return f.cart, f.err
}

func (f *fakeCartService) Clear(context.Context, string) error {
	f.cleared = true
	return f.err
}

func newCartRouter(svc *fakeCartService) http.Handler {
	h := NewCartHandler(svc)
	r := newRouter()
	r.GET("/cart", h.HandleGetCart)
	r.POST("/cart/add", h.HandleAddToCart)
	r.POST("/cart/update", h.HandleUpdateCart)
	r.POST("/cart/remove", h.HandleRemoveFromCart)
	r.POST("/cart/clear", h.HandleClearCart)

	return r
}

func TestCartHandler_Add(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]any
		err        error
		wantStatus int
	}{
		{name: "added", body: map[string]any{"product_id": 3, "quantity": 2, "notes": "less ice"}, wantStatus: http.StatusOK},
		{name: "missing product", body: map[string]any{"quantity": 2}, wantStatus: http.StatusBadRequest},
		{name: "quantity too large", body: map[string]any{"product_id": 3, "quantity": 100}, wantStatus: http.StatusBadRequest},
		{name: "unknown product", body: map[string]any{"product_id": 3, "quantity": 1}, err: service.ErrProductNotFound, wantStatus: http.StatusNotFound},
		{name: "sold out", body: map[string]any{"product_id": 3, "quantity": 1}, err: service.ErrInsufficientStock, wantStatus: http.StatusBadRequest},
		{name: "store down", body: map[string]any{"product_id": 3, "quantity": 1}, err: errors.New("redis down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeCartService{err: tt.err}
			w := doRequest(t, newCartRouter(svc), http.MethodPost, "/cart/add", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, true, body["success"])
				assert.EqualValues(t, 1, body["cartCount"])
				assert.NotEmpty(t, svc.session)
			} else {
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestCartHandler_GetUpdateRemoveClear(t *testing.T) {
	svc := &fakeCartService{cart: domain.Cart{Items: []domain.CartItem{
		{ProductID: 1, Name: "Latte", Quantity: 1, Price: decimal.NewFromInt(28000)},
		{ProductID: 2, Name: "Croissant", Quantity: 2, Price: decimal.NewFromInt(20000)},
	}}}
	r := newCartRouter(svc)

	w := doRequest(t, r, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 2, body["cartCount"])
	assert.Len(t, body["cart"], 2)

	w = doRequest(t, r, http.MethodPost, "/cart/update", map[string]any{"index": 0, "quantity": 3})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, svc.cart.Items[0].Quantity)

	w = doRequest(t, r, http.MethodPost, "/cart/remove", map[string]any{"index": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["cart"], 1)

	w = doRequest(t, r, http.MethodPost, "/cart/clear", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.cleared)
}

func TestCartHandler_EmptyCartEncodesAsArray(t *testing.T) {
	w := doRequest(t, newCartRouter(&fakeCartService{}), http.MethodGet, "/cart", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cart":[]`)
}
