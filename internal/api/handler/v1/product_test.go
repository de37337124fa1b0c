package v1

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/service"
)

type fakeProductService struct {
	products []domain.Product
	err      error
	deleted  []uint
}

func (f *fakeProductService) ListAvailable(context.Context) ([]domain.Product, error) {
	return f.products, f.err
}

func (f *fakeProductService) Get(_ context.Context, id uint) (domain.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}

	return domain.Product{}, service.ErrProductNotFound
}

func (f *fakeProductService) Delete(_ context.Context, id uint) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)

	return nil
}

func TestProductHandler(t *testing.T) {
	svc := &fakeProductService{products: []domain.Product{
		{ID: 1, Name: "Latte", Price: decimal.NewFromInt(28000), IsAvailable: true},
	}}
	h := NewProductHandler(svc)
	r := newRouter()
	r.GET("/api/products", h.HandleListProducts)
	r.GET("/api/products/:productID", h.HandleGetProduct)
	r.POST("/admin/products/delete/:productID", h.HandleDeleteProduct)

	w := doRequest(t, r, "GET", "/api/products", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Latte"`)

	w = doRequest(t, r, "GET", "/api/products/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, "GET", "/api/products/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, "GET", "/api/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, "POST", "/admin/products/delete/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint{1}, svc.deleted)

	svc.err = service.ErrProductInUse
	w = doRequest(t, r, "POST", "/admin/products/delete/1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}
