package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/service"
)

type ProductService interface {
	ListAvailable(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id uint) (domain.Product, error)
	Delete(ctx context.Context, id uint) error
}

type ProductHandler struct {
	svc ProductService
}

func NewProductHandler(svc ProductService) *ProductHandler {
	return &ProductHandler{
		svc: svc,
	}
}

// HandleListProducts godoc
// @Summary      List available products
// @Tags         products
// @Produce      json
// @Success      200  {array}   domain.Product
// @Failure      500  {object}  response.Err
// @Router       /api/products [get]
func (h *ProductHandler) HandleListProducts(ctx *gin.Context) {
	products, err := h.svc.ListAvailable(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListProducts -> h.svc.ListAvailable -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, products)
}

// HandleGetProduct godoc
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        productID  path      int  true  "Product ID"
// @Success      200        {object}  domain.Product
// @Failure      400        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /api/products/{productID} [get]
func (h *ProductHandler) HandleGetProduct(ctx *gin.Context) {
	id, err := uintParam(ctx, "productID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	product, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("product", "id", id))
			return
		}
		err = fmt.Errorf("v1.HandleGetProduct -> h.svc.Get -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, product)
}

// HandleDeleteProduct godoc
// @Summary      Delete a product
// @Tags         admin
// @Produce      json
// @Param        productID  path      int  true  "Product ID"
// @Success      200        {object}  map[string]any
// @Failure      401        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /admin/products/delete/{productID} [post]
func (h *ProductHandler) HandleDeleteProduct(ctx *gin.Context) {
	id, err := uintParam(ctx, "productID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = h.svc.Delete(ctx.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			response.RenderErr(ctx, response.ErrNotFound("product", "id", id))
		case errors.Is(err, service.ErrProductInUse):
			response.RenderErr(ctx, response.ErrConflict(service.ErrProductInUse))
		default:
			err = fmt.Errorf("v1.HandleDeleteProduct -> h.svc.Delete -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
