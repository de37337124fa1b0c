package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/coffeeshop-api/internal/api/middleware"
	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/service"
)

type CartService interface {
	Get(ctx context.Context, sessionID string) (domain.Cart, error)
	Add(ctx context.Context, sessionID string, productID uint, quantity int, notes string) (domain.Cart, error)
	Update(ctx context.Context, sessionID string, index, quantity int) (domain.Cart, error)
	Remove(ctx context.Context, sessionID string, index int) (domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type CartHandler struct {
	svc CartService
}

func NewCartHandler(svc CartService) *CartHandler {
	return &CartHandler{
		svc: svc,
	}
}

// HandleGetCart godoc
// @Summary      Show the session cart
// @Tags         cart
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      500  {object}  response.Err
// @Router       /cart [get]
func (h *CartHandler) HandleGetCart(ctx *gin.Context) {
	cart, err := h.svc.Get(ctx.Request.Context(), middleware.SessionID(ctx))
	if err != nil {
		err = fmt.Errorf("v1.HandleGetCart -> h.svc.Get -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":   true,
		"cart":      cartItems(cart),
		"cartCount": cart.Count(),
		"total":     cart.Total(),
	})
}

// HandleAddToCart godoc
// @Summary      Add a product to the session cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request  body      request.AddToCartRequest  true  "request body"
// @Success      200      {object}  map[string]any
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /cart/add [post]
func (h *CartHandler) HandleAddToCart(ctx *gin.Context) {
	var req request.AddToCartRequest
	if err := ctx.ShouldBind(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	cart, err := h.svc.Add(ctx.Request.Context(), middleware.SessionID(ctx), req.ProductID, req.Quantity, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			response.RenderErr(ctx, response.ErrNotFound("product", "id", req.ProductID))
		case errors.Is(err, service.ErrProductUnavailable),
			errors.Is(err, service.ErrInsufficientStock),
			errors.Is(err, service.ErrInvalidQuantity):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleAddToCart -> h.svc.Add -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "cartCount": cart.Count()})
}

// HandleUpdateCart godoc
// @Summary      Change the quantity of a cart line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request  body      request.UpdateCartRequest  true  "request body"
// @Success      200      {object}  map[string]any
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /cart/update [post]
func (h *CartHandler) HandleUpdateCart(ctx *gin.Context) {
	var req request.UpdateCartRequest
	if err := ctx.ShouldBind(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	cart, err := h.svc.Update(ctx.Request.Context(), middleware.SessionID(ctx), req.Index, req.Quantity)
	if err != nil {
		err = fmt.Errorf("v1.HandleUpdateCart -> h.svc.Update -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "cart": cartItems(cart)})
}

// HandleRemoveFromCart godoc
// @Summary      Remove a cart line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request  body      request.RemoveFromCartRequest  true  "request body"
// @Success      200      {object}  map[string]any
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /cart/remove [post]
func (h *CartHandler) HandleRemoveFromCart(ctx *gin.Context) {
	var req request.RemoveFromCartRequest
	if err := ctx.ShouldBind(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	cart, err := h.svc.Remove(ctx.Request.Context(), middleware.SessionID(ctx), req.Index)
	if err != nil {
		err = fmt.Errorf("v1.HandleRemoveFromCart -> h.svc.Remove -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "cart": cartItems(cart)})
}

// HandleClearCart godoc
// @Summary      Empty the session cart
// @Tags         cart
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      500  {object}  response.Err
// @Router       /cart/clear [post]
func (h *CartHandler) HandleClearCart(ctx *gin.Context) {
	if err := h.svc.Clear(ctx.Request.Context(), middleware.SessionID(ctx)); err != nil {
		err = fmt.Errorf("v1.HandleClearCart -> h.svc.Clear -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// cartItems never returns nil so the cart always encodes as an array.
func cartItems(cart domain.Cart) []domain.CartItem {
	if cart.Items == nil {
		return []domain.CartItem{}
	}

	return cart.Items
}
