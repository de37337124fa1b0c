package v1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/coffeeshop-api/internal/api/middleware"
	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/service"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, sessionID string, checkout service.Checkout) (domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error)
	ExportCSV(ctx context.Context, w io.Writer, year, month int) error
}

type OrderHandler struct {
	svc OrderService
}

func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{
		svc: svc,
	}
}

// HandlePlaceOrder godoc
// @Summary      Place an order from the session cart
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request  body      request.PlaceOrderRequest  true  "request body"
// @Success      200      {object}  map[string]any
// @Failure      400      {object}  response.Err
// @Failure      429      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /order [post]
func (h *OrderHandler) HandlePlaceOrder(ctx *gin.Context) {
	var req request.PlaceOrderRequest
	if err := ctx.ShouldBind(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	order, err := h.svc.PlaceOrder(ctx.Request.Context(), middleware.SessionID(ctx), service.Checkout{
		CustomerName:  req.CustomerName,
		TableNumber:   req.TableNumber,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartEmpty),
			errors.Is(err, service.ErrProductNotFound),
			errors.Is(err, service.ErrProductUnavailable),
			errors.Is(err, service.ErrInsufficientStock),
			errors.Is(err, service.ErrInvalidPayment):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandlePlaceOrder -> h.svc.PlaceOrder -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	if order.PaymentMethod.Online() {
		ctx.JSON(http.StatusOK, gin.H{
			"success":     true,
			"orderId":     order.ID,
			"redirectUrl": "/payment/" + order.ID,
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"orderId": order.ID,
		"message": "Order placed, please pay at the cashier",
	})
}

// HandleListOrders godoc
// @Summary      List orders with their items, newest first
// @Tags         orders
// @Produce      json
// @Success      200  {array}   domain.Order
// @Failure      500  {object}  response.Err
// @Router       /api/orders [get]
func (h *OrderHandler) HandleListOrders(ctx *gin.Context) {
	orders, err := h.svc.List(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListOrders -> h.svc.List -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	ctx.JSON(http.StatusOK, orders)
}

// HandleGetOrder godoc
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        orderID  path      string  true  "Order ID"
// @Success      200      {object}  domain.Order
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /api/orders/{orderID} [get]
func (h *OrderHandler) HandleGetOrder(ctx *gin.Context) {
	id, err := orderIDParam(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	order, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("order", "id", id))
			return
		}
		err = fmt.Errorf("v1.HandleGetOrder -> h.svc.Get -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, order)
}

// HandleUpdateOrderStatus godoc
// @Summary      Move an order through the kitchen workflow
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        orderID  path      string                              true  "Order ID"
// @Param        request  body      request.UpdateOrderStatusRequest    true  "request body"
// @Success      200      {object}  map[string]any
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/orders/{orderID}/status [post]
func (h *OrderHandler) HandleUpdateOrderStatus(ctx *gin.Context) {
	id, err := orderIDParam(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.UpdateOrderStatusRequest
	if err = ctx.ShouldBind(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	order, err := h.svc.UpdateStatus(ctx.Request.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.RenderErr(ctx, response.ErrNotFound("order", "id", id))
		case errors.Is(err, service.ErrStatusTransition), errors.Is(err, service.ErrInvalidStatus):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrStatusConflict):
			response.RenderErr(ctx, response.ErrConflict(service.ErrStatusConflict))
		default:
			err = fmt.Errorf("v1.HandleUpdateOrderStatus -> h.svc.UpdateStatus -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "status": order.Status})
}

// HandleExportCSV godoc
// @Summary      Download the orders of a month as CSV
// @Tags         admin
// @Produce      text/csv
// @Param        month  query     int  true  "Month (1-12)"
// @Param        year   query     int  true  "Year"
// @Success      200    {file}    file
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /admin/export/csv [get]
func (h *OrderHandler) HandleExportCSV(ctx *gin.Context) {
	var req request.ExportRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var buf bytes.Buffer
	if err := h.svc.ExportCSV(ctx.Request.Context(), &buf, req.Year, req.Month); err != nil {
		if errors.Is(err, service.ErrInvalidPeriod) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
		err = fmt.Errorf("v1.HandleExportCSV -> h.svc.ExportCSV -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.ExportFilename(req.Year, req.Month)))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
