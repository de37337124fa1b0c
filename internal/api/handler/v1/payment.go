package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/payment"
	"github.com/vietanh2810/coffeeshop-api/internal/service"
)

const maxNotificationSize = 64 << 10

type PaymentService interface {
	CreateTransaction(ctx context.Context, orderID string) (payment.Transaction, error)
	HandleNotification(ctx context.Context, payload []byte, header http.Header) error
	UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) (domain.Order, error)
	Status(ctx context.Context, orderID string) (domain.OrderStatusView, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{
		svc: svc,
	}
}

// HandleCreateTransaction godoc
// @Summary      Open a gateway checkout for an online order
// @Tags         payment
// @Produce      json
// @Param        orderID  path      string  true  "Order ID"
// @Success      200      {object}  map[string]any
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /payment/{orderID}/create [post]
func (h *PaymentHandler) HandleCreateTransaction(ctx *gin.Context) {
	id, err := orderIDParam(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	tx, err := h.svc.CreateTransaction(ctx.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGatewayNotConfigured):
			response.RenderErr(ctx, response.ErrMessage(http.StatusInternalServerError, "Payment gateway not configured"))
		case errors.Is(err, service.ErrOrderNotFound):
			response.RenderErr(ctx, response.ErrNotFound("order", "id", id))
		case errors.Is(err, service.ErrNotOnlinePayment):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrAlreadyPaid):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleCreateTransaction -> h.svc.CreateTransaction -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":      true,
		"token":        tx.Token,
		"redirect_url": tx.RedirectURL,
	})
}

// HandleNotification godoc
// @Summary      Gateway payment webhook
// @Tags         payment
// @Accept       json
// @Produce      plain
// @Success      200  {string}  string  "OK"
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /payment/notification [post]
func (h *PaymentHandler) HandleNotification(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxNotificationSize))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = h.svc.HandleNotification(ctx.Request.Context(), payload, ctx.Request.Header); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature), errors.Is(err, service.ErrMalformedPayload):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrOrderNotFound):
			response.RenderErr(ctx, response.ErrMessage(http.StatusNotFound, "order not found"))
		case errors.Is(err, service.ErrGatewayNotConfigured):
			response.RenderErr(ctx, response.ErrMessage(http.StatusInternalServerError, "Payment gateway not configured"))
		default:
			err = fmt.Errorf("v1.HandleNotification -> h.svc.HandleNotification -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.String(http.StatusOK, "OK")
}

// HandlePaymentStatus godoc
// @Summary      Poll the payment and order status
// @Tags         payment
// @Produce      json
// @Param        orderID  path      string  true  "Order ID"
// @Success      200      {object}  map[string]any
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /payment/{orderID}/status [get]
func (h *PaymentHandler) HandlePaymentStatus(ctx *gin.Context) {
	id, err := orderIDParam(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	view, err := h.svc.Status(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("order", "id", id))
			return
		}
		err = fmt.Errorf("v1.HandlePaymentStatus -> h.svc.Status -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":        true,
		"payment_status": view.PaymentStatus,
		"order_status":   view.Status,
	})
}

// HandleUpdatePaymentStatus godoc
// @Summary      Set the payment status of an order by hand
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        orderID  path      string                                true  "Order ID"
// @Param        request  body      request.UpdatePaymentStatusRequest    true  "request body"
// @Success      200      {object}  map[string]any
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/orders/{orderID}/payment-status [post]
func (h *PaymentHandler) HandleUpdatePaymentStatus(ctx *gin.Context) {
	id, err := orderIDParam(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.UpdatePaymentStatusRequest
	if err = ctx.ShouldBind(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	order, err := h.svc.UpdatePaymentStatus(ctx.Request.Context(), id, domain.PaymentStatus(req.PaymentStatus))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.RenderErr(ctx, response.ErrNotFound("order", "id", id))
		case errors.Is(err, domain.ErrInvalidPaymentStatus):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrStatusConflict):
			response.RenderErr(ctx, response.ErrConflict(service.ErrStatusConflict))
		default:
			err = fmt.Errorf("v1.HandleUpdatePaymentStatus -> h.svc.UpdatePaymentStatus -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "payment_status": order.PaymentStatus})
}
