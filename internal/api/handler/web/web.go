// Package web serves the server rendered pages: the customer menu, checkout,
// order tracking and payment pages, and the admin back office.
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	v1 "github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1"
	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/coffeeshop-api/internal/api/middleware"
	"github.com/vietanh2810/coffeeshop-api/internal/config"
	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/service"
)

const shopName = "Coffee Shop"

type ProductService interface {
	ListMenu(ctx context.Context) ([]domain.MenuCategory, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id uint) (domain.Product, error)
	Save(ctx context.Context, product domain.Product) (domain.Product, error)
}

type CartService interface {
	Get(ctx context.Context, sessionID string) (domain.Cart, error)
}

type OrderService interface {
	Get(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Dashboard(ctx context.Context) domain.Dashboard
}

type AuthService interface {
	Login(username, password string) (string, error)
}

// PaymentPage carries what the browser needs to open the gateway checkout.
type PaymentPage struct {
	Provider          string
	MidtransClientKey string
	MidtransSnapURL   string
}

func NewPaymentPage(conf *config.PaymentConfig) PaymentPage {
	page := PaymentPage{}
	if conf == nil {
		return page
	}

	page.Provider = conf.Provider
	if conf.Midtrans != nil {
		page.MidtransClientKey = conf.Midtrans.ClientKey
		page.MidtransSnapURL = "https://app.sandbox.midtrans.com/snap/snap.js"
		if conf.Midtrans.IsProduction {
			page.MidtransSnapURL = "https://app.midtrans.com/snap/snap.js"
		}
	}

	return page
}

type Handler struct {
	products ProductService
	carts    CartService
	orders   OrderService
	auth     AuthService
	payment  PaymentPage
	apiConf  *config.APIConfig
	admin    *config.AdminConfig
}

func NewHandler(
	products ProductService,
	carts CartService,
	orders OrderService,
	auth AuthService,
	payment PaymentPage,
	apiConf *config.APIConfig,
	admin *config.AdminConfig,
) *Handler {
	return &Handler{
		products: products,
		carts:    carts,
		orders:   orders,
		auth:     auth,
		payment:  payment,
		apiConf:  apiConf,
		admin:    admin,
	}
}

// HandleMenu renders an empty menu rather than an error page when the
// catalog cannot be read.
func (h *Handler) HandleMenu(ctx *gin.Context) {
	menu, err := h.products.ListMenu(ctx.Request.Context())
	if err != nil {
		zap.L().Error("web.HandleMenu -> h.products.ListMenu", zap.Error(err))
	}

	cart, err := h.carts.Get(ctx.Request.Context(), middleware.SessionID(ctx))
	if err != nil {
		zap.L().Warn("web.HandleMenu -> h.carts.Get", zap.Error(err))
	}

	ctx.HTML(http.StatusOK, "menu.html", gin.H{
		"Title":     "Menu - " + shopName,
		"Menu":      menu,
		"CartCount": cart.Count(),
	})
}

func (h *Handler) HandleCheckout(ctx *gin.Context) {
	cart, err := h.carts.Get(ctx.Request.Context(), middleware.SessionID(ctx))
	if err != nil {
		h.renderError(ctx, http.StatusInternalServerError, err)
		return
	}
	if cart.IsEmpty() {
		ctx.Redirect(http.StatusFound, "/")
		return
	}

	ctx.HTML(http.StatusOK, "checkout.html", gin.H{
		"Title": "Checkout - " + shopName,
		"Cart":  cart,
		"Total": cart.Total(),
	})
}

func (h *Handler) HandleOrder(ctx *gin.Context) {
	order, ok := h.loadOrder(ctx)
	if !ok {
		return
	}

	ctx.HTML(http.StatusOK, "order.html", gin.H{
		"Title": "Order " + shortID(order.ID) + " - " + shopName,
		"Order": order,
	})
}

// HandlePayment sends visitors home unless the order is paid online.
func (h *Handler) HandlePayment(ctx *gin.Context) {
	id := ctx.Param("orderID")
	if uuid.Validate(id) != nil {
		ctx.Redirect(http.StatusFound, "/")
		return
	}

	order, err := h.orders.Get(ctx.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, service.ErrOrderNotFound) {
			zap.L().Error("web.HandlePayment -> h.orders.Get", zap.Error(err))
		}
		ctx.Redirect(http.StatusFound, "/")
		return
	}
	if !order.PaymentMethod.Online() {
		ctx.Redirect(http.StatusFound, "/")
		return
	}

	ctx.HTML(http.StatusOK, "payment.html", gin.H{
		"Title":   "Payment - " + shopName,
		"Order":   order,
		"Payment": h.payment,
	})
}

func (h *Handler) HandleLoginPage(ctx *gin.Context) {
	if middleware.IsAdmin(ctx) {
		ctx.Redirect(http.StatusFound, "/admin/dashboard")
		return
	}

	ctx.HTML(http.StatusOK, "admin_login.html", gin.H{"Title": "Admin Login"})
}

func (h *Handler) HandleLogin(ctx *gin.Context) {
	var req request.LoginRequest
	if err := ctx.ShouldBind(&req); err == nil {
		err = req.Validate()
		if err == nil {
			var token string
			token, err = h.auth.Login(req.Username, req.Password)
			if err == nil {
				v1.SetAdminCookie(ctx, token, h.admin, h.apiConf.SecureCookies)
				ctx.Redirect(http.StatusFound, "/admin/dashboard")
				return
			}
		}
		if !errors.Is(err, service.ErrWrongCredentials) {
			zap.L().Debug("admin login rejected", zap.Error(err))
		}
	}

	ctx.HTML(http.StatusUnauthorized, "admin_login.html", gin.H{
		"Title":    "Admin Login",
		"Error":    "Invalid username or password",
		"Username": req.Username,
	})
}

func (h *Handler) HandleLogout(ctx *gin.Context) {
	v1.ClearAdminCookie(ctx, h.apiConf.SecureCookies)
	ctx.Redirect(http.StatusFound, "/admin/login")
}

func (h *Handler) HandleDashboard(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "admin_dashboard.html", gin.H{
		"Title":     "Dashboard",
		"Dashboard": h.orders.Dashboard(ctx.Request.Context()),
	})
}

func (h *Handler) HandleProducts(ctx *gin.Context) {
	products, err := h.products.ListAll(ctx.Request.Context())
	if err != nil {
		zap.L().Error("web.HandleProducts -> h.products.ListAll", zap.Error(err))
	}

	ctx.HTML(http.StatusOK, "admin_products.html", gin.H{
		"Title":    "Products",
		"Products": products,
	})
}

func (h *Handler) HandleProductAdd(ctx *gin.Context) {
	h.renderProductForm(ctx, http.StatusOK, request.ProductForm{IsAvailable: "on"}, "")
}

func (h *Handler) HandleProductEdit(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("productID"), 10, 64)
	if err != nil {
		h.renderError(ctx, http.StatusNotFound, err)
		return
	}

	product, err := h.products.Get(ctx.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			h.renderError(ctx, http.StatusNotFound, err)
			return
		}
		h.renderError(ctx, http.StatusInternalServerError, err)
		return
	}

	h.renderProductForm(ctx, http.StatusOK, productForm(product), "")
}

// HandleProductSave inserts or updates depending on the hidden id field and
// sends the admin back to the list. Validation errors re-render the form.
func (h *Handler) HandleProductSave(ctx *gin.Context) {
	var form request.ProductForm
	if err := ctx.ShouldBind(&form); err != nil {
		h.renderProductForm(ctx, http.StatusBadRequest, form, err.Error())
		return
	}

	if err := form.Validate(); err != nil {
		h.renderProductForm(ctx, http.StatusBadRequest, form, err.Error())
		return
	}

	if _, err := h.products.Save(ctx.Request.Context(), form.Product()); err != nil {
		switch {
		case errors.Is(err, service.ErrProductNameExists):
			h.renderProductForm(ctx, http.StatusBadRequest, form, service.ErrProductNameExists.Error())
		case errors.Is(err, service.ErrProductNotFound):
			h.renderError(ctx, http.StatusNotFound, err)
		default:
			h.renderError(ctx, http.StatusInternalServerError, err)
		}
		return
	}

	ctx.Redirect(http.StatusFound, "/admin/products")
}

func (h *Handler) HandleOrders(ctx *gin.Context) {
	orders, err := h.orders.List(ctx.Request.Context())
	if err != nil {
		zap.L().Error("web.HandleOrders -> h.orders.List", zap.Error(err))
	}

	ctx.HTML(http.StatusOK, "admin_orders.html", gin.H{
		"Title":           "Orders",
		"Orders":          orders,
		"OrderStatuses":   []domain.OrderStatus{domain.OrderPending, domain.OrderProcessing, domain.OrderReady, domain.OrderCompleted, domain.OrderCancelled},
		"PaymentStatuses": []domain.PaymentStatus{domain.PaymentPending, domain.PaymentPaid, domain.PaymentFailed, domain.PaymentChallenge},
	})
}

// HandleNotFound answers JSON under /api and the 404 page elsewhere.
func (h *Handler) HandleNotFound(ctx *gin.Context) {
	if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
		ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
		return
	}

	ctx.HTML(http.StatusNotFound, "404.html", gin.H{"Title": "Page not found"})
}

// HandlePanic is the recovery handler: the panic is already logged.
func (h *Handler) HandlePanic(ctx *gin.Context, _ any) {
	if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
		return
	}

	ctx.HTML(http.StatusInternalServerError, "500.html", gin.H{"Title": "Something went wrong"})
	ctx.Abort()
}

func (h *Handler) loadOrder(ctx *gin.Context) (domain.Order, bool) {
	id := ctx.Param("orderID")
	if uuid.Validate(id) != nil {
		h.renderError(ctx, http.StatusNotFound, errors.New("invalid order id"))
		return domain.Order{}, false
	}

	order, err := h.orders.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			h.renderError(ctx, http.StatusNotFound, err)
			return domain.Order{}, false
		}
		h.renderError(ctx, http.StatusInternalServerError, err)
		return domain.Order{}, false
	}

	return order, true
}

func (h *Handler) renderProductForm(ctx *gin.Context, status int, form request.ProductForm, errMsg string) {
	title := "Add Product"
	if form.ID != 0 {
		title = "Edit Product"
	}

	ctx.HTML(status, "admin_product_form.html", gin.H{
		"Title": title,
		"Form":  form,
		"Error": errMsg,
	})
}

func (h *Handler) renderError(ctx *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		zap.L().Error("page failed", zap.String("path", ctx.Request.URL.Path), zap.Error(err))
		ctx.HTML(status, "500.html", gin.H{"Title": "Something went wrong"})
		return
	}

	ctx.HTML(status, "404.html", gin.H{"Title": "Page not found"})
}

func productForm(p domain.Product) request.ProductForm {
	available := ""
	if p.IsAvailable {
		available = "on"
	}

	return request.ProductForm{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Category:    p.Category,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		IsAvailable: available,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
