package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vietanh2810/coffeeshop-api/docs"
	v1 "github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1"
	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/web"
	"github.com/vietanh2810/coffeeshop-api/internal/api/middleware"
	"github.com/vietanh2810/coffeeshop-api/internal/config"
	"github.com/vietanh2810/coffeeshop-api/internal/events"
	"github.com/vietanh2810/coffeeshop-api/internal/notify"
	"github.com/vietanh2810/coffeeshop-api/internal/payment"
	"github.com/vietanh2810/coffeeshop-api/internal/repository"
	"github.com/vietanh2810/coffeeshop-api/internal/repository/dao"
	"github.com/vietanh2810/coffeeshop-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
	Hub    *notify.Hub
	// Relay is nil when Redis is not configured.
	Relay *notify.RedisRelay
}

type handlers struct {
	auth     *v1.AuthHandler
	product  *v1.ProductHandler
	cart     *v1.CartHandler
	order    *v1.OrderHandler
	payment  *v1.PaymentHandler
	realtime *v1.RealtimeHandler
	web      *web.Handler
	admin    *middleware.AdminAuth
}

// NewServer wires storage, services and handlers. rdb may be nil, in which
// case carts, the status cache, rate limits and notifications stay in process.
func NewServer(conf *config.AppConfig, db *gorm.DB, rdb *redis.Client, publisher events.Publisher) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		Hub:    notify.NewHub(),
	}

	gateway, err := payment.New(conf.Payment, conf.API.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("payment.New -> %w", err)
	}

	h := s.initHandlers(db, rdb, publisher, gateway)

	s.MountMiddlewares(h.web)
	if err = s.MountHandlers(h, rdb); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) initHandlers(db *gorm.DB, rdb *redis.Client, publisher events.Publisher, gateway payment.Gateway) handlers {
	productRepo := repository.NewProductRepository(dao.NewProductDAO(db))
	orderRepo := repository.NewOrderRepository(dao.NewOrderDAO(db))

	var (
		carts    service.CartStore
		cache    service.StatusCache
		notifier service.Notifier
	)
	if rdb != nil {
		carts = repository.NewRedisCartStore(rdb, s.Config.Redis.CartTTL)
		cache = repository.NewStatusCache(rdb, s.Config.Redis.StatusCacheTTL)
		s.Relay = notify.NewRedisRelay(rdb, s.Config.Redis.Channel, s.Hub)
		notifier = s.Relay
	} else {
		carts = repository.NewMemoryCartStore(s.Config.Redis.CartTTL)
		cache = repository.NoopStatusCache{}
		notifier = s.Hub
	}

	productSvc := service.NewProductService(productRepo)
	cartSvc := service.NewCartService(carts, productRepo)
	orderSvc := service.NewOrderService(orderRepo, productRepo, carts, notifier, publisher, cache)
	paymentSvc := service.NewPaymentService(gateway, orderRepo, notifier, publisher, cache)
	authSvc := service.NewAuthService(s.Config.Admin, s.Config.API.JWTSigningKey)

	return handlers{
		auth:     v1.NewAuthHandler(s.Config.API, s.Config.Admin, authSvc),
		product:  v1.NewProductHandler(productSvc),
		cart:     v1.NewCartHandler(cartSvc),
		order:    v1.NewOrderHandler(orderSvc),
		payment:  v1.NewPaymentHandler(paymentSvc),
		realtime: v1.NewRealtimeHandler(s.Hub, s.Config.API.AllowedCORSDomains),
		web: web.NewHandler(
			productSvc, cartSvc, orderSvc, authSvc,
			web.NewPaymentPage(s.Config.Payment),
			s.Config.API, s.Config.Admin,
		),
		admin: middleware.NewAdminAuth(authSvc),
	}
}

func (s *Server) MountMiddlewares(pages *web.Handler) {
	logger := zap.L()

	s.Router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	s.Router.Use(ginzap.CustomRecoveryWithZap(logger, true, pages.HandlePanic))
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
	s.Router.Use(middleware.CartSession(s.Config.API.SessionTTL, s.Config.API.SecureCookies))
}

func (s *Server) MountHandlers(h handlers, rdb *redis.Client) error {
	orderLimit, err := middleware.RateLimit("orders", s.Config.RateLimit.Orders, rdb)
	if err != nil {
		return fmt.Errorf("middleware.RateLimit -> %w", err)
	}
	loginLimit, err := middleware.RateLimit("login", s.Config.RateLimit.Login, rdb)
	if err != nil {
		return fmt.Errorf("middleware.RateLimit -> %w", err)
	}

	s.Router.SetHTMLTemplate(web.Templates())

	adminAuth := h.admin
	s.Router.Use(adminAuth.Identify())

	pages := s.Router.Group("")
	{
		pages.GET("/", h.web.HandleMenu)
		pages.GET("/checkout", h.web.HandleCheckout)
		pages.GET("/order/:orderID", h.web.HandleOrder)
		pages.GET("/payment/:orderID", h.web.HandlePayment)
	}

	cart := s.Router.Group("/cart")
	{
		cart.GET("", h.cart.HandleGetCart)
		cart.POST("/add", h.cart.HandleAddToCart)
		cart.POST("/update", h.cart.HandleUpdateCart)
		cart.POST("/remove", h.cart.HandleRemoveFromCart)
		cart.POST("/clear", h.cart.HandleClearCart)
	}

	s.Router.POST("/order", orderLimit, h.order.HandlePlaceOrder)

	pay := s.Router.Group("/payment")
	{
		pay.POST("/notification", h.payment.HandleNotification)
		pay.POST("/:orderID/create", h.payment.HandleCreateTransaction)
		pay.GET("/:orderID/status", h.payment.HandlePaymentStatus)
	}

	api := s.Router.Group("/api")
	{
		api.GET("/products", h.product.HandleListProducts)
		api.GET("/products/:productID", h.product.HandleGetProduct)
		api.GET("/orders", h.order.HandleListOrders)
		api.GET("/orders/:orderID", h.order.HandleGetOrder)
		api.POST("/admin/login", loginLimit, h.auth.HandleLogin)
		api.POST("/admin/logout", h.auth.HandleLogout)
	}

	s.Router.GET("/admin/login", h.web.HandleLoginPage)
	s.Router.POST("/admin/login", loginLimit, h.web.HandleLogin)
	s.Router.GET("/admin/logout", h.web.HandleLogout)

	adminPages := s.Router.Group("/admin", adminAuth.RequirePage())
	{
		adminPages.GET("", func(ctx *gin.Context) { ctx.Redirect(http.StatusFound, "/admin/dashboard") })
		adminPages.GET("/dashboard", h.web.HandleDashboard)
		adminPages.GET("/products", h.web.HandleProducts)
		adminPages.GET("/products/add", h.web.HandleProductAdd)
		adminPages.GET("/products/edit/:productID", h.web.HandleProductEdit)
		adminPages.POST("/products/save", h.web.HandleProductSave)
		adminPages.GET("/orders", h.web.HandleOrders)
	}

	adminAPI := s.Router.Group("/admin", adminAuth.RequireAPI())
	{
		adminAPI.POST("/products/delete/:productID", h.product.HandleDeleteProduct)
		adminAPI.POST("/orders/:orderID/status", h.order.HandleUpdateOrderStatus)
		adminAPI.POST("/orders/:orderID/payment-status", h.payment.HandleUpdatePaymentStatus)
		adminAPI.GET("/export/csv", h.order.HandleExportCSV)
	}

	s.Router.GET("/ws", h.realtime.HandleWebSocket)
	s.Router.GET("/healthz", v1.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.Router.NoRoute(h.web.HandleNotFound)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Title = "Coffee Shop API"
	docs.SwaggerInfo.Description = "Ordering storefront: menu, cart, orders, payments and the admin back office."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return nil
}
