package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tienda-escolar/shop-service/internal/config"
	"github.com/tienda-escolar/shop-service/internal/handlers"
	"github.com/tienda-escolar/shop-service/internal/metrics"
)

type Server struct {
	config   *config.Config
	router   *gin.Engine
	handlers *handlers.Handlers
	httpSrv  *http.Server
}

func NewServer(cfg *config.Config, h *handlers.Handlers, m *metrics.Metrics, db *sql.DB) *Server {
	router := gin.Default()

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
	}

	s.setupRoutes(m, db)

	return s
}

func (s *Server) setupRoutes(m *metrics.Metrics, db *sql.DB) {
	s.router.Use(RequestID())

	s.router.GET("/health", handlers.HealthCheck)
	s.router.GET("/ready", handlers.ReadinessCheck(db))
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	api := s.router.Group("/api")
	api.Use(Identity())

	// The provider calls the webhook unauthenticated.
	api.POST("/payments/webhook", s.handlers.PaymentWebhook)

	api.GET("/products", s.handlers.ListProducts)
	api.GET("/products/:id", s.handlers.GetProduct)

	buyer := api.Group("")
	buyer.Use(RequireBuyer())
	{
		buyer.GET("/cart", s.handlers.GetCart)
		buyer.POST("/cart/items", s.handlers.AddCartItem)
		buyer.PUT("/cart/items/:itemId", s.handlers.UpdateCartItem)
		buyer.DELETE("/cart/items/:itemId", s.handlers.RemoveCartItem)
		buyer.DELETE("/cart", s.handlers.ClearCart)

		buyer.POST("/orders", s.handlers.CreateOrder)
		buyer.GET("/orders/mine", s.handlers.ListMyOrders)
		buyer.GET("/orders/:id", s.handlers.GetOrder)

		buyer.POST("/payments/preference", s.handlers.CreatePreference)
	}

	admin := api.Group("")
	admin.Use(RequireBuyer(), RequireAdmin())
	{
		admin.GET("/orders", s.handlers.ListOrders)
		admin.PUT("/orders/:id/pay", s.handlers.PayOrder)
		admin.PUT("/orders/:id/deliver", s.handlers.DeliverOrder)
		admin.PUT("/orders/:id/status", s.handlers.SetOrderStatus)

		admin.PUT("/products/:id/stock", s.handlers.SetProductStock)
		admin.PUT("/products/:id/active", s.handlers.SetProductActive)

		admin.GET("/stats/orders", s.handlers.OrderStats)
		admin.GET("/stats/low-stock", s.handlers.LowStock)
	}
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
