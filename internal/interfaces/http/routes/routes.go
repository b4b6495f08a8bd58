// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/jewelry-backend/internal/config"
	"github.com/your-org/jewelry-backend/internal/domain/cart"
	"github.com/your-org/jewelry-backend/internal/domain/order"
	"github.com/your-org/jewelry-backend/internal/domain/payment"
	"github.com/your-org/jewelry-backend/internal/interfaces/http/handlers"
	"github.com/your-org/jewelry-backend/internal/interfaces/http/middleware"
	"github.com/your-org/jewelry-backend/internal/pkg/metrics"
	"gorm.io/gorm"
)

// SetupRoutes wires all API routes onto the router group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, m *metrics.PaymentMetrics, logger *logrus.Logger) {
	// Shared services: the payment flow needs the same order and cart
	// services the handlers use.
	cartService := cart.NewService(redisClient, cfg)
	orderService := order.NewService(db, cfg, cartService)

	client := payment.NewClient(cfg, logger)
	poller := payment.NewPoller(payment.PollerConfig{
		Interval:    cfg.Payment.PollInterval,
		MaxAttempts: cfg.Payment.PollMaxAttempts,
	}, logger)
	controller := payment.NewController(client, poller, orderService, cartService, m, logger)

	authHandler := handlers.NewAuthHandler(cfg)
	productHandler := handlers.NewProductHandler(db)
	cartHandler := handlers.NewCartHandler(redisClient, cfg)
	orderHandler := handlers.NewOrderHandler(db, redisClient, cfg)
	paymentHandler := handlers.NewPaymentHandler(controller, orderService, cfg)

	// Admin authentication
	auth := rg.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Catalog
	products := rg.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/:ref", productHandler.GetProduct)
	}

	// Session cart
	cartGroup := rg.Group("/cart")
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.DELETE("", cartHandler.ClearCart)
		cartGroup.POST("/items", cartHandler.AddLine)
		cartGroup.PUT("/items/:line_id", cartHandler.UpdateLine)
		cartGroup.DELETE("/items/:line_id", cartHandler.RemoveLine)
	}

	// Orders
	orders := rg.Group("/orders")
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("/:order_number", orderHandler.GetOrder)
	}

	// Payments
	payments := rg.Group("/payments")
	{
		payments.POST("", paymentHandler.Pay)
		payments.GET("/status/:transaction_id", paymentHandler.CheckStatus)
	}

	// Admin console
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	{
		admin.GET("/orders", orderHandler.ListOrders)
		admin.GET("/payments/unresolved", orderHandler.ListUnresolved)
		admin.POST("/payments/:order_number/reconcile", paymentHandler.Reconcile)
	}
}
