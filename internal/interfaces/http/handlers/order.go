// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/jewelry-backend/internal/config"
	"github.com/your-org/jewelry-backend/internal/domain/cart"
	"github.com/your-org/jewelry-backend/internal/domain/order"
	"gorm.io/gorm"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	config       *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *OrderHandler {
	cartService := cart.NewService(redisClient, cfg)
	return &OrderHandler{
		orderService: order.NewService(db, cfg, cartService),
		config:       cfg,
	}
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	o, err := h.orderService.CreateOrder(c.Request.Context(), sessionID, &req)
	if err != nil {
		if errors.Is(err, order.ErrEmptyCart) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Cart is empty",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create order",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"data":    o,
	})
}

// GetOrder handles GET /orders/:order_number
func (h *OrderHandler) GetOrder(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)
	orderNumber := c.Param("order_number")

	o, err := h.orderService.GetOrder(c.Request.Context(), orderNumber)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve order",
		})
		return
	}

	// Guest orders are scoped to the session that placed them.
	if o.SessionID != sessionID {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// ListOrders handles GET /admin/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.orderService.GetOrders(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// ListUnresolved handles GET /admin/payments/unresolved
func (h *OrderHandler) ListUnresolved(c *gin.Context) {
	orders, err := h.orderService.ListUnresolved(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve unresolved orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Unresolved orders retrieved successfully",
		"data":    orders,
	})
}
