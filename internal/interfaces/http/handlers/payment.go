// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/your-org/jewelry-backend/internal/config"
	"github.com/your-org/jewelry-backend/internal/domain/order"
	"github.com/your-org/jewelry-backend/internal/domain/payment"
)

// PaymentHandler handles checkout payment endpoints
type PaymentHandler struct {
	controller   *payment.Controller
	orderService *order.Service
	config       *config.Config
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(controller *payment.Controller, orderService *order.Service, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		controller:   controller,
		orderService: orderService,
		config:       cfg,
	}
}

// Pay handles POST /payments. It blocks until the payment attempt resolves:
// confirmed, failed, or out of polling budget.
func (h *PaymentHandler) Pay(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	var req payment.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}
	req.CartSessionID = sessionID

	if err := h.orderService.SetPaymentMethod(c.Request.Context(), req.OrderID, string(req.Method)); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start payment",
		})
		return
	}

	outcome, err := h.controller.Pay(c.Request.Context(), &req, nil)
	if err != nil {
		h.renderPayError(c, err)
		return
	}

	switch outcome.Status {
	case payment.OutcomeSucceeded:
		c.JSON(http.StatusOK, gin.H{
			"message": "Payment confirmed",
			"data":    outcome,
		})
	case payment.OutcomeFailed:
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error": "Payment failed",
			"data":  outcome,
		})
	default: // OutcomeUnknown
		c.JSON(http.StatusAccepted, gin.H{
			"message": "Payment still processing, check status later",
			"data":    outcome,
		})
	}
}

// CheckStatus handles GET /payments/status/:transaction_id
func (h *PaymentHandler) CheckStatus(c *gin.Context) {
	transactionID := c.Param("transaction_id")

	gateway := payment.GatewayKind(c.Query("gateway"))
	if strings.HasPrefix(transactionID, "COD-") {
		gateway = payment.GatewayCashOnDelivery
	}
	if !gateway.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown or missing gateway",
		})
		return
	}

	result, err := h.controller.CheckStatus(c.Request.Context(), gateway, transactionID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to look up transaction status",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Transaction status retrieved successfully",
		"data":    result,
	})
}

// ReconcileRequest represents a manual reconciliation of an unresolved order
type ReconcileRequest struct {
	TransactionID string              `json:"transaction_id" binding:"required"`
	Gateway       payment.GatewayKind `json:"gateway" binding:"required"`
}

// Reconcile handles POST /admin/payments/:order_number/reconcile. It
// re-checks the gateway's answer for an unresolved order and applies it.
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	orderNumber := c.Param("order_number")

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}
	if !req.Gateway.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown gateway",
		})
		return
	}

	result, err := h.controller.CheckStatus(c.Request.Context(), req.Gateway, req.TransactionID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to look up transaction status",
		})
		return
	}

	switch result.State {
	case payment.StateSucceeded:
		if err := h.orderService.Finalize(c.Request.Context(), orderNumber, req.TransactionID); err != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error": err.Error(),
			})
			return
		}
	case payment.StateFailed:
		if err := h.orderService.MarkFailed(c.Request.Context(), orderNumber, req.TransactionID, result.Message); err != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error": err.Error(),
			})
			return
		}
	default:
		c.JSON(http.StatusAccepted, gin.H{
			"message": "Gateway still reports the transaction as pending",
			"data":    result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order reconciled successfully",
		"data":    result,
	})
}

// renderPayError maps payment flow errors onto HTTP statuses
func (h *PaymentHandler) renderPayError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payment.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, payment.ErrAmountMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, payment.ErrAlreadyInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "A payment attempt for this order is already in progress"})
	case errors.Is(err, payment.ErrGatewayRejected):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, payment.ErrGatewayUnreachable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway unreachable, try again later"})
	case errors.Is(err, order.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, order.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": "Order is already paid"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment processing failed"})
	}
}
