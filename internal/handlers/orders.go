package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tienda-escolar/shop-service/internal/logging"
	"github.com/tienda-escolar/shop-service/internal/models"
	"github.com/tienda-escolar/shop-service/internal/service"
)

type setStatusRequest struct {
	Status string `json:"status"`
}

// CreateOrder handles POST /api/orders. The line items come from the
// caller's cart; the body only carries the checkout details.
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req service.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind request", logging.Fields{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.orders.CreateFromCart(c.Request.Context(), identityFrom(c), req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /api/orders/:id.
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListMyOrders handles GET /api/orders/mine.
func (h *Handlers) ListMyOrders(c *gin.Context) {
	orders, err := h.orders.ListMine(c.Request.Context(), identityFrom(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// ListOrders handles GET /api/orders (admin).
func (h *Handlers) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// PayOrder handles PUT /api/orders/:id/pay (admin). Used for payments
// settled outside the provider, cash on pickup mostly.
func (h *Handlers) PayOrder(c *gin.Context) {
	caller := identityFrom(c)
	result := &models.PaymentResult{
		Status:     "approved_manual",
		PayerEmail: caller.Email,
	}

	order, err := h.orders.MarkPaid(c.Request.Context(), c.Param("id"), result, false)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeliverOrder handles PUT /api/orders/:id/deliver (admin).
func (h *Handlers) DeliverOrder(c *gin.Context) {
	order, err := h.orders.MarkDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// SetOrderStatus handles PUT /api/orders/:id/status (admin).
func (h *Handlers) SetOrderStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.orders.SetStatus(c.Request.Context(), c.Param("id"), models.OrderStatus(req.Status))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
