package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tienda-escolar/shop-service/internal/logging"
)

type createPreferenceRequest struct {
	OrderID string `json:"orderId"`
}

// webhookNotification is the provider's callback body. Only payment
// notifications carry a usable data ID; everything else is acknowledged
// and dropped.
type webhookNotification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// CreatePreference handles POST /api/payments/preference.
func (h *Handlers) CreatePreference(c *gin.Context) {
	var req createPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}

	pref, err := h.payments.CreatePreference(c.Request.Context(), identityFrom(c), req.OrderID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pref)
}

// PaymentWebhook handles POST /api/payments/webhook. The provider
// retries anything that is not a 2xx, so every recognizable callback is
// acknowledged whether or not it changed an order.
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	var notif webhookNotification
	if err := c.ShouldBindJSON(&notif); err != nil {
		h.logger.Warn("Unreadable webhook payload, acknowledging", logging.Fields{
			"error": err.Error(),
		})
		c.Status(http.StatusOK)
		return
	}

	if notif.Type != "payment" || notif.Data.ID == "" {
		c.Status(http.StatusOK)
		return
	}

	if err := h.payments.ConfirmFromProvider(c.Request.Context(), notif.Data.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusOK)
}
