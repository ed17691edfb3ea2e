package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// OrderStats handles GET /api/stats/orders (admin).
func (h *Handlers) OrderStats(c *gin.Context) {
	stats, err := h.stats.OrderSummary(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// LowStock handles GET /api/stats/low-stock (admin).
func (h *Handlers) LowStock(c *gin.Context) {
	threshold := 0
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a non-negative integer"})
			return
		}
		threshold = parsed
	}

	products, err := h.stats.LowStock(c.Request.Context(), threshold)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}
