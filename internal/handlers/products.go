package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type setStockRequest struct {
	Stock int `json:"stock"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// ListProducts handles GET /api/products.
func (h *Handlers) ListProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GetProduct handles GET /api/products/:id.
func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// SetProductStock handles PUT /api/products/:id/stock (admin).
func (h *Handlers) SetProductStock(c *gin.Context) {
	var req setStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.products.SetStock(c.Request.Context(), c.Param("id"), req.Stock)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// SetProductActive handles PUT /api/products/:id/active (admin).
func (h *Handlers) SetProductActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.products.SetActive(c.Request.Context(), c.Param("id"), req.Active)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
