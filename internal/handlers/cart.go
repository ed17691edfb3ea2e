package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart handles GET /api/cart.
func (h *Handlers) GetCart(c *gin.Context) {
	cart, err := h.cart.GetOrCreate(c.Request.Context(), identityFrom(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddCartItem handles POST /api/cart/items.
func (h *Handlers) AddCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cart, err := h.cart.AddItem(c.Request.Context(), identityFrom(c), req.ProductID, req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// UpdateCartItem handles PUT /api/cart/items/:itemId.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cart, err := h.cart.UpdateItemQuantity(c.Request.Context(), identityFrom(c), c.Param("itemId"), req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveCartItem handles DELETE /api/cart/items/:itemId.
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	cart, err := h.cart.RemoveItem(c.Request.Context(), identityFrom(c), c.Param("itemId"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ClearCart handles DELETE /api/cart.
func (h *Handlers) ClearCart(c *gin.Context) {
	cart, err := h.cart.Clear(c.Request.Context(), identityFrom(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
