package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tienda-escolar/shop-service/internal/config"
	"github.com/tienda-escolar/shop-service/internal/errs"
	"github.com/tienda-escolar/shop-service/internal/logging"
	"github.com/tienda-escolar/shop-service/internal/models"
	"github.com/tienda-escolar/shop-service/internal/service"
)

// IdentityKey is the gin context key the identity middleware stores the
// authenticated caller under.
const IdentityKey = "identity"

// Handlers holds all HTTP handlers for the shop service.
type Handlers struct {
	products *service.ProductService
	cart     *service.CartService
	orders   *service.OrderService
	payments *service.PaymentService
	stats    *service.StatsService
	config   *config.Config
	logger   *logging.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	products *service.ProductService,
	cart *service.CartService,
	orders *service.OrderService,
	payments *service.PaymentService,
	stats *service.StatsService,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		products: products,
		cart:     cart,
		orders:   orders,
		payments: payments,
		stats:    stats,
		config:   cfg,
		logger:   logging.New("handlers"),
	}
}

func identityFrom(c *gin.Context) models.Identity {
	if v, exists := c.Get(IdentityKey); exists {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Identity{}
}

// handleError maps service errors to HTTP responses. Forbidden answers
// stay generic so callers cannot probe which orders exist.
func handleError(c *gin.Context, err error) {
	var validationErr *errs.ValidationError
	var stockErr *errs.StockError

	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     stockErr.Error(),
			"productId": stockErr.ProductID,
			"available": stockErr.Available,
		})
	case errors.Is(err, errs.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
	case errors.Is(err, errs.ErrAlreadyPaid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "order is already paid"})
	case errors.Is(err, errs.ErrAlreadyDelivered):
		c.JSON(http.StatusBadRequest, gin.H{"error": "order is already delivered"})
	case errors.Is(err, errs.ErrNotPaid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "order is not paid"})
	case errors.Is(err, errs.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
