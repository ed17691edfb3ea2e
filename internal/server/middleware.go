package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tienda-escolar/shop-service/internal/handlers"
	"github.com/tienda-escolar/shop-service/internal/models"
)

// RequestID propagates the caller's X-Request-ID header, minting one
// when it is absent, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Identity reads the caller headers set by the gateway and stores a
// models.Identity in the request context. The gateway terminates
// authentication; this service trusts its headers.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := models.Identity{
			BuyerID:      c.GetHeader("X-Buyer-ID"),
			Email:        c.GetHeader("X-Buyer-Email"),
			Name:         c.GetHeader("X-Buyer-Name"),
			Role:         models.Role(c.GetHeader("X-Buyer-Role")),
			Tier:         models.Tier(c.GetHeader("X-Buyer-Tier")),
			TierApproved: c.GetHeader("X-Buyer-Tier-Approved") == "true",
		}
		if id.Role == "" {
			id.Role = models.RoleCustomer
		}
		if id.Tier == "" {
			id.Tier = models.TierRetail
		}
		c.Set(handlers.IdentityKey, id)
		c.Next()
	}
}

// RequireBuyer rejects requests that arrived without a buyer identity.
func RequireBuyer() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Get(handlers.IdentityKey)
		identity, ok := id.(models.Identity)
		if !ok || identity.BuyerID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects non-admin callers.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Get(handlers.IdentityKey)
		identity, ok := id.(models.Identity)
		if !ok || !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not authorized"})
			return
		}
		c.Next()
	}
}
