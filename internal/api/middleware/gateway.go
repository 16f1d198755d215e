package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/simcase-api/internal/config"
)

const (
	ctxUserID    = "user_id_str"
	ctxUserEmail = "user_email"
	ctxUserRole  = "user_role"
)

// GatewayAuth trusts identity headers (X-User-ID, X-User-Email, X-User-Role)
// set by the upstream gateway, which owns authentication and rate plans.
//
// Only safe behind the gateway with proper network isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxUserEmail, c.GetHeader("X-User-Email"))
		c.Set(ctxUserRole, c.GetHeader("X-User-Role"))
		c.Next()
	}
}

// Auth picks the middleware for the configured AUTH_MODE
func Auth(cfg *config.Config) gin.HandlerFunc {
	if cfg.IsGatewayMode() {
		return GatewayAuth()
	}
	return NoAuth()
}

// UserID returns the caller's id as set by GatewayAuth or NoAuth
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(ctxUserID)
	return id, id != ""
}
