package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoAuth is a pass-through middleware for AUTH_MODE=none (self-hosted, local dev)
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Dummy user for logging
		c.Set(ctxUserID, "anonymous")
		c.Next()
	}
}
