package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

type HealthHandler struct {
	db        *gorm.DB
	providers []string
	testMode  bool
}

// NewHealthHandler creates the health handler. db may be nil when the
// attempt log is disabled.
func NewHealthHandler(db *gorm.DB, providers []string, testMode bool) *HealthHandler {
	return &HealthHandler{db: db, providers: providers, testMode: testMode}
}

// HealthCheck returns the health status of the API. A failing attempt log
// degrades the report but not the status code, since generation still works.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	database := "disabled"
	if h.db != nil {
		database = "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			database = "unreachable"
		}
	}

	status := "healthy"
	if len(h.providers) == 0 && !h.testMode {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"providers": h.providers,
		"test_mode": h.testMode,
		"database":  database,
	})
}
