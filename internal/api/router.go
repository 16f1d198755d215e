package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/simcase-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/simcase-api/internal/api/middleware"
	"github.com/Conceptual-Machines/simcase-api/internal/config"
	"github.com/Conceptual-Machines/simcase-api/internal/database"
	"github.com/Conceptual-Machines/simcase-api/internal/metrics"
	"github.com/Conceptual-Machines/simcase-api/internal/services"
)

// Deps carries what the router needs. DB and Attempts are nil when
// DATABASE_URL is unset.
type Deps struct {
	Config     *config.Config
	Version    string
	Cases      *services.CaseService
	DB         *gorm.DB
	Attempts   *database.AttemptStore
	Providers  []string
	Sentry     *metrics.SentryMetrics
	CloudWatch *metrics.Client
}

func SetupRouter(deps Deps) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Sentry, deps.CloudWatch))

	router.Use(apimiddleware.CORS(deps.Config.CORSAllowedOrigins))

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Providers, deps.Config.TestMode)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	var counter handlers.OutcomeCounter
	if deps.Attempts != nil {
		counter = deps.Attempts
	}
	metricsHandler := handlers.NewMetricsHandler(deps.Version, counter)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	v1 := router.Group("/api/v1")
	v1.Use(apimiddleware.Auth(deps.Config))
	{
		caseHandler := handlers.NewCaseHandler(deps.Cases)
		v1.POST("/cases", caseHandler.BuildCase)
		v1.POST("/documents/structure", caseHandler.StructureDocument)
		v1.POST("/classify", caseHandler.Classify)
		v1.POST("/ranges", caseHandler.MapRanges)
		v1.POST("/generations", caseHandler.Generate)
	}

	return router
}
