package router

import (
	"github.com/gin-gonic/gin"

	"evicite/internal/config"
	"evicite/internal/handler"
	"evicite/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	runH *handler.RunHandler,
	sourceH *handler.SourceHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Bearer auth is optional; without a configured secret the API is open,
	// which suits single-tenant deployments behind a private network.
	if cfg.JWT.Secret != "" {
		v1.Use(middleware.AuthMiddleware(cfg.JWT.Secret, cfg.JWT.Issuer))
	}

	runs := v1.Group("/runs")
	runs.POST("", runH.Create)
	runs.GET("", runH.List)
	runs.GET("/:id", runH.GetByID)
	runs.GET("/:id/outcomes", runH.ListOutcomes)
	runs.GET("/:id/report", runH.GetReport)
	runs.POST("/:id/cancel", runH.Cancel)

	sources := v1.Group("/sources")
	sources.GET("/:identity/artifact", sourceH.Artifact)

	return r
}
