package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/millscan/backend/config"
	"github.com/millscan/backend/internal/monitoring"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, metrics *monitoring.Metrics) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(MetricsMiddleware(metrics))

	// Health and metrics endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		certificates := v1.Group("/certificates")
		{
			certificates.POST("", handler.UploadCertificate)
		}

		jobs := v1.Group("/jobs")
		{
			jobs.GET("", handler.ListJobs)
			jobs.GET("/:id", handler.GetJob)
			jobs.GET("/:id/text", handler.GetJobText)
			jobs.GET("/:id/analysis", handler.GetAnalysis)
			jobs.POST("/:id/query", handler.QueryJob)
			jobs.GET("/:id/export", handler.ExportJob)
		}
	}

	return router
}
