package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/routinematch/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Quiz front end routes
	api := router.Group("/api")
	api.Use(RateLimitMiddleware(cfg.RateLimit.PerIPPerMinute))
	{
		api.GET("/health", handler.HealthCheck)
		api.POST("/generate-products", handler.GenerateProducts)
		api.POST("/save-lead", handler.SaveLead)
		api.POST("/create-pix", handler.CreateCharge)
		api.GET("/charge-status", handler.ChargeStatus)
		api.GET("/img", handler.RelayImage)

		v1 := api.Group("/v1")
		{
			v1.POST("/recommendations", handler.Recommend)
		}
	}

	return router
}
