package http

import (
	"github.com/gin-gonic/gin"

	"github.com/lenscart/backend/config"
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
	router.Use(LoggerMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.PerIP > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	}

	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		analyze := v1.Group("/analyze")
		{
			analyze.POST("/image", handler.AnalyzeImage)
			analyze.POST("/image-url", handler.AnalyzeImageURL)
		}

		products := v1.Group("/products")
		{
			products.GET("", handler.GetProducts)
			products.GET("/search", handler.SearchProducts)
		}

		v1.GET("/categories", handler.GetCategories)
		v1.GET("/stats", handler.GetStats)
	}

	return router
}
