package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(Logger(handler.logger))

	// Health check
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/ingest-msg-dir", handler.IngestMsg)

		issues := api.Group("/issues")
		{
			issues.GET("", handler.ListIssues)
			issues.GET("/:id", handler.GetIssue)
		}
	}

	return router
}
