package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"postpilot/api/handlers"
	"postpilot/api/middleware"
	_ "postpilot/docs"
	"postpilot/services"
)

// PingFunc reports storage reachability for the health endpoint.
type PingFunc func(ctx context.Context) error

func New(analyses *services.AnalysisService, generation *services.GenerationService, ping PingFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestTrace())
	r.Use(middleware.SlowRequestLog())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mongo": "down", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// v1 routes, all owner-scoped
	api := r.Group("/api/v1")
	api.Use(middleware.RequireOwner())
	{
		api.POST("/analyses", handlers.CreateAnalysisHandler(analyses))
		api.GET("/analyses", handlers.ListAnalysesHandler(analyses))
		api.GET("/analyses/:id", handlers.GetAnalysisHandler(analyses))
		api.DELETE("/analyses/:id", handlers.DeleteAnalysisHandler(analyses))
		api.GET("/analyses/:id/status", handlers.StatusHandler(analyses))

		api.POST("/analyses/:id/upload", handlers.UploadHandler(analyses))
		api.POST("/analyses/:id/crawl", handlers.CrawlHandler(analyses))
		api.POST("/crawl/discover", handlers.DiscoverHandler(analyses))

		api.POST("/analyses/:id/generate", handlers.GenerateHandler(generation))
		api.GET("/analyses/:id/config", handlers.GetConfigHandler(generation))
	}

	return r
}
