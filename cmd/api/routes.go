package main

import (
	"cdr-analyzer/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "CDR Analyzer API", "status": "running"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/upload", h.Upload)
		v1.GET("/calls", h.ListCalls)

		statsGroup := v1.Group("/stats")
		{
			statsGroup.GET("/daily", h.DailyStats)
			statsGroup.GET("/extensions", h.ExtensionStats)
			statsGroup.GET("/unique-callers", h.UniqueCallerStats)
		}

		// Destructive; deliberate path under /admin so it is hard to hit by
		// accident from dashboard code.
		v1.DELETE("/admin/clear-database", h.ClearDatabase)
	}
}
