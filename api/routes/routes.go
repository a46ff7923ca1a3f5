package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papyrusai/papyrus/api/handlers"
	"github.com/papyrusai/papyrus/api/middleware"
)

// SetupRoutes registers all API routes.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/convert", h.Convert.Convert)
		v1.GET("/backends", h.Convert.Backends)
	}
}
