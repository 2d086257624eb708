package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventweave.app/planner/internal/httpapi/handler"
)

// SetupRoutes wires the planning endpoints spec §6 names.
func SetupRoutes(router *gin.Engine, h *handler.PlanningHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	sessions := router.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.POST("/:id/request", h.Request)
		sessions.POST("/:id/corrections", h.Correction)
	}
}
