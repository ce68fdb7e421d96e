package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the booking endpoints. writeLimit guards the mutating routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, writeLimit gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/week", h.Week)
		group.GET("/:id", h.Get)
		group.POST("", writeLimit, h.Create)
		group.PUT("/:id", writeLimit, h.Update)
		group.DELETE("/:id", writeLimit, h.Delete)
	}
}
