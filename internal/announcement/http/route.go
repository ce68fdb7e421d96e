package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, writeLimit gin.HandlerFunc) {
	group := g.Group("/posts")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", writeLimit, h.Create)
		group.PATCH("/:id", writeLimit, h.Update)
		group.DELETE("/:id", writeLimit, h.Delete)
	}
}
