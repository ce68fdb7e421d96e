package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the account routes. authLimit throttles the public auth endpoints.
func RegisterRoutes(g *gin.RouterGroup, h *UserHandler, authMiddleware, authLimit gin.HandlerFunc) {
	// Public Routes
	authGroup := g.Group("/auth")
	authGroup.Use(authLimit)
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	// Authenticated Routes
	g.GET("/me", authMiddleware, h.Me)
}
