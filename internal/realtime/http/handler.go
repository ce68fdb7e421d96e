package http

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/auditorium-booking/internal/realtime"
)

type Handler struct {
	hub       *realtime.Hub
	keepAlive time.Duration
}

func NewHandler(hub *realtime.Hub) *Handler {
	return &Handler{hub: hub, keepAlive: 25 * time.Second}
}

// Stream sends change events as Server-Sent Events until the client disconnects.
func (h *Handler) Stream(c *gin.Context) {
	events, cancel := h.hub.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case e, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(e.Table, e)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	g.GET("/events", authMiddleware, h.Stream)
}
