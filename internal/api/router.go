package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nekogravitycat/auditorium-booking/internal/announcement"
	annHttp "github.com/nekogravitycat/auditorium-booking/internal/announcement/http"
	"github.com/nekogravitycat/auditorium-booking/internal/auth"
	"github.com/nekogravitycat/auditorium-booking/internal/booking"
	bookingHttp "github.com/nekogravitycat/auditorium-booking/internal/booking/http"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/metrics"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/middleware"
	"github.com/nekogravitycat/auditorium-booking/internal/realtime"
	realtimeHttp "github.com/nekogravitycat/auditorium-booking/internal/realtime/http"
	"github.com/nekogravitycat/auditorium-booking/internal/user"
	userHttp "github.com/nekogravitycat/auditorium-booking/internal/user/http"
)

// Config carries the services and settings the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	UserService    user.Service
	BookingService booking.Service
	PostService    announcement.Service
	JWTManager     *auth.JWTManager

	// Hub is optional; /v1/events is only served when set.
	Hub *realtime.Hub

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	RateLimitRPS   float64
	RateLimitBurst int

	// HealthCheck reports dependency health for /healthz. Nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	// - Metrics: Counts requests per route template.
	r.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	r.Use(cors.New(corsConfig(cfg)))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// writeLimit: Token bucket per signed-in user, applied to mutating routes.
	writeLimit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, auth.GetUserID)
	// authLimit: Token bucket per client IP for the public auth endpoints.
	authLimit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, nil)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	postHandler := annHttp.NewHandler(cfg.PostService)

	r.GET("/healthz", healthHandler(cfg.HealthCheck))
	if cfg.Gatherer != nil {
		r.GET("/metrics", metrics.Handler(cfg.Gatherer))
	}

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, authLimit)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, writeLimit)
		annHttp.RegisterRoutes(v1, postHandler, authMiddleware, writeLimit)
		if cfg.Hub != nil {
			realtimeHttp.RegisterRoutes(v1, realtimeHttp.NewHandler(cfg.Hub), authMiddleware)
		}
	}

	return r
}

// corsConfig allows the local front end in development and PROD_ORIGINS in production.
func corsConfig(cfg Config) cors.Config {
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}
	if cfg.IsProduction {
		config.AllowOrigins = nil
		for _, o := range strings.Split(cfg.ProdOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				config.AllowOrigins = append(config.AllowOrigins, o)
			}
		}
		if len(config.AllowOrigins) == 0 {
			// No browser origin is allowed; cors.New rejects an empty list without a func.
			config.AllowOriginFunc = func(string) bool { return false }
		}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	return config
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
