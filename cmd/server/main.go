package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/auditorium-booking/internal/app"
	"github.com/nekogravitycat/auditorium-booking/internal/config"
	"github.com/nekogravitycat/auditorium-booking/internal/db"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/logger"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "auditorium-booking",
	})

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		lg.Fatal("failed to connect to db", "error", err)
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		if err := db.ApplySchema(ctx, pool); err != nil {
			lg.Fatal("failed to apply schema", "error", err)
		}
	}

	// Redis is optional
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			lg.Warn("redis unreachable, week cache will miss until it recovers", "addr", cfg.RedisAddr, "error", err)
		}
	}

	container, err := app.NewContainer(app.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		DBPool:          pool,
		JWTSecret:       cfg.JWTSecret,
		JWTTTL:          cfg.JWTAccessTokenTTL,
		BcryptCost:      cfg.BcryptCost,
		StorageBackend:  cfg.StorageBackend,
		SupabaseURL:     cfg.SupabaseURL,
		SupabaseKey:     cfg.SupabaseKey,
		Redis:           rdb,
		CacheTTL:        cfg.CacheTTL,
		RealtimeChannel: cfg.RealtimeChannel,
		RateLimitRPS:    cfg.RateLimitRPS,
		RateLimitBurst:  cfg.RateLimitBurst,
		Logger:          lg,
	})
	if err != nil {
		lg.Fatal("failed to build application", "error", err)
	}

	// Forward change notifications to SSE subscribers until shutdown
	go container.Listener.Run(ctx)

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		lg.Info("server running", "addr", cfg.HTTPAddr, "storage", cfg.StorageBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", "error", err)
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	lg.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// End open SSE streams so Shutdown does not wait on them
	container.Hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", "error", err)
	}

	lg.Info("server exited gracefully")
}
