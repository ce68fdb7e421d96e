package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/auditorium-booking/internal/announcement"
	"github.com/nekogravitycat/auditorium-booking/internal/api"
	"github.com/nekogravitycat/auditorium-booking/internal/auth"
	"github.com/nekogravitycat/auditorium-booking/internal/booking"
	"github.com/nekogravitycat/auditorium-booking/internal/config"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/logger"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/metrics"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/request"
	"github.com/nekogravitycat/auditorium-booking/internal/realtime"
	"github.com/nekogravitycat/auditorium-booking/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int

	StorageBackend string
	SupabaseURL    string
	SupabaseKey    string

	// Redis is optional; nil disables the week cache.
	Redis    *redis.Client
	CacheTTL time.Duration

	RealtimeChannel string

	RateLimitRPS   float64
	RateLimitBurst int

	Logger *logger.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Hub        *realtime.Hub
	// Listener feeds the Hub from Postgres notifications. Run it for the life of the process.
	Listener *realtime.Listener
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	if err := request.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Realtime: writes NOTIFY, the listener fans notifications out to local SSE clients
	hub := realtime.NewHub(64)
	notifier := realtime.NewPgNotifier(cfg.DBPool, cfg.RealtimeChannel)
	listener := realtime.NewListener(cfg.DBPool, cfg.RealtimeChannel, hub, log)

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, log)

	// Booking Module
	bookingRepo, err := newBookingRepository(cfg)
	if err != nil {
		return nil, err
	}
	bookingOpts := []booking.Option{
		booking.WithPublisher(notifier),
		booking.WithLogger(log),
	}
	if cfg.Redis != nil {
		bookingOpts = append(bookingOpts, booking.WithWeekCache(booking.NewRedisWeekCache(cfg.Redis, cfg.CacheTTL)))
	}
	bookingService := booking.NewService(bookingRepo, bookingOpts...)

	// Announcement Module
	postRepo := announcement.NewPgxRepository(cfg.DBPool)
	postService := announcement.NewService(postRepo, notifier, log)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		UserService:    userService,
		BookingService: bookingService,
		PostService:    postService,
		JWTManager:     jwtManager,
		Hub:            hub,
		Gatherer:       reg,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		HealthCheck: func(ctx context.Context) error {
			if err := cfg.DBPool.Ping(ctx); err != nil {
				return fmt.Errorf("database: %w", err)
			}
			if cfg.Redis != nil {
				if err := cfg.Redis.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			return nil
		},
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Hub:        hub,
		Listener:   listener,
	}, nil
}

func newBookingRepository(cfg Config) (booking.Repository, error) {
	switch cfg.StorageBackend {
	case "", config.StoragePostgres:
		return booking.NewPgxRepository(cfg.DBPool), nil
	case config.StorageSupabase:
		repo, err := booking.NewSupabaseRepository(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.StorageMemory:
		return booking.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
