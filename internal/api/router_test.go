package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/auditorium-booking/internal/auth"
	"github.com/nekogravitycat/auditorium-booking/internal/booking"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/metrics"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/request"
	"github.com/nekogravitycat/auditorium-booking/internal/realtime"
	"github.com/nekogravitycat/auditorium-booking/internal/user"
)

type stubUsers struct{}

func (stubUsers) Register(context.Context, string, string, string) (*user.User, error) {
	return nil, user.ErrEmailAlreadyUsed
}

func (stubUsers) Login(context.Context, string, string) (*user.User, error) {
	return nil, user.ErrInvalidCredentials
}

func (stubUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	return &user.User{ID: id, Email: id + "@example.org", IsActive: true}, nil
}

func newTestRouter(t *testing.T, mutate func(*Config)) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, request.RegisterValidators())

	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)

	jwtManager := auth.NewJWTManager("router-secret", time.Hour)
	cfg := Config{
		UserService:    stubUsers{},
		BookingService: booking.NewService(booking.NewMemoryRepository()),
		JWTManager:     jwtManager,
		Gatherer:       reg,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRouter(cfg), jwtManager
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	down, _ := newTestRouter(t, func(c *Config) {
		c.HealthCheck = func(context.Context) error { return errors.New("db unreachable") }
	})
	w = serve(down, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "db unreachable")
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `auditorium_http_requests_total{method="GET",route="/healthz",status="200"}`)
}

func TestWriteRateLimit(t *testing.T) {
	r, jwtManager := newTestRouter(t, func(c *Config) {
		c.RateLimitRPS = 0.001
		c.RateLimitBurst = 1
	})
	token, err := jwtManager.GenerateAccessToken("alice", "alice@example.org")
	require.NoError(t, err)

	post := func(start, end string) int {
		body, _ := json.Marshal(map[string]string{
			"date": "2025-03-10", "start_time": start, "end_time": end,
			"title": "Talk", "booked_by": "Alice",
		})
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusCreated, post("09:00", "10:00"))
	assert.Equal(t, http.StatusTooManyRequests, post("10:00", "11:00"))

	// Reads are not limited.
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestEventsRouteRequiresHub(t *testing.T) {
	r, jwtManager := newTestRouter(t, nil)
	token, err := jwtManager.GenerateAccessToken("alice", "alice@example.org")
	require.NoError(t, err)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/v1/events?access_token="+token, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	withHub, _ := newTestRouter(t, func(c *Config) { c.Hub = realtime.NewHub(1) })
	w = serve(withHub, httptest.NewRequest(http.MethodGet, "/v1/events", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORS(t *testing.T) {
	r, _ := newTestRouter(t, func(c *Config) {
		c.IsProduction = true
		c.ProdOrigins = "https://rooms.example.org, https://admin.example.org"
	})

	req := httptest.NewRequest(http.MethodOptions, "/v1/bookings", nil)
	req.Header.Set("Origin", "https://rooms.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := serve(r, req)
	assert.Equal(t, "https://rooms.example.org", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, strings.TrimSpace(w.Header().Get("Access-Control-Allow-Origin")) == "")
}
