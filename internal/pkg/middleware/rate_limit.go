package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/nekogravitycat/auditorium-booking/internal/pkg/metrics"
)

// KeyFunc picks the bucket a request is charged against. An empty key falls back to the client IP.
type KeyFunc func(c *gin.Context) string

type limiterStore struct {
	rps     float64
	burst   int
	buckets sync.Map // map[string]*rate.Limiter
}

func (s *limiterStore) get(key string) *rate.Limiter {
	if v, ok := s.buckets.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := s.buckets.LoadOrStore(key, rate.NewLimiter(rate.Limit(s.rps), s.burst))
	return v.(*rate.Limiter)
}

// RateLimit returns a token-bucket middleware. rps <= 0 disables limiting.
func RateLimit(rps float64, burst int, keyFn KeyFunc) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	store := &limiterStore{rps: rps, burst: burst}

	return func(c *gin.Context) {
		var key string
		if keyFn != nil {
			if k := keyFn(c); k != "" {
				key = "sub:" + k
			}
		}
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		if !store.get(key).Allow() {
			metrics.RateLimitRejected.Inc()
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.Inc()
		c.Next()
	}
}
