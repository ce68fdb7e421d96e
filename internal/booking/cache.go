package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// WeekCache holds the bookings of one Monday..Friday week, keyed by the week's Monday.
//
// Every week carries a version that Invalidate bumps. Get reports the version it read under,
// and Set stores bookings under that version only, so a snapshot taken before a write can
// never be served after the write has invalidated the week.
type WeekCache interface {
	Get(ctx context.Context, weekStart time.Time) (bookings []*Booking, version int64, ok bool, err error)
	Set(ctx context.Context, weekStart time.Time, version int64, bookings []*Booking) error
	Invalidate(ctx context.Context, weekStarts ...time.Time) error
}

type redisWeekCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisWeekCache(client *redis.Client, ttl time.Duration) WeekCache {
	return &redisWeekCache{client: client, ttl: ttl, prefix: "bookings:week:"}
}

// versionKey has no expiry: resetting it would make an old snapshot reachable again.
func (c *redisWeekCache) versionKey(weekStart time.Time) string {
	return c.prefix + WeekStart(weekStart).Format(DateLayout) + ":version"
}

func (c *redisWeekCache) dataKey(weekStart time.Time, version int64) string {
	return c.prefix + WeekStart(weekStart).Format(DateLayout) + ":v" + strconv.FormatInt(version, 10)
}

func (c *redisWeekCache) Get(ctx context.Context, weekStart time.Time) ([]*Booking, int64, bool, error) {
	version, err := c.client.Get(ctx, c.versionKey(weekStart)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("read week cache version: %w", err)
	}

	raw, err := c.client.Get(ctx, c.dataKey(weekStart, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("read week cache: %w", err)
	}

	var bookings []*Booking
	if err := json.Unmarshal(raw, &bookings); err != nil {
		return nil, version, false, fmt.Errorf("decode week cache: %w", err)
	}
	return bookings, version, true, nil
}

func (c *redisWeekCache) Set(ctx context.Context, weekStart time.Time, version int64, bookings []*Booking) error {
	raw, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("encode week cache: %w", err)
	}
	if err := c.client.Set(ctx, c.dataKey(weekStart, version), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write week cache: %w", err)
	}
	return nil
}

func (c *redisWeekCache) Invalidate(ctx context.Context, weekStarts ...time.Time) error {
	if len(weekStarts) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range weekStarts {
			pipe.Incr(ctx, c.versionKey(w))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate week cache: %w", err)
	}
	return nil
}
