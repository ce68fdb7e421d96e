package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/auditorium-booking/internal/pkg/logger"
)

// PgNotifier publishes events through Postgres NOTIFY so every instance's Listener sees them.
type PgNotifier struct {
	pool    *pgxpool.Pool
	channel string
}

func NewPgNotifier(pool *pgxpool.Pool, channel string) *PgNotifier {
	return &PgNotifier{pool: pool, channel: channel}
}

func (n *PgNotifier) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := n.pool.Exec(ctx, "SELECT pg_notify($1, $2)", n.channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", n.channel, err)
	}
	return nil
}

// Listener holds one pool connection in LISTEN mode and forwards notifications to a Hub.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	hub     *Hub
	log     *logger.Logger
	backoff time.Duration
}

func NewListener(pool *pgxpool.Pool, channel string, hub *Hub, log *logger.Logger) *Listener {
	return &Listener{pool: pool, channel: channel, hub: hub, log: log, backoff: time.Second}
}

// Run blocks until ctx is done, reconnecting after connection failures.
func (l *Listener) Run(ctx context.Context) {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		l.log.Warn("realtime listener disconnected", "channel", l.channel, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.backoff):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.log.Info("realtime listener started", "channel", l.channel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var e Event
		if err := json.Unmarshal([]byte(n.Payload), &e); err != nil {
			l.log.Warn("dropping malformed notification", "channel", n.Channel, "error", err)
			continue
		}
		if err := l.hub.Publish(ctx, e); err != nil && !errors.Is(err, context.Canceled) {
			l.log.Warn("hub publish failed", "error", err)
		}
	}
}
