package realtime

import (
	"context"
	"time"
)

// Event is a row-level change notification. Subscribers are expected to re-fetch, not patch.
type Event struct {
	Table string    `json:"table"`
	Op    string    `json:"op"`
	ID    string    `json:"id"`
	Date  string    `json:"date,omitempty"`
	At    time.Time `json:"at"`
}

// Publisher delivers events to every subscriber, possibly on other instances.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events. Used when realtime is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
