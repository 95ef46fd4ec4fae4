// Package history records service lifecycle events (confirmed spawns and
// confirmed stops) in a pluggable store. Recording is best-effort: the
// supervisor logs store errors and proceeds.
package history

import (
	"context"
	"time"
)

type EventType string

const (
	EventStart EventType = "start"
	EventStop  EventType = "stop"
)

// Event is one lifecycle transition of a named service.
type Event struct {
	Service    string
	PID        int
	Type       EventType
	OccurredAt time.Time
	Detail     string // optional, e.g. "escalated to SIGKILL"
}

// Store persists lifecycle events.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Append(ctx context.Context, ev Event) error
	Recent(ctx context.Context, service string, limit int) ([]Event, error)
	Close() error
}
