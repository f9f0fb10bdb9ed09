package history

import (
	"context"
	"time"
)

// EventType defines the kind of dashboard observation.
type EventType string

const (
	// EventAppeared records a process newly present in a poll snapshot.
	EventAppeared EventType = "appeared"
	// EventVanished records a process dropped from a poll snapshot.
	EventVanished EventType = "vanished"
	// EventStateChange records an observed state transition between polls.
	EventStateChange EventType = "state_change"
	// EventBulk records the outcome of one target of a bulk dispatch.
	EventBulk EventType = "bulk"
)

// Event represents a single observation made by the dashboard client,
// suitable for export to external audit/analytics systems.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Name       string    `json:"name"`
	PID        int       `json:"pid"`
	State      string    `json:"state"`
	Detail     string    `json:"detail,omitempty"` // prior state, action, or error text
}

// Sink is a destination for history events (analytics/statistics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
