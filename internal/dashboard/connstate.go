package dashboard

import (
	"sync"

	"github.com/loykin/procdash/internal/metrics"
)

// ConnState describes the client's view of daemon reachability.
type ConnState string

const (
	// Connecting is the initial state before the first poll resolves.
	Connecting ConnState = "connecting"
	// Connected means the most recent poll or liveness check succeeded.
	Connected ConnState = "connected"
	// Disconnected means the most recent poll or liveness check failed.
	Disconnected ConnState = "disconnected"
)

// ConnTracker holds the single process-wide connection state. It is a
// steady-state oscillator: connected and disconnected flip back and
// forth driven by poll outcomes, with no terminal state.
type ConnTracker struct {
	mu    sync.Mutex
	state ConnState
}

func NewConnTracker() *ConnTracker {
	metrics.SetConnectionState(string(Connecting), true)
	return &ConnTracker{state: Connecting}
}

// Set transitions to s. Returns true when the state actually changed.
func (c *ConnTracker) Set(s ConnState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == s {
		return false
	}
	metrics.SetConnectionState(string(c.state), false)
	metrics.SetConnectionState(string(s), true)
	c.state = s
	return true
}

// State returns the current connection state.
func (c *ConnTracker) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
