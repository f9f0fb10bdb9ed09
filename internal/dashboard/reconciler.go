package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loykin/procdash/internal/metrics"
	"github.com/loykin/procdash/pkg/client"
)

// DefaultInterval is the poll cadence used when none is configured.
const DefaultInterval = 5 * time.Second

// Transport is the minimum contract the reconciliation engine requires
// from the wire layer. *client.Client satisfies it.
type Transport interface {
	// Status fetches the full process snapshot.
	Status(ctx context.Context) (client.Snapshot, error)
	// Command runs one lifecycle action (start, stop, restart) against
	// a single named process.
	Command(ctx context.Context, action, name string) error
}

// ReconcilerConfig configures a Reconciler.
type ReconcilerConfig struct {
	// Interval between scheduled polls. Defaults to DefaultInterval.
	Interval time.Duration
	// Enabled arms the scheduled loop on Start. Manual polls work
	// either way.
	Enabled bool
	Logger  *slog.Logger
}

// Reconciler owns the timer-driven refresh cadence. It guarantees at
// most one scheduled poll in flight; manual polls always run and may
// overlap a scheduled one, in which case whichever completes last wins.
// A failed poll leaves the registry untouched and marks the connection
// disconnected; the loop keeps ticking at the same cadence with no
// retry or backoff.
type Reconciler struct {
	state     *State
	transport Transport
	interval  time.Duration
	logger    *slog.Logger

	enabled  atomic.Bool
	inFlight atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewReconciler(state *State, transport Transport, cfg ReconcilerConfig) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &Reconciler{
		state:     state,
		transport: transport,
		interval:  cfg.Interval,
		logger:    cfg.Logger,
	}
	r.enabled.Store(cfg.Enabled)
	return r
}

// Interval returns the configured poll cadence.
func (r *Reconciler) Interval() time.Duration { return r.interval }

// Enabled reports whether scheduled polling is armed.
func (r *Reconciler) Enabled() bool { return r.enabled.Load() }

// Start cancels any existing timer and, when enabled, arms a new
// repeating timer that polls on every tick. The first scheduled poll
// happens one interval after Start.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
	if !r.enabled.Load() {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	go r.loop(loopCtx, done)
}

// Stop cancels the pending timer. It never cancels a poll already in
// flight; that poll completes and still applies its result.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Reconciler) stopLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
}

// SetEnabled toggles scheduled polling: enabling starts the timer,
// disabling cancels it.
func (r *Reconciler) SetEnabled(ctx context.Context, enabled bool) {
	r.enabled.Store(enabled)
	if enabled {
		r.Start(ctx)
	} else {
		r.Stop()
	}
}

func (r *Reconciler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// The poll itself is deliberately not bound to the loop
			// context: stopping the loop must not cancel an in-flight
			// request. The transport enforces its own timeout.
			_ = r.pollOnce(context.Background(), true)
		}
	}
}

// PollNow runs one manual poll. It always executes, regardless of the
// enabled flag or any scheduled poll currently in flight.
func (r *Reconciler) PollNow(ctx context.Context) error {
	return r.pollOnce(ctx, false)
}

func (r *Reconciler) pollOnce(ctx context.Context, scheduled bool) error {
	if scheduled {
		if !r.inFlight.CompareAndSwap(false, true) {
			return nil
		}
		defer r.inFlight.Store(false)
	}

	start := time.Now()
	snapshot, err := r.transport.Status(ctx)
	metrics.ObservePollDuration(time.Since(start).Seconds())

	if err != nil {
		metrics.IncPoll("error")
		r.state.Conn.Set(Disconnected)
		if errors.Is(err, client.ErrAuthRequired) {
			r.logger.Warn("poll rejected, authentication required")
			r.state.notifier.AuthRequired()
			// Fatal to the session: disarm the loop. Stop must run
			// outside this goroutine, which the loop itself owns.
			r.enabled.Store(false)
			go r.Stop()
			return err
		}
		r.logger.Warn("poll failed", "error", err)
		r.state.notifier.Error("failed to refresh process list: " + err.Error())
		return err
	}

	metrics.IncPoll("success")
	r.state.Conn.Set(Connected)
	r.state.ApplySnapshot(ctx, snapshot)
	return nil
}
