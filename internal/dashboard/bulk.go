package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loykin/procdash/internal/history"
	"github.com/loykin/procdash/internal/metrics"
)

// Action is a per-process lifecycle command.
type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
)

// ErrNoSelection is returned when a bulk dispatch is attempted with no
// targets. No transport call is made in that case.
var ErrNoSelection = errors.New("no processes selected")

// TargetResult is the outcome of one target within a bulk dispatch.
type TargetResult struct {
	Target string
	Err    error
}

// Success reports whether the target's command succeeded.
func (t TargetResult) Success() bool { return t.Err == nil }

// BulkResult aggregates a settled bulk dispatch. Targets preserves the
// input order regardless of completion order.
type BulkResult struct {
	Action       Action
	Targets      []TargetResult
	SuccessCount int
	FailureCount int
}

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	// Limit bounds concurrent transport calls per dispatch. Zero means
	// unbounded fan-out: every target is issued immediately.
	Limit  int
	Logger *slog.Logger
}

// Coordinator dispatches one lifecycle command per target concurrently
// and collects every outcome independently: a failing target never
// cancels or blocks its siblings. After all targets settle it forces
// exactly one reconciliation poll so the registry reflects the
// post-action authoritative state.
type Coordinator struct {
	state      *State
	transport  Transport
	reconciler *Reconciler
	limit      int
	logger     *slog.Logger
}

func NewCoordinator(state *State, transport Transport, reconciler *Reconciler, cfg CoordinatorConfig) *Coordinator {
	if cfg.Limit < 0 {
		cfg.Limit = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Coordinator{
		state:      state,
		transport:  transport,
		reconciler: reconciler,
		limit:      cfg.Limit,
		logger:     cfg.Logger,
	}
}

// DispatchSelection dispatches action against a snapshot of the current
// selection taken at call time. Toggles made afterwards do not affect
// the running dispatch.
func (c *Coordinator) DispatchSelection(ctx context.Context, action Action) (*BulkResult, error) {
	return c.Dispatch(ctx, action, c.state.Selection.Snapshot())
}

// Dispatch runs action against every target concurrently and waits for
// all of them to settle. Empty targets is a validation error reported
// immediately with zero network activity.
func (c *Coordinator) Dispatch(ctx context.Context, action Action, targets []string) (*BulkResult, error) {
	if len(targets) == 0 {
		c.state.notifier.Error("no processes selected")
		return nil, ErrNoSelection
	}

	metrics.IncBulkDispatch(string(action))
	c.logger.Debug("bulk dispatch", "action", string(action), "targets", len(targets))

	var sem chan struct{}
	if c.limit > 0 {
		sem = make(chan struct{}, c.limit)
	}

	results := make([]TargetResult, len(targets))
	var wg sync.WaitGroup
	for i, name := range targets {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			err := c.transport.Command(ctx, string(action), name)
			if err != nil {
				metrics.IncCommand(string(action), "error")
			} else {
				metrics.IncCommand(string(action), "success")
			}
			results[i] = TargetResult{Target: name, Err: err}
		}(i, name)
	}
	wg.Wait()

	res := &BulkResult{Action: action, Targets: results}
	for _, tr := range results {
		if tr.Success() {
			res.SuccessCount++
		} else {
			res.FailureCount++
		}
	}

	c.publish(ctx, res)
	c.notify(res)

	// One forced refresh regardless of how many targets failed.
	_ = c.reconciler.PollNow(ctx)

	return res, nil
}

// notify surfaces the aggregate to the operator: a mixed result yields
// two messages, one success-flavored and one error-flavored.
func (c *Coordinator) notify(res *BulkResult) {
	if res.SuccessCount > 0 {
		c.state.notifier.Success(fmt.Sprintf("%s succeeded for %d process(es)", res.Action, res.SuccessCount))
	}
	if res.FailureCount > 0 {
		c.state.notifier.Error(fmt.Sprintf("%s failed for %d process(es)", res.Action, res.FailureCount))
	}
}

func (c *Coordinator) publish(ctx context.Context, res *BulkResult) {
	if c.state.sink == nil {
		return
	}
	now := time.Now().UTC()
	for _, tr := range res.Targets {
		detail := string(res.Action)
		if tr.Err != nil {
			detail = fmt.Sprintf("%s: %v", res.Action, tr.Err)
		}
		c.state.send(ctx, history.Event{
			Type:       history.EventBulk,
			OccurredAt: now,
			Name:       tr.Target,
			State:      outcome(tr),
			Detail:     detail,
		})
	}
}

func outcome(tr TargetResult) string {
	if tr.Success() {
		return "success"
	}
	return "failure"
}
