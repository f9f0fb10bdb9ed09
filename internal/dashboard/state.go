package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/loykin/procdash/internal/history"
	"github.com/loykin/procdash/internal/metrics"
)

// Renderer is the view collaborator. It materializes diff results
// visually and owns no domain state of its own; user interactions flow
// back through State, SelectionSet and Coordinator methods.
type Renderer interface {
	// Render is called after every successfully applied snapshot with
	// the structural delta. Record data is read through Registry.Get.
	Render(diff DiffResult)
	// RenderEmpty is called when a snapshot leaves the registry empty.
	RenderEmpty()
}

// Notifier is the user-feedback collaborator for operation outcomes.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	// AuthRequired signals that the session is no longer accepted and
	// the operator must log in again. It is fatal to the current
	// session and never retried.
	AuthRequired()
}

type nopRenderer struct{}

func (nopRenderer) Render(DiffResult) {}
func (nopRenderer) RenderEmpty()      {}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
func (nopNotifier) AuthRequired()  {}

// StateConfig configures a State container. Zero-value collaborators
// are replaced with no-ops so callers wire only what they need.
type StateConfig struct {
	Renderer Renderer
	Notifier Notifier
	// Sink receives history events for applied snapshots and bulk
	// outcomes. Optional; send failures are logged, never propagated.
	Sink   history.Sink
	Logger *slog.Logger
}

// State bundles the shared dashboard singletons: one registry, one
// selection set, one connection tracker per running client. It is
// constructed once and passed explicitly to every component instead of
// living as package-level globals.
type State struct {
	Registry  *Registry
	Selection *SelectionSet
	Conn      *ConnTracker

	renderer Renderer
	notifier Notifier
	sink     history.Sink
	logger   *slog.Logger
}

func NewState(cfg StateConfig) *State {
	reg := NewRegistry()
	s := &State{
		Registry:  reg,
		Selection: NewSelectionSet(reg),
		Conn:      NewConnTracker(),
		renderer:  cfg.Renderer,
		notifier:  cfg.Notifier,
		sink:      cfg.Sink,
		logger:    cfg.Logger,
	}
	if s.renderer == nil {
		s.renderer = nopRenderer{}
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Notifier returns the configured notification collaborator.
func (s *State) Notifier() Notifier { return s.notifier }

// ApplySnapshot runs one reconciliation step: it replaces the registry
// content, evicts vanished names from the selection, publishes history
// events and metrics, and hands the diff to the renderer.
func (s *State) ApplySnapshot(ctx context.Context, snapshot map[string]json.RawMessage) DiffResult {
	prev := s.Registry.States()
	diff := s.Registry.ApplySnapshot(snapshot)
	s.Selection.evict(diff.Removed)
	metrics.SetKnownProcesses(s.Registry.Len())

	s.publishDiff(ctx, prev, diff)

	if s.Registry.Len() == 0 {
		s.renderer.RenderEmpty()
	} else {
		s.renderer.Render(diff)
	}
	return diff
}

// publishDiff converts the applied diff into history events: one
// "appeared" per added name, one "vanished" per removed name, and one
// "state_change" per updated name whose state differs from last poll.
func (s *State) publishDiff(ctx context.Context, prev map[string]ProcState, diff DiffResult) {
	if s.sink == nil {
		return
	}
	now := time.Now().UTC()
	for _, name := range diff.Added {
		rec, _ := s.Registry.Get(name)
		s.send(ctx, history.Event{
			Type:       history.EventAppeared,
			OccurredAt: now,
			Name:       name,
			PID:        pidOf(&rec),
			State:      string(rec.State),
		})
	}
	for _, name := range diff.Updated {
		rec, _ := s.Registry.Get(name)
		if prev[name] == rec.State {
			continue
		}
		s.send(ctx, history.Event{
			Type:       history.EventStateChange,
			OccurredAt: now,
			Name:       name,
			PID:        pidOf(&rec),
			State:      string(rec.State),
			Detail:     fmt.Sprintf("%s -> %s", prev[name], rec.State),
		})
	}
	for _, name := range diff.Removed {
		s.send(ctx, history.Event{
			Type:       history.EventVanished,
			OccurredAt: now,
			Name:       name,
			State:      string(prev[name]),
		})
	}
}

func (s *State) send(ctx context.Context, e history.Event) {
	if err := s.sink.Send(ctx, e); err != nil {
		s.logger.Warn("history sink send failed", "event", string(e.Type), "name", e.Name, "error", err)
	}
}

func pidOf(rec *ProcessRecord) int {
	if rec.PID == nil {
		return 0
	}
	return *rec.PID
}
