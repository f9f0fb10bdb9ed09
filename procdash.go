package procdash

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/procdash/internal/config"
	"github.com/loykin/procdash/internal/dashboard"
	"github.com/loykin/procdash/internal/history"
	"github.com/loykin/procdash/internal/metrics"
	"github.com/loykin/procdash/internal/webui"
	"github.com/loykin/procdash/pkg/client"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type ProcessRecord = dashboard.ProcessRecord

type DiffResult = dashboard.DiffResult

type Action = dashboard.Action

type BulkResult = dashboard.BulkResult

type ConnState = dashboard.ConnState

type Renderer = dashboard.Renderer

type Notifier = dashboard.Notifier

type HistorySink = history.Sink

type ClientConfig = client.Config

const (
	ActionStart   = dashboard.ActionStart
	ActionStop    = dashboard.ActionStop
	ActionRestart = dashboard.ActionRestart
)

// Dashboard is a thin facade over the reconciliation engine and bulk
// coordinator. It provides a stable public API for embedding.
type Dashboard struct {
	state       *dashboard.State
	reconciler  *dashboard.Reconciler
	coordinator *dashboard.Coordinator
	client      *client.Client
}

// Options configures an embedded Dashboard.
type Options struct {
	Client   ClientConfig
	Interval time.Duration // poll cadence (default 5s)
	Enabled  bool          // arm scheduled polling on Start
	Limit    int           // bulk fan-out bound, 0 = unbounded
	Renderer Renderer
	Notifier Notifier
	Sink     HistorySink
}

// New builds a Dashboard with its own API client.
func New(opts Options) *Dashboard {
	cli := client.New(opts.Client)
	state := dashboard.NewState(dashboard.StateConfig{
		Renderer: opts.Renderer,
		Notifier: opts.Notifier,
		Sink:     opts.Sink,
	})
	rec := dashboard.NewReconciler(state, cli, dashboard.ReconcilerConfig{
		Interval: opts.Interval,
		Enabled:  opts.Enabled,
	})
	coord := dashboard.NewCoordinator(state, cli, rec, dashboard.CoordinatorConfig{Limit: opts.Limit})
	return &Dashboard{state: state, reconciler: rec, coordinator: coord, client: cli}
}

// Client returns the underlying supervisor API client.
func (d *Dashboard) Client() *client.Client { return d.client }

// Start arms the scheduled reconciliation loop.
func (d *Dashboard) Start(ctx context.Context) { d.reconciler.Start(ctx) }

// Stop cancels the pending timer; an in-flight poll still completes.
func (d *Dashboard) Stop() { d.reconciler.Stop() }

// SetAutoRefresh toggles scheduled polling.
func (d *Dashboard) SetAutoRefresh(ctx context.Context, enabled bool) {
	d.reconciler.SetEnabled(ctx, enabled)
}

// Refresh runs one manual poll immediately.
func (d *Dashboard) Refresh(ctx context.Context) error { return d.reconciler.PollNow(ctx) }

// Get returns a read-only copy of one process record.
func (d *Dashboard) Get(name string) (ProcessRecord, bool) { return d.state.Registry.Get(name) }

// Names returns all known process names, sorted.
func (d *Dashboard) Names() []string { return d.state.Registry.Names() }

// Connection reports the current connection state.
func (d *Dashboard) Connection() ConnState { return d.state.Conn.State() }

// Selection operations

func (d *Dashboard) Toggle(name string, selected bool) { d.state.Selection.Toggle(name, selected) }
func (d *Dashboard) SelectAll()                        { d.state.Selection.SelectAll() }
func (d *Dashboard) DeselectAll()                      { d.state.Selection.DeselectAll() }
func (d *Dashboard) HasSelection() bool                { return d.state.Selection.HasSelection() }
func (d *Dashboard) Selected() []string                { return d.state.Selection.Snapshot() }

// Dispatch runs action against targets, settle-all.
func (d *Dashboard) Dispatch(ctx context.Context, action Action, targets []string) (*BulkResult, error) {
	return d.coordinator.Dispatch(ctx, action, targets)
}

// DispatchSelection runs action against a snapshot of the selection.
func (d *Dashboard) DispatchSelection(ctx context.Context, action Action) (*BulkResult, error) {
	return d.coordinator.DispatchSelection(ctx, action)
}

// LoadConfig reads a procdash TOML config file.
func LoadConfig(path string) (cfg.FileConfig, error) { return cfg.Load(path) }

// NewWebServer starts the browser dashboard server backed by the
// dashboard's API client.
func NewWebServer(addr string, d *Dashboard, webCfg cfg.WebConfig) *http.Server {
	return webui.NewServer(addr, d.client, webui.Config{
		BasePath: webCfg.BasePath,
		WebRoot:  webCfg.WebRoot,
	})
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
