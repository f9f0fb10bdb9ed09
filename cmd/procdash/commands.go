package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/procdash/internal/config"
	"github.com/loykin/procdash/internal/dashboard"
	"github.com/loykin/procdash/internal/history"
	"github.com/loykin/procdash/internal/history/factory"
	"github.com/loykin/procdash/internal/logger"
	"github.com/loykin/procdash/internal/metrics"
	"github.com/loykin/procdash/internal/tui"
	"github.com/loykin/procdash/internal/webui"
	"github.com/loykin/procdash/pkg/client"
)

// command implements every subcommand against the supervisor API.
type command struct {
	gf *GlobalFlags
}

// setup resolves the effective configuration (file, flags, stored
// session) and builds the API client.
func (c command) setup() (*client.Client, config.FileConfig, error) {
	fc := config.Default()
	if c.gf.ConfigPath != "" {
		loaded, err := config.Load(c.gf.ConfigPath)
		if err != nil {
			return nil, fc, err
		}
		fc = loaded
	}
	if c.gf.APIUrl != "" {
		fc.Server.URL = c.gf.APIUrl
	}
	if c.gf.APITimeout > 0 {
		fc.Server.Timeout = c.gf.APITimeout
	}
	if c.gf.Insecure {
		fc.Server.Insecure = true
	}

	token := fc.Server.Token
	if token == "" {
		if session, err := NewSessionManager().LoadSession(); err == nil && session != nil {
			token = session.Token
		}
	}

	lg, _, err := logger.New(fc.Log)
	if err != nil {
		return nil, fc, err
	}

	var tlsCfg *client.TLSClientConfig
	if fc.Server.CACert != "" {
		tlsCfg = &client.TLSClientConfig{Enabled: true, CACert: fc.Server.CACert}
	}
	cli := client.New(client.Config{
		BaseURL:  fc.Server.URL,
		Timeout:  fc.Server.Timeout,
		Token:    token,
		Logger:   lg,
		TLS:      tlsCfg,
		Insecure: fc.Server.Insecure,
	})
	return cli, fc, nil
}

// Status prints the process snapshot, optionally narrowed to one name.
func (c command) Status(name string) error {
	cli, _, err := c.setup()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshot, err := cli.Status(ctx)
	if err != nil {
		return describeErr(err)
	}
	if name == "" {
		printJSON(snapshot)
		return nil
	}
	raw, ok := snapshot[name]
	if !ok {
		return fmt.Errorf("process %q not found", name)
	}
	printJSON(raw)
	return nil
}

// Detail prints the supervisor's full record for one process. This is a
// read-only projection; it never feeds the local registry.
func (c command) Detail(name string) error {
	cli, _, err := c.setup()
	if err != nil {
		return err
	}
	data, err := cli.Detail(context.Background(), name)
	if err != nil {
		return describeErr(err)
	}
	printJSON(data)
	return nil
}

// Lifecycle runs one start/stop/restart against a single process.
func (c command) Lifecycle(action dashboard.Action, name string) error {
	cli, _, err := c.setup()
	if err != nil {
		return err
	}
	if err := cli.Command(context.Background(), string(action), name); err != nil {
		return describeErr(err)
	}
	fmt.Printf("%s %s: ok\n", action, name)
	return nil
}

// Bulk dispatches one action to many targets through the coordinator
// and prints the aggregated result.
func (c command) Bulk(f BulkFlags) error {
	cli, fc, err := c.setup()
	if err != nil {
		return err
	}
	action := dashboard.Action(f.Action)
	switch action {
	case dashboard.ActionStart, dashboard.ActionStop, dashboard.ActionRestart:
	default:
		return fmt.Errorf("unknown action %q: use start, stop or restart", f.Action)
	}

	limit := fc.Bulk.MaxConcurrent
	if f.MaxConcurrent > 0 {
		limit = f.MaxConcurrent
	}

	state := dashboard.NewState(dashboard.StateConfig{})
	rec := dashboard.NewReconciler(state, cli, dashboard.ReconcilerConfig{})
	coord := dashboard.NewCoordinator(state, cli, rec, dashboard.CoordinatorConfig{Limit: limit})

	res, err := coord.Dispatch(context.Background(), action, f.Names)
	if err != nil {
		return describeErr(err)
	}

	type targetLine struct {
		Target  string `json:"target"`
		Outcome string `json:"outcome"`
		Error   string `json:"error,omitempty"`
	}
	out := struct {
		Action       string       `json:"action"`
		SuccessCount int          `json:"success_count"`
		FailureCount int          `json:"failure_count"`
		Targets      []targetLine `json:"targets"`
	}{Action: string(res.Action), SuccessCount: res.SuccessCount, FailureCount: res.FailureCount}
	for _, tr := range res.Targets {
		line := targetLine{Target: tr.Target, Outcome: "success"}
		if tr.Err != nil {
			line.Outcome = "failure"
			line.Error = tr.Err.Error()
		}
		out.Targets = append(out.Targets, line)
	}
	printJSON(out)

	if res.FailureCount > 0 {
		return fmt.Errorf("%d of %d targets failed", res.FailureCount, len(res.Targets))
	}
	return nil
}

// Watch runs the interactive terminal dashboard.
func (c command) Watch(f WatchFlags) error {
	cli, fc, err := c.setup()
	if err != nil {
		return err
	}

	interval := fc.Refresh.Interval
	if f.Interval > 0 {
		interval = f.Interval
	}
	enabled := fc.Refresh.Enabled && !f.NoAutoRefresh

	var sink history.Sink
	if fc.History.DSN != "" {
		sink, err = factory.NewSinkFromDSN(fc.History.DSN)
		if err != nil {
			return fmt.Errorf("open history sink: %w", err)
		}
		defer closeIfCloser(sink)
	}

	msn := tui.NewMessenger()
	state := dashboard.NewState(dashboard.StateConfig{Renderer: msn, Notifier: msn, Sink: sink})
	rec := dashboard.NewReconciler(state, cli, dashboard.ReconcilerConfig{Interval: interval, Enabled: enabled})
	coord := dashboard.NewCoordinator(state, cli, rec, dashboard.CoordinatorConfig{Limit: fc.Bulk.MaxConcurrent})

	if fc.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return err
		}
		go serveMetrics(fc.Metrics.Listen)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return tui.Run(ctx, msn, state, rec, coord)
}

// Web serves the browser dashboard and command proxy.
func (c command) Web(f WebFlags) error {
	cli, fc, err := c.setup()
	if err != nil {
		return err
	}
	if f.Listen != "" {
		fc.Web.Listen = f.Listen
	}
	if f.BasePath != "" {
		fc.Web.BasePath = f.BasePath
	}
	if f.WebRoot != "" {
		fc.Web.WebRoot = f.WebRoot
	}

	server := webui.NewServer(fc.Web.Listen, cli, webui.Config{
		BasePath: fc.Web.BasePath,
		WebRoot:  fc.Web.WebRoot,
		LogPath:  fc.Log.Path,
	})
	fmt.Printf("web dashboard listening on %s\n", fc.Web.Listen)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Login verifies the token against the supervisor and stores it.
func (c command) Login(f LoginFlags) error {
	cli, fc, err := c.setup()
	if err != nil {
		return err
	}
	cli.SetToken(f.Token)
	if err := cli.Alive(context.Background()); err != nil {
		return fmt.Errorf("token rejected: %w", describeErr(err))
	}

	sm := NewSessionManager()
	if err := sm.SaveSession(&Session{
		Token:     f.Token,
		ServerURL: fc.Server.URL,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	fmt.Printf("logged in to %s (session stored at %s)\n", fc.Server.URL, sm.GetSessionPath())
	return nil
}

// Logout removes the stored session.
func (c command) Logout() error {
	sm := NewSessionManager()
	if !sm.IsLoggedIn() {
		fmt.Println("no active session")
		return nil
	}
	if err := sm.ClearSession(); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

// Version prints the supervisor's reported version.
func (c command) Version() error {
	cli, _, err := c.setup()
	if err != nil {
		return err
	}
	version, err := cli.Version(context.Background())
	if err != nil {
		return describeErr(err)
	}
	fmt.Println(version)
	return nil
}

// Reload asks the supervisor to reload its configuration.
func (c command) Reload() error {
	cli, _, err := c.setup()
	if err != nil {
		return err
	}
	if err := cli.Reload(context.Background()); err != nil {
		return describeErr(err)
	}
	fmt.Println("reload: ok")
	return nil
}

// DaemonPID prints the supervisor daemon's PID.
func (c command) DaemonPID() error {
	cli, _, err := c.setup()
	if err != nil {
		return err
	}
	pid, err := cli.DaemonPID(context.Background())
	if err != nil {
		return describeErr(err)
	}
	fmt.Println(pid)
	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	_ = server.ListenAndServe()
}

// describeErr turns transport sentinels into operator-friendly messages.
func describeErr(err error) error {
	switch {
	case errors.Is(err, client.ErrAuthRequired):
		return errors.New("authentication required: run 'procdash login --token=...'")
	case errors.Is(err, client.ErrTimeout):
		return fmt.Errorf("supervisor did not answer in time: %w", err)
	default:
		return err
	}
}

func closeIfCloser(sink history.Sink) {
	if closer, ok := sink.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
