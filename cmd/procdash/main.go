package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/loykin/procdash/internal/dashboard"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by every subcommand
type GlobalFlags struct {
	ConfigPath string
	APIUrl     string
	APITimeout time.Duration
	Insecure   bool
}

// StatusFlags holds flags for the status command
type StatusFlags struct {
	Name string
}

// NameFlags holds flags for commands addressing one process
type NameFlags struct {
	Name string
}

// BulkFlags holds flags for the bulk command
type BulkFlags struct {
	Action        string
	Names         []string
	MaxConcurrent int
}

// WatchFlags holds flags for the interactive dashboard
type WatchFlags struct {
	Interval      time.Duration
	NoAutoRefresh bool
}

// WebFlags holds flags for the web dashboard server
type WebFlags struct {
	Listen   string
	BasePath string
	WebRoot  string
}

// LoginFlags holds flags for the login command
type LoginFlags struct {
	Token string
}

// buildRoot creates the root command and wires all subcommands
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	statusFlags := &StatusFlags{}
	detailFlags := &NameFlags{}
	startFlags := &NameFlags{}
	stopFlags := &NameFlags{}
	restartFlags := &NameFlags{}
	bulkFlags := &BulkFlags{}
	watchFlags := &WatchFlags{}
	webFlags := &WebFlags{}
	loginFlags := &LoginFlags{}

	dashCommand := command{gf: globalFlags}

	root := createRootCommand(globalFlags)

	root.AddCommand(
		createStatusCommand(dashCommand, statusFlags),
		createDetailCommand(dashCommand, detailFlags),
		createLifecycleCommand(dashCommand, dashboard.ActionStart, "start a process", startFlags),
		createLifecycleCommand(dashCommand, dashboard.ActionStop, "stop a process", stopFlags),
		createLifecycleCommand(dashCommand, dashboard.ActionRestart, "restart a process", restartFlags),
		createBulkCommand(dashCommand, bulkFlags),
		createWatchCommand(dashCommand, watchFlags),
		createWebCommand(dashCommand, webFlags),
		createLoginCommand(dashCommand, loginFlags),
		createLogoutCommand(dashCommand),
		createVersionCommand(dashCommand),
		createReloadCommand(dashCommand),
		createPidCommand(dashCommand),
	)

	return root
}

// createRootCommand creates the root command with persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "procdash",
		Short: "Dashboard client for supervisor daemons",
		Long: `Procdash keeps a live, locally authoritative view of the processes a
supervisor daemon manages, and issues single or bulk lifecycle commands
against them.

Examples:
  procdash status
  procdash watch                                # interactive dashboard
  procdash bulk --action=restart --names=web,worker
  procdash web --listen=:8081                   # browser dashboard`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().StringVar(&flags.APIUrl, "api-url", "", "supervisor API URL (e.g. http://host:8080)")
	root.PersistentFlags().DurationVar(&flags.APITimeout, "api-timeout", 0, "request timeout (default 10s)")
	root.PersistentFlags().BoolVar(&flags.Insecure, "insecure", false, "skip TLS certificate verification")

	return root
}

// createStatusCommand creates the status subcommand
func createStatusCommand(dashCommand command, flags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of all processes",
		Long: `Fetch the full process snapshot from the supervisor and print it.
With --name, only that process is shown.

Examples:
  procdash status
  procdash status --name=web`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashCommand.Status(flags.Name)
		},
	}
	cmd.Flags().StringVar(&flags.Name, "name", "", "show only this process")
	return cmd
}

// createDetailCommand creates the detail subcommand
func createDetailCommand(dashCommand command, flags *NameFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detail",
		Short: "Show the full record of one process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashCommand.Detail(flags.Name)
		},
	}
	cmd.Flags().StringVar(&flags.Name, "name", "", "process name (required)")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	return cmd
}

// createLifecycleCommand creates a start/stop/restart subcommand
func createLifecycleCommand(dashCommand command, action dashboard.Action, short string, flags *NameFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(action),
		Short: "Ask the supervisor to " + short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashCommand.Lifecycle(action, flags.Name)
		},
	}
	cmd.Flags().StringVar(&flags.Name, "name", "", "process name (required)")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	return cmd
}

// createBulkCommand creates the bulk subcommand
func createBulkCommand(dashCommand command, flags *BulkFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Run one lifecycle action against many processes",
		Long: `Dispatch the action to every named process concurrently and wait for
all of them to settle. A failing target never cancels the others.

Examples:
  procdash bulk --action=stop --names=web,worker,scheduler
  procdash bulk --action=restart --names=web,worker --max-concurrent=4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashCommand.Bulk(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.Action, "action", "", "start, stop or restart (required)")
	cmd.Flags().StringSliceVar(&flags.Names, "names", nil, "comma-separated process names (required)")
	cmd.Flags().IntVar(&flags.MaxConcurrent, "max-concurrent", 0, "bound concurrent calls (0 = unbounded)")
	if err := cmd.MarkFlagRequired("action"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("names"); err != nil {
		panic(err)
	}
	return cmd
}

// createWatchCommand creates the interactive dashboard subcommand
func createWatchCommand(dashCommand command, flags *WatchFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the interactive terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashCommand.Watch(*flags)
		},
	}
	cmd.Flags().DurationVar(&flags.Interval, "interval", 0, "poll interval (default 5s)")
	cmd.Flags().BoolVar(&flags.NoAutoRefresh, "no-auto-refresh", false, "start with scheduled polling off")
	return cmd
}

// createWebCommand creates the web dashboard subcommand
func createWebCommand(dashCommand command, flags *WebFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the browser dashboard",
		Long: `Start an HTTP server that serves the static dashboard assets and
forwards /command requests to the supervisor.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashCommand.Web(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "listen address (default :8081)")
	cmd.Flags().StringVar(&flags.BasePath, "base-path", "", "mount routes under this prefix")
	cmd.Flags().StringVar(&flags.WebRoot, "web-root", "", "directory with dashboard assets")
	return cmd
}

// createLoginCommand creates the login subcommand
func createLoginCommand(dashCommand command, flags *LoginFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a supervisor API token",
		Long: `Verify the token against the supervisor and persist it for later
commands in ~/.procdash/session.json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashCommand.Login(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.Token, "token", "", "bearer token (required)")
	if err := cmd.MarkFlagRequired("token"); err != nil {
		panic(err)
	}
	return cmd
}

// createLogoutCommand creates the logout subcommand
func createLogoutCommand(dashCommand command) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashCommand.Logout()
		},
	}
}

// createVersionCommand creates the version subcommand
func createVersionCommand(dashCommand command) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the supervisor version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashCommand.Version()
		},
	}
}

// createReloadCommand creates the reload subcommand
func createReloadCommand(dashCommand command) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the supervisor to reload its configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashCommand.Reload()
		},
	}
}

// createPidCommand creates the pid subcommand
func createPidCommand(dashCommand command) *cobra.Command {
	return &cobra.Command{
		Use:   "pid",
		Short: "Show the supervisor daemon PID",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashCommand.DaemonPID()
		},
	}
}
