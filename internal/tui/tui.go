package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loykin/procdash/internal/dashboard"
)

// Run launches the interactive dashboard and blocks until the operator
// quits or the session is rejected. The messenger must be the same one
// wired into the dashboard State as Renderer and Notifier; Run attaches
// it to the program and arms the reconciliation loop.
func Run(ctx context.Context, msn *Messenger, state *dashboard.State, rec *dashboard.Reconciler, coord *dashboard.Coordinator) error {
	m := newModel(ctx, state, rec, coord)
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	msn.Attach(program)

	rec.Start(ctx)
	defer rec.Stop()

	_, err := program.Run()
	return err
}
