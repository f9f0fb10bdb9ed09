package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/loykin/procdash/internal/dashboard"
)

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			Padding(0, 1)

	connectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	connectingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	disconnectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)

	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type model struct {
	ctx         context.Context
	state       *dashboard.State
	reconciler  *dashboard.Reconciler
	coordinator *dashboard.Coordinator

	table  table.Model
	width  int
	height int

	noticeText  string
	noticeError bool
	quitting    bool
}

func newModel(ctx context.Context, state *dashboard.State, rec *dashboard.Reconciler, coord *dashboard.Coordinator) model {
	columns := []table.Column{
		{Title: "SEL", Width: 4},
		{Title: "NAME", Width: 20},
		{Title: "STATE", Width: 10},
		{Title: "PID", Width: 8},
		{Title: "UPTIME", Width: 10},
		{Title: "RESTARTS", Width: 9},
		{Title: "COMMAND", Width: 40},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(18),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("cyan"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return model{
		ctx:         ctx,
		state:       state,
		reconciler:  rec,
		coordinator: coord,
		table:       t,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tea.EnterAltScreen)
}

// refreshCmd runs a manual poll off the UI goroutine; the resulting
// diff arrives back as a refreshMsg through the messenger.
func (m model) refreshCmd() tea.Cmd {
	rec := m.reconciler
	ctx := m.ctx
	return func() tea.Msg {
		_ = rec.PollNow(ctx)
		return nil
	}
}

// dispatchCmd launches a bulk action for the current selection, or for
// the cursor row when nothing is selected.
func (m model) dispatchCmd(action dashboard.Action) tea.Cmd {
	coord := m.coordinator
	ctx := m.ctx
	targets := m.state.Selection.Snapshot()
	if len(targets) == 0 {
		if name := m.cursorName(); name != "" {
			targets = []string{name}
		}
	}
	return func() tea.Msg {
		_, _ = coord.Dispatch(ctx, action, targets)
		return nil
	}
}

func (m model) cursorName() string {
	row := m.table.SelectedRow()
	if row == nil || len(row) < 2 {
		return ""
	}
	return row[1]
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(4, msg.Height-7))
		return m, nil

	case refreshMsg:
		m.rebuildRows()
		return m, nil

	case noticeMsg:
		m.noticeText = msg.text
		m.noticeError = msg.isErr
		return m, nil

	case authMsg:
		m.noticeText = "authentication required: run 'procdash login' and restart"
		m.noticeError = true
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case " ":
			name := m.cursorName()
			if name != "" {
				m.state.Selection.Toggle(name, !m.state.Selection.Contains(name))
				m.rebuildRows()
			}
			return m, nil
		case "a":
			m.state.Selection.SelectAll()
			m.rebuildRows()
			return m, nil
		case "n":
			m.state.Selection.DeselectAll()
			m.rebuildRows()
			return m, nil
		case "s":
			return m, m.dispatchCmd(dashboard.ActionStart)
		case "t":
			return m, m.dispatchCmd(dashboard.ActionStop)
		case "r":
			return m, m.dispatchCmd(dashboard.ActionRestart)
		case "R":
			return m, m.refreshCmd()
		case "p":
			m.reconciler.SetEnabled(m.ctx, !m.reconciler.Enabled())
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// rebuildRows re-reads the registry and selection into table rows.
func (m *model) rebuildRows() {
	names := m.state.Registry.Names()
	rows := make([]table.Row, 0, len(names))
	for _, name := range names {
		rec, ok := m.state.Registry.Get(name)
		if !ok {
			continue
		}
		sel := ""
		if m.state.Selection.Contains(name) {
			sel = "*"
		}
		pid := "-"
		if rec.PID != nil {
			pid = strconv.Itoa(*rec.PID)
		}
		rows = append(rows, table.Row{
			sel,
			rec.Name,
			string(rec.State),
			pid,
			formatUptime(rec.UptimeSeconds),
			strconv.Itoa(rec.Restarts),
			rec.Command,
		})
	}
	m.table.SetRows(rows)
}

func (m model) View() string {
	if m.quitting {
		if m.noticeText != "" {
			return errorStyle.Render(m.noticeText) + "\n"
		}
		return ""
	}

	var conn string
	switch m.state.Conn.State() {
	case dashboard.Connected:
		conn = connectedStyle.Render("connected")
	case dashboard.Connecting:
		conn = connectingStyle.Render("connecting")
	default:
		conn = disconnectedStyle.Render("disconnected")
	}

	auto := "off"
	if m.reconciler.Enabled() {
		auto = "on"
	}
	status := fmt.Sprintf("%s | %d processes | %d selected | auto-refresh %s",
		conn, m.state.Registry.Len(), m.state.Selection.Len(), auto)

	notice := ""
	if m.noticeText != "" {
		if m.noticeError {
			notice = errorStyle.Render(m.noticeText)
		} else {
			notice = successStyle.Render(m.noticeText)
		}
	}

	help := helpStyle.Render("space select | a all | n none | s start | t stop | r restart | R refresh | p auto | q quit")

	return titleStyle.Render("procdash") + "\n" +
		baseStyle.Render(m.table.View()) + "\n" +
		status + "\n" +
		notice + "\n" +
		help + "\n"
}

func formatUptime(seconds int64) string {
	if seconds <= 0 {
		return "0s"
	}
	h := seconds / 3600
	mnt := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, mnt)
	case mnt > 0:
		return fmt.Sprintf("%dm %ds", mnt, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
