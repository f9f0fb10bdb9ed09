package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loykin/procdash/internal/dashboard"
)

// Render/notify messages delivered into the Bubble Tea program.
type (
	refreshMsg struct {
		diff  dashboard.DiffResult
		empty bool
	}
	noticeMsg struct {
		text  string
		isErr bool
	}
	authMsg struct{}
)

// Messenger bridges the dashboard collaborator interfaces onto a Bubble
// Tea program: the core calls Render and the notification methods from
// its own goroutines, and the messenger converts each call into a
// program message. Calls made before Attach are dropped, which only
// affects polls finishing before the UI is on screen.
type Messenger struct {
	mu sync.Mutex
	p  *tea.Program
}

func NewMessenger() *Messenger { return &Messenger{} }

// Attach binds the running program. Safe to call once the program is
// constructed, before or after it starts.
func (m *Messenger) Attach(p *tea.Program) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.p = p
}

func (m *Messenger) send(msg tea.Msg) {
	m.mu.Lock()
	p := m.p
	m.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (m *Messenger) Render(d dashboard.DiffResult) { m.send(refreshMsg{diff: d}) }
func (m *Messenger) RenderEmpty()                  { m.send(refreshMsg{empty: true}) }
func (m *Messenger) Success(text string)           { m.send(noticeMsg{text: text}) }
func (m *Messenger) Error(text string)             { m.send(noticeMsg{text: text, isErr: true}) }
func (m *Messenger) AuthRequired()                 { m.send(authMsg{}) }
