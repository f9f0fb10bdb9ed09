package dashboard

import (
	"context"
	"sync"

	"github.com/loykin/procdash/internal/history"
	"github.com/loykin/procdash/pkg/client"
)

// fakeTransport is an in-memory Transport with scriptable outcomes.
type fakeTransport struct {
	mu           sync.Mutex
	snapshot     client.Snapshot
	statusErr    error
	statusCalls  int
	commandErr   func(action, name string) error
	commandCalls []string

	// block, when non-nil, makes Status wait until the channel closes.
	block chan struct{}
	// entered receives one value per Status invocation, before any
	// blocking, so tests can synchronize on call entry.
	entered chan struct{}
}

func (f *fakeTransport) Status(_ context.Context) (client.Snapshot, error) {
	f.mu.Lock()
	f.statusCalls++
	block := f.block
	entered := f.entered
	snapshot := f.snapshot
	err := f.statusErr
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (f *fakeTransport) Command(_ context.Context, action, name string) error {
	f.mu.Lock()
	f.commandCalls = append(f.commandCalls, action+" "+name)
	fn := f.commandErr
	f.mu.Unlock()
	if fn != nil {
		return fn(action, name)
	}
	return nil
}

func (f *fakeTransport) statusCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

func (f *fakeTransport) commandCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commandCalls)
}

// recordingRenderer captures render calls.
type recordingRenderer struct {
	mu    sync.Mutex
	diffs []DiffResult
	empty int
}

func (r *recordingRenderer) Render(d DiffResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diffs = append(r.diffs, d)
}

func (r *recordingRenderer) RenderEmpty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.empty++
}

func (r *recordingRenderer) lastDiff() (DiffResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.diffs) == 0 {
		return DiffResult{}, false
	}
	return r.diffs[len(r.diffs)-1], true
}

// recordingNotifier captures notification calls.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	auth      int
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) AuthRequired() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.auth++
}

// memorySink collects history events in memory.
type memorySink struct {
	mu     sync.Mutex
	events []history.Event
}

func (s *memorySink) Send(_ context.Context, e history.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *memorySink) byType(t history.EventType) []history.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []history.Event
	for _, e := range s.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
