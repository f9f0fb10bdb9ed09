package dashboard

import (
	"sort"
	"sync"
)

// SelectionSet is the subset of registry names the operator has marked
// for bulk action. It never contains a name the registry does not know:
// names removed from the registry are evicted synchronously during
// snapshot application.
type SelectionSet struct {
	mu       sync.Mutex
	names    map[string]struct{}
	registry *Registry
}

func NewSelectionSet(registry *Registry) *SelectionSet {
	return &SelectionSet{names: make(map[string]struct{}), registry: registry}
}

// Toggle adds or removes name. Selecting a name the registry does not
// currently know is a no-op.
func (s *SelectionSet) Toggle(name string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selected {
		if !s.registry.Has(name) {
			return
		}
		s.names[name] = struct{}{}
		return
	}
	delete(s.names, name)
}

// SelectAll marks every currently known name.
func (s *SelectionSet) SelectAll() {
	names := s.registry.Names()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = make(map[string]struct{}, len(names))
	for _, name := range names {
		s.names[name] = struct{}{}
	}
}

// DeselectAll empties the selection.
func (s *SelectionSet) DeselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = make(map[string]struct{})
}

// HasSelection reports whether anything is selected. The view layer
// uses it to enable or disable bulk-action affordances.
func (s *SelectionSet) HasSelection() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names) > 0
}

// Contains reports whether name is currently selected.
func (s *SelectionSet) Contains(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[name]
	return ok
}

func (s *SelectionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

// Snapshot returns an immutable, sorted copy of the selection. Bulk
// dispatch operates on such a copy: toggles made after dispatch do not
// affect an operation already in flight.
func (s *SelectionSet) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// evict drops the given names from the selection. Called when the
// registry removes them, keeping the selection a subset of known names.
func (s *SelectionSet) evict(names []string) {
	if len(names) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		delete(s.names, name)
	}
}
