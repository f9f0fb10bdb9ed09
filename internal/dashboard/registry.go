package dashboard

import (
	"encoding/json"
	"sort"
	"sync"
)

// DiffResult describes the set-level delta between the registry before
// and after a snapshot was applied. The render collaborator consumes it
// to decide which rows to create, refresh, or drop.
type DiffResult struct {
	Added   []string
	Updated []string
	Removed []string
}

// Empty reports whether the snapshot changed nothing structurally.
func (d DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Registry holds the locally authoritative view of the supervised
// process set. Its content always equals the most recently successfully
// applied poll snapshot; a failed poll never touches it.
type Registry struct {
	mu    sync.RWMutex
	procs map[string]*ProcessRecord
}

func NewRegistry() *Registry {
	return &Registry{procs: make(map[string]*ProcessRecord)}
}

// ApplySnapshot replaces the registry content with the given snapshot
// and returns the resulting diff. Records are replaced wholesale, never
// merged field by field. A nil or empty snapshot clears the registry
// and reports every known name as removed. Name lists in the result are
// sorted for deterministic consumption.
func (r *Registry) ApplySnapshot(snapshot map[string]json.RawMessage) DiffResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var diff DiffResult
	next := make(map[string]*ProcessRecord, len(snapshot))
	for name, raw := range snapshot {
		next[name] = normalizeRecord(name, raw)
		if _, known := r.procs[name]; known {
			diff.Updated = append(diff.Updated, name)
		} else {
			diff.Added = append(diff.Added, name)
		}
	}
	for name := range r.procs {
		if _, still := next[name]; !still {
			diff.Removed = append(diff.Removed, name)
		}
	}
	r.procs = next

	sort.Strings(diff.Added)
	sort.Strings(diff.Updated)
	sort.Strings(diff.Removed)
	return diff
}

// Get returns a copy of the named record. The copy is a read-only
// projection: mutating it never affects the registry.
func (r *Registry) Get(name string) (ProcessRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procs[name]
	if !ok {
		return ProcessRecord{}, false
	}
	return *p, true
}

// Has reports whether name is currently known.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.procs[name]
	return ok
}

// Names returns all known names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.procs))
	for name := range r.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// States returns a copy of the current name to state mapping.
func (r *Registry) States() map[string]ProcState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	states := make(map[string]ProcState, len(r.procs))
	for name, p := range r.procs {
		states[name] = p.State
	}
	return states
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.procs)
}
