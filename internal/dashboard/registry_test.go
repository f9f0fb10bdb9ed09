package dashboard

import (
	"encoding/json"
	"reflect"
	"testing"
)

func snap(entries map[string]string) map[string]json.RawMessage {
	s := make(map[string]json.RawMessage, len(entries))
	for name, body := range entries {
		s[name] = json.RawMessage(body)
	}
	return s
}

func TestApplySnapshotDiff(t *testing.T) {
	r := NewRegistry()

	d1 := r.ApplySnapshot(snap(map[string]string{
		"a": `{"status":"running"}`,
		"b": `{"status":"stopped"}`,
	}))
	if !reflect.DeepEqual(d1.Added, []string{"a", "b"}) {
		t.Errorf("added = %v, want [a b]", d1.Added)
	}
	if len(d1.Updated) != 0 || len(d1.Removed) != 0 {
		t.Errorf("updated=%v removed=%v, want both empty", d1.Updated, d1.Removed)
	}

	d2 := r.ApplySnapshot(snap(map[string]string{
		"b": `{"status":"running"}`,
		"c": `{"status":"starting"}`,
	}))
	if !reflect.DeepEqual(d2.Added, []string{"c"}) {
		t.Errorf("added = %v, want [c]", d2.Added)
	}
	if !reflect.DeepEqual(d2.Updated, []string{"b"}) {
		t.Errorf("updated = %v, want [b]", d2.Updated)
	}
	if !reflect.DeepEqual(d2.Removed, []string{"a"}) {
		t.Errorf("removed = %v, want [a]", d2.Removed)
	}

	if got := r.Names(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("registry keys = %v, want exactly the latest snapshot keys", got)
	}
}

func TestApplySnapshotIdempotent(t *testing.T) {
	r := NewRegistry()
	s := snap(map[string]string{
		"a": `{"status":"running","pid":1}`,
		"b": `{"status":"stopped"}`,
	})
	r.ApplySnapshot(s)
	before, _ := r.Get("a")

	d := r.ApplySnapshot(s)
	if len(d.Added) != 0 || len(d.Removed) != 0 {
		t.Errorf("repeat apply: added=%v removed=%v, want both empty", d.Added, d.Removed)
	}
	if !reflect.DeepEqual(d.Updated, []string{"a", "b"}) {
		t.Errorf("repeat apply: updated=%v, want all shared keys", d.Updated)
	}
	after, _ := r.Get("a")
	if before.State != after.State || before.Restarts != after.Restarts {
		t.Error("repeat apply changed entity field values")
	}
}

func TestApplySnapshotEmptyClears(t *testing.T) {
	r := NewRegistry()
	r.ApplySnapshot(snap(map[string]string{
		"a": `{"status":"running"}`,
		"b": `{"status":"running"}`,
	}))

	d := r.ApplySnapshot(nil)
	if !reflect.DeepEqual(d.Removed, []string{"a", "b"}) {
		t.Errorf("removed = %v, want all known names", d.Removed)
	}
	if r.Len() != 0 {
		t.Errorf("registry len = %d after empty snapshot, want 0", r.Len())
	}
}

func TestApplySnapshotWholesaleReplace(t *testing.T) {
	r := NewRegistry()
	r.ApplySnapshot(snap(map[string]string{
		"web": `{"status":"running","pid":10,"restarts":2,"cmd":"serve"}`,
	}))

	// Next poll omits pid and cmd entirely: the record must take the
	// documented defaults, never keep stale values from the old record.
	r.ApplySnapshot(snap(map[string]string{
		"web": `{"status":"stopped"}`,
	}))
	rec, ok := r.Get("web")
	if !ok {
		t.Fatal("web missing after update")
	}
	if rec.State != StateStopped {
		t.Errorf("state = %q, want stopped", rec.State)
	}
	if rec.PID != nil {
		t.Errorf("pid = %v, want nil: fields are replaced, not merged", *rec.PID)
	}
	if rec.Restarts != 0 || rec.Command != "" {
		t.Errorf("restarts=%d cmd=%q, want defaults", rec.Restarts, rec.Command)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.ApplySnapshot(snap(map[string]string{"a": `{"status":"running"}`}))

	rec, _ := r.Get("a")
	rec.State = StateFatal
	rec.Restarts = 99

	again, _ := r.Get("a")
	if again.State != StateRunning || again.Restarts != 0 {
		t.Error("mutating a Get projection leaked into the registry")
	}
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("nope"); ok {
		t.Error("Get on unknown name reported ok")
	}
	if r.Has("nope") {
		t.Error("Has on unknown name reported true")
	}
}
