package dashboard

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ProcState is the supervisor-reported state of a process.
type ProcState string

const (
	StateRunning  ProcState = "running"
	StateStopped  ProcState = "stopped"
	StateStarting ProcState = "starting"
	StateStopping ProcState = "stopping"
	StateExited   ProcState = "exited"
	StateError    ProcState = "error"
	StateFatal    ProcState = "fatal"
	StateUnknown  ProcState = "unknown"
)

// normalizeState maps a raw status string onto a known ProcState.
// Anything unrecognized collapses to StateUnknown.
func normalizeState(s string) ProcState {
	switch ProcState(strings.ToLower(strings.TrimSpace(s))) {
	case StateRunning:
		return StateRunning
	case StateStopped:
		return StateStopped
	case StateStarting:
		return StateStarting
	case StateStopping:
		return StateStopping
	case StateExited:
		return StateExited
	case StateError:
		return StateError
	case StateFatal:
		return StateFatal
	default:
		return StateUnknown
	}
}

// ProcessRecord is one supervised process as the dashboard knows it.
// Name is the unique, immutable key; every other field is replaced
// wholesale on each poll that contains the name.
type ProcessRecord struct {
	Name          string
	State         ProcState
	PID           *int
	UptimeSeconds int64
	Restarts      int
	ExitCode      *int
	Command       string
	Config        json.RawMessage
}

// Running reports whether the process currently holds a PID.
func (p *ProcessRecord) Running() bool { return p.State == StateRunning }

// rawRecord mirrors the wire shape of one process entry inside a
// status snapshot.
type rawRecord struct {
	Name     string          `json:"name"`
	Status   string          `json:"status"`
	PID      *int            `json:"pid"`
	Uptime   string          `json:"uptime"`
	Restarts int             `json:"restarts"`
	ExitCode *int            `json:"exitcode"`
	Cmd      string          `json:"cmd"`
	Config   json.RawMessage `json:"config"`
}

// normalizeRecord converts one raw snapshot entry into a ProcessRecord.
// Missing fields take defaults: state unknown, no pid, zero uptime,
// zero restarts, no exit code, empty command, empty config. A record
// that fails to decode entirely still yields a valid entity so that a
// single malformed entry cannot poison a whole snapshot.
func normalizeRecord(name string, raw json.RawMessage) *ProcessRecord {
	var r rawRecord
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &r)
	}
	cfg := r.Config
	if len(cfg) == 0 {
		cfg = json.RawMessage("{}")
	}
	return &ProcessRecord{
		Name:          name,
		State:         normalizeState(r.Status),
		PID:           r.PID,
		UptimeSeconds: parseUptime(r.Uptime),
		Restarts:      r.Restarts,
		ExitCode:      r.ExitCode,
		Command:       r.Cmd,
		Config:        cfg,
	}
}

// parseUptime converts the supervisor's human uptime strings ("0s",
// "45s", "5m 12s", "2h 3m") into seconds. Unparseable input yields 0.
func parseUptime(s string) int64 {
	var total int64
	for _, tok := range strings.Fields(s) {
		if len(tok) < 2 {
			return 0
		}
		n, err := strconv.ParseInt(tok[:len(tok)-1], 10, 64)
		if err != nil || n < 0 {
			return 0
		}
		switch tok[len(tok)-1] {
		case 'h':
			total += n * 3600
		case 'm':
			total += n * 60
		case 's':
			total += n
		default:
			return 0
		}
	}
	return total
}
