package client

import "encoding/json"

// Response status values returned by the supervisor command endpoint.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope every supervisor command returns.
// Data carries the command-specific payload and is decoded by the caller.
type Response struct {
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// Snapshot is a full poll result: process name mapped to its raw status
// record as reported by the supervisor.
type Snapshot map[string]json.RawMessage
