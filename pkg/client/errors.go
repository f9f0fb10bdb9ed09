package client

import (
	"errors"
	"fmt"
)

// ErrTimeout marks transport-level request timeouts. Distinct from an
// application-level error response, which is reported as *CommandError.
var ErrTimeout = errors.New("request timed out")

// ErrAuthRequired is returned when the supervisor answers 401. Callers must
// not retry; a new login is required.
var ErrAuthRequired = errors.New("authentication required")

// CommandError is an application-level failure: the supervisor answered,
// but the command itself failed (status "error" in the response body).
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("command %q failed", e.Command)
	}
	return fmt.Sprintf("command %q failed: %s", e.Command, e.Message)
}

// IsAuthRequired reports whether err stems from a 401 response.
func IsAuthRequired(err error) bool { return errors.Is(err, ErrAuthRequired) }
