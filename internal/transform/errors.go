package transform

import (
	"errors"
	"fmt"
)

// Reason classifies why an external tool invocation failed.
type Reason int

const (
	// ProcessFailure means the tool could not be started or exited non-zero.
	ProcessFailure Reason = iota + 1
	// UnparsableReport means a field was present but its value made no sense.
	UnparsableReport
	// MissingField means a required report line was absent.
	MissingField
)

func (r Reason) String() string {
	switch r {
	case ProcessFailure:
		return "process failure"
	case UnparsableReport:
		return "unparsable report"
	case MissingField:
		return "missing field"
	default:
		return "unknown"
	}
}

// TransformError is returned for every per-item failure of the external
// tools. It never aborts a batch on its own.
type TransformError struct {
	Op     string
	Path   string
	Reason Reason
	// Field names the report caption involved, if any.
	Field  string
	Stderr string
	Err    error
}

func (e *TransformError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Reason)
	if e.Field != "" {
		msg += fmt.Sprintf(" %q", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// IsTransformError reports whether err carries a *TransformError, and
// returns it.
func IsTransformError(err error) (*TransformError, bool) {
	var te *TransformError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
