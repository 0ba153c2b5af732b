package calls

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no call log exists for a CallSID.
var ErrNotFound = errors.New("calls: call log not found")

// ErrDuplicate is returned when a call log already exists for a CallSID.
var ErrDuplicate = errors.New("calls: call log already exists")

// ValidationError signals missing or malformed caller input. Handlers map it
// to a 400 response before any state mutation occurs.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) error {
	return ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failed telephony or speech gateway call.
// Handlers map it to a 502 response.
type UpstreamError struct {
	Op  string
	Err error
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("calls: %s failed: %v", e.Op, e.Err)
}

func (e UpstreamError) Unwrap() error { return e.Err }
