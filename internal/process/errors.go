package process

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = errors.New("command timed out")
	// ErrFailure matches every *FailureError.
	ErrFailure = errors.New("command failed")
)

// TimeoutError reports a command killed for running too long (Idle false)
// or for staying silent too long (Idle true).
type TimeoutError struct {
	Command string
	Limit   time.Duration
	Idle    bool
	Tail    []string
}

func (e *TimeoutError) Error() string {
	kind := "timeout"
	if e.Idle {
		kind = "idle timeout"
	}
	return fmt.Sprintf("command %q exceeded the %s of %s", e.Command, kind, e.Limit)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// FailureError reports a command that could not start or exited non-zero.
type FailureError struct {
	Command  string
	ExitCode int
	Tail     []string
	Err      error
}

func (e *FailureError) Error() string {
	msg := fmt.Sprintf("command %q failed with exit code %d", e.Command, e.ExitCode)
	if e.ExitCode == -1 && e.Err != nil {
		msg = fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
	}
	if len(e.Tail) > 0 {
		msg += ":\n" + strings.Join(e.Tail, "\n")
	}
	return msg
}

func (e *FailureError) Is(target error) bool {
	return target == ErrFailure
}

func (e *FailureError) Unwrap() error {
	return e.Err
}
