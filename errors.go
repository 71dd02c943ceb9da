package scrutinizer

import (
	"errors"
	"fmt"
)

// ErrDirectoryNotFound is returned when the directory to scrutinize does
// not exist or is not a directory.
var ErrDirectoryNotFound = errors.New("directory not found")

// RunError reports the phase in which a run failed.
type RunError struct {
	Phase Phase
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// AnalyzerError wraps a failure returned by an analyzer.
type AnalyzerError struct {
	Analyzer string
	Err      error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("analyzer %q: %v", e.Analyzer, e.Err)
}

func (e *AnalyzerError) Unwrap() error { return e.Err }
