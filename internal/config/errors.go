package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is the target for errors.Is on every ConfigurationError.
var ErrInvalid = errors.New("invalid configuration")

// ConfigurationError reports an unknown key or a type mismatch at a key path.
type ConfigurationError struct {
	Path     string
	Expected string
	Actual   string
	Msg      string
}

func (e *ConfigurationError) Error() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	if e.Expected != "" {
		return fmt.Sprintf("invalid configuration at %q: expected %s, got %s", path, e.Expected, e.Actual)
	}
	return fmt.Sprintf("invalid configuration at %q: %s", path, e.Msg)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalid
}
