// Package output renders a finished project as plain text, JSON, or SARIF.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/erik-smit/scrutinizer/internal/model"
)

// Formatter is the interface for writing a project's results.
type Formatter interface {
	Format(w io.Writer, p *model.Project) error
}

// DefaultFormat is used when no format is requested.
const DefaultFormat = "plain"

var formatters = map[string]func() Formatter{
	"plain": func() Formatter { return &PlainFormatter{} },
	"json":  func() Formatter { return &JSONFormatter{} },
	"sarif": func() Formatter { return &SARIFFormatter{} },
}

// UnknownFormatError is returned by ForName for an unsupported format.
type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown output format %q (supported: %s)", e.Format, strings.Join(Names(), ", "))
}

// ForName returns the formatter registered under name.
func ForName(name string) (Formatter, error) {
	newFn, ok := formatters[strings.ToLower(name)]
	if !ok {
		return nil, &UnknownFormatError{Format: name}
	}
	return newFn(), nil
}

// Names returns the supported format names, sorted.
func Names() []string {
	names := make([]string, 0, len(formatters))
	for n := range formatters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
