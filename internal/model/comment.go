// Package model defines the run-scoped aggregate (Project, File, Comment)
// that analyzers write into and formatters read from.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity represents the severity level of a comment.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityMinor
	SeverityMajor
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityMajor:
		return "major"
	case SeverityMinor:
		return "minor"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity level.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical, nil
	case "major":
		return SeverityMajor, nil
	case "minor":
		return SeverityMinor, nil
	case "info", "":
		return SeverityInfo, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity: %q", s)
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	sev, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// Comment is one finding attached to a file line. Message may contain
// {name} placeholders that are filled from Params when rendered.
type Comment struct {
	Analyzer  string         `json:"analyzer"`
	ID        string         `json:"id"`
	Message   string         `json:"message"`
	Params    map[string]any `json:"params,omitempty"`
	Severity  Severity       `json:"severity"`
	Column    int            `json:"column,omitempty"`
	EndLine   int            `json:"end_line,omitempty"`
	EndColumn int            `json:"end_column,omitempty"`
}

// String renders the message with its parameters substituted.
func (c Comment) String() string {
	if len(c.Params) == 0 {
		return c.Message
	}
	pairs := make([]string, 0, 2*len(c.Params))
	for k, v := range c.Params {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(c.Message)
}

// HasLocation reports whether the range data is complete.
func (c Comment) HasLocation() bool {
	return c.Column > 0 && c.EndLine > 0 && c.EndColumn > 0
}
