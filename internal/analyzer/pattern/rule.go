package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/erik-smit/scrutinizer/internal/model"
)

// MatchMode determines how the patterns of a rule are combined.
type MatchMode int

const (
	MatchAny MatchMode = iota // any pattern reports its own hits
	MatchAll                  // every pattern must hit somewhere in the file
)

// Type is the kind of a pattern.
type Type string

const (
	TypeRegex    Type = "regex"
	TypeContains Type = "contains"
)

// RawPattern is a single pattern as written in the configuration.
type RawPattern struct {
	Type  string `mapstructure:"type"`
	Value string `mapstructure:"value"`
}

// RawRule is the configuration form of a rule.
type RawRule struct {
	ID              string       `mapstructure:"id"`
	Message         string       `mapstructure:"message"`
	Severity        string       `mapstructure:"severity"`
	MatchMode       string       `mapstructure:"match_mode"`
	Paths           []string     `mapstructure:"paths"`
	Patterns        []RawPattern `mapstructure:"patterns"`
	ExcludePatterns []RawPattern `mapstructure:"exclude_patterns"`
}

// CompiledPattern is a pattern ready for matching.
type CompiledPattern struct {
	Type  Type
	Regex *regexp.Regexp // set for TypeRegex
	Value string         // lowercased, set for TypeContains
}

// Rule is a compiled rule.
type Rule struct {
	ID              string
	Message         string
	Severity        model.Severity
	MatchMode       MatchMode
	Paths           []string
	Patterns        []CompiledPattern
	ExcludePatterns []CompiledPattern
}

// Compile validates raw and compiles its patterns.
func Compile(raw RawRule) (*Rule, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("rule missing id")
	}
	if len(raw.Patterns) == 0 {
		return nil, fmt.Errorf("rule %s: no patterns defined", raw.ID)
	}

	sev := model.SeverityMinor
	if raw.Severity != "" {
		var err error
		if sev, err = model.ParseSeverity(raw.Severity); err != nil {
			return nil, fmt.Errorf("rule %s: %w", raw.ID, err)
		}
	}

	var mode MatchMode
	switch strings.ToLower(raw.MatchMode) {
	case "", "any":
		mode = MatchAny
	case "all":
		mode = MatchAll
	default:
		return nil, fmt.Errorf("rule %s: unknown match_mode %q", raw.ID, raw.MatchMode)
	}

	r := &Rule{
		ID:        raw.ID,
		Message:   raw.Message,
		Severity:  sev,
		MatchMode: mode,
		Paths:     raw.Paths,
	}
	if r.Message == "" {
		r.Message = fmt.Sprintf("Line matches %s.", raw.ID)
	}

	for i, p := range raw.Patterns {
		cp, err := compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("rule %s pattern %d: %w", raw.ID, i, err)
		}
		r.Patterns = append(r.Patterns, cp)
	}
	for i, p := range raw.ExcludePatterns {
		cp, err := compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("rule %s exclude_pattern %d: %w", raw.ID, i, err)
		}
		r.ExcludePatterns = append(r.ExcludePatterns, cp)
	}
	return r, nil
}

func compilePattern(p RawPattern) (CompiledPattern, error) {
	cp := CompiledPattern{Type: Type(strings.ToLower(p.Type)), Value: p.Value}
	if p.Value == "" {
		return cp, fmt.Errorf("empty value")
	}
	switch cp.Type {
	case TypeRegex:
		re, err := regexp.Compile(p.Value)
		if err != nil {
			return cp, fmt.Errorf("invalid regex: %w", err)
		}
		cp.Regex = re
	case TypeContains:
		cp.Value = strings.ToLower(p.Value)
	default:
		return cp, fmt.Errorf("unknown type %q", p.Type)
	}
	return cp, nil
}

// CompileAll compiles every rule and rejects duplicate ids.
func CompileAll(raws []RawRule) ([]*Rule, error) {
	seen := make(map[string]bool, len(raws))
	out := make([]*Rule, 0, len(raws))
	for _, raw := range raws {
		r, err := Compile(raw)
		if err != nil {
			return nil, err
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("rule %s: duplicate id", r.ID)
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out, nil
}

// hit is one match of a pattern; column is 1-based and counted in bytes.
type hit struct {
	line   int
	column int
	text   string
}

func (cp CompiledPattern) find(lines []string) []hit {
	var hits []hit
	for i, line := range lines {
		switch cp.Type {
		case TypeRegex:
			for _, loc := range cp.Regex.FindAllStringIndex(line, -1) {
				if loc[0] == loc[1] {
					continue
				}
				hits = append(hits, hit{line: i + 1, column: loc[0] + 1, text: line[loc[0]:loc[1]]})
			}
		case TypeContains:
			lower := strings.ToLower(line)
			for idx := 0; ; {
				pos := strings.Index(lower[idx:], cp.Value)
				if pos == -1 {
					break
				}
				abs := idx + pos
				end := min(abs+len(cp.Value), len(line))
				hits = append(hits, hit{line: i + 1, column: abs + 1, text: line[min(abs, end):end]})
				idx = abs + len(cp.Value)
			}
		}
	}
	return hits
}

func (cp CompiledPattern) matches(line string) bool {
	switch cp.Type {
	case TypeRegex:
		return cp.Regex.MatchString(line)
	case TypeContains:
		return strings.Contains(strings.ToLower(line), cp.Value)
	}
	return false
}

// excluded reports whether the hit line, or one of the three lines above
// it, matches an exclude pattern.
func (r *Rule) excluded(lines []string, line int) bool {
	if len(r.ExcludePatterns) == 0 || line < 1 || line > len(lines) {
		return false
	}
	start := max(line-3, 1)
	for _, ep := range r.ExcludePatterns {
		for i := start; i <= line; i++ {
			if ep.matches(lines[i-1]) {
				return true
			}
		}
	}
	return false
}
