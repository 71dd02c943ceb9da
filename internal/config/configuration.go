package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Configuration is the validated, merged run configuration. It is not
// modified after Process returns it; accessors hand out copies.
type Configuration struct {
	values    map[string]any
	analyzers []string
}

// Filter restricts which paths an analyzer (or every analyzer) looks at.
type Filter struct {
	Paths         []string `mapstructure:"paths"`
	ExcludedPaths []string `mapstructure:"excluded_paths"`
}

// Empty reports whether the filter has no patterns.
func (f Filter) Empty() bool {
	return len(f.Paths) == 0 && len(f.ExcludedPaths) == 0
}

// BeforeCommands returns the shell commands to run before analysis.
func (c *Configuration) BeforeCommands() []string {
	return stringsAt(c.values, KeyBeforeCommands)
}

// AfterCommands returns the shell commands to run after analysis.
func (c *Configuration) AfterCommands() []string {
	return stringsAt(c.values, KeyAfterCommands)
}

// Filter returns the global path filter.
func (c *Configuration) Filter() Filter {
	m, _ := c.values[KeyFilter].(map[string]any)
	return filterFrom(m)
}

// Analyzers returns the configured analyzer names in registration order.
func (c *Configuration) Analyzers() []string {
	return append([]string{}, c.analyzers...)
}

// IsAnalyzerEnabled reports whether the named analyzer's node is enabled.
// Unknown analyzers are never enabled.
func (c *Configuration) IsAnalyzerEnabled(name string) bool {
	s, ok := c.section(name)
	if !ok {
		return false
	}
	return s.Enabled()
}

// Analyzer returns the options of the named analyzer, or an empty section.
func (c *Configuration) Analyzer(name string) Section {
	s, _ := c.section(name)
	return s
}

func (c *Configuration) section(name string) (Section, bool) {
	for _, n := range c.analyzers {
		if n == name {
			m, ok := c.values[name].(map[string]any)
			return Section(m), ok
		}
	}
	return nil, false
}

// Values returns a deep copy of the merged tree.
func (c *Configuration) Values() map[string]any {
	return deepCopy(c.values).(map[string]any)
}

// Section is one analyzer's merged option mapping.
type Section map[string]any

// Enabled reports the section's enabled flag.
func (s Section) Enabled() bool {
	b, _ := s[KeyEnabled].(bool)
	return b
}

// Filter returns the analyzer-level path filter.
func (s Section) Filter() Filter {
	m, _ := s[KeyFilter].(map[string]any)
	return filterFrom(m)
}

// Decode copies the section into out, a pointer to a struct tagged with
// mapstructure tags.
func (s Section) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: false,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(deepCopy(map[string]any(s))); err != nil {
		return fmt.Errorf("decoding options: %w", err)
	}
	return nil
}

func filterFrom(m map[string]any) Filter {
	return Filter{
		Paths:         stringsAt(m, "paths"),
		ExcludedPaths: stringsAt(m, "excluded_paths"),
	}
}

func stringsAt(m map[string]any, key string) []string {
	v, _ := m[key].([]string)
	return append([]string{}, v...)
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	case []string:
		return append([]string{}, t...)
	default:
		return v
	}
}
