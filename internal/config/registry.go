package config

import (
	"fmt"
	"os"
	"sort"
)

// DefaultRegistry holds per-analyzer default overrides that sit between the
// schema defaults and the project's .scrutinizer.yml.
type DefaultRegistry struct {
	order    []string
	defaults map[string]map[string]any
}

// NewDefaultRegistry returns an empty registry.
func NewDefaultRegistry() *DefaultRegistry {
	return &DefaultRegistry{defaults: make(map[string]map[string]any)}
}

// Set replaces the defaults for one analyzer.
func (r *DefaultRegistry) Set(analyzer string, values map[string]any) {
	if _, ok := r.defaults[analyzer]; !ok {
		r.order = append(r.order, analyzer)
	}
	r.defaults[analyzer] = values
}

// Get returns the defaults registered for analyzer.
func (r *DefaultRegistry) Get(analyzer string) (map[string]any, bool) {
	v, ok := r.defaults[analyzer]
	return v, ok
}

// Len returns the number of analyzers with registered defaults.
func (r *DefaultRegistry) Len() int {
	return len(r.order)
}

// raw returns the defaults of the known analyzers as a root-level mapping.
// Defaults for analyzers that are not registered are ignored.
func (r *DefaultRegistry) raw(known []string) map[string]any {
	out := make(map[string]any, len(r.order))
	for _, name := range known {
		if v, ok := r.defaults[name]; ok {
			out[name] = deepCopy(v)
		}
	}
	return out
}

// LoadDefaultRegistry reads a YAML document mapping analyzer names to
// option mappings.
func LoadDefaultRegistry(path string) (*DefaultRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	raw, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	reg := NewDefaultRegistry()
	for _, name := range names {
		v := raw[name]
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("parsing %s: %w", path, typeError(name, "mapping", v))
		}
		reg.Set(name, m)
	}
	return reg, nil
}
