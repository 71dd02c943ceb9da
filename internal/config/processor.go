package config

import (
	"fmt"
)

// Global keys of the root schema.
const (
	KeyBeforeCommands = "before_commands"
	KeyAfterCommands  = "after_commands"
	KeyFilter         = "filter"
	KeyEnabled        = "enabled"
)

// Named is anything registered under a unique name; analyzers satisfy it.
type Named interface {
	Name() string
}

// SchemaExtender is implemented by analyzers that declare their own options.
type SchemaExtender interface {
	ConfigureSchema(s *AnalyzerSchema)
}

// AnalyzerSchema collects the options of one analyzer node. Every analyzer
// node has "enabled" and "filter" in addition to what it adds.
type AnalyzerSchema struct {
	fields   []Field
	disabled bool
}

// Add declares an option.
func (s *AnalyzerSchema) Add(name string, n Node) *AnalyzerSchema {
	s.fields = append(s.fields, F(name, n))
	return s
}

// DisabledByDefault makes the analyzer opt-in.
func (s *AnalyzerSchema) DisabledByDefault() *AnalyzerSchema {
	s.disabled = true
	return s
}

func (s *AnalyzerSchema) node() *MapNode {
	fields := []Field{
		F(KeyEnabled, Bool(!s.disabled)),
		F(KeyFilter, filterNode()),
	}
	return Map(append(fields, s.fields...)...)
}

func filterNode() *MapNode {
	return Map(
		F("paths", StringList()),
		F("excluded_paths", StringList()),
	)
}

// Processor merges schema defaults, registry defaults, and user values.
type Processor struct {
	root      *MapNode
	analyzers []string
	registry  *DefaultRegistry
}

// NewProcessor builds the root schema from the global keys plus one node
// per analyzer, in registration order. registry may be nil.
func NewProcessor[A Named](analyzers []A, registry *DefaultRegistry) (*Processor, error) {
	fields := []Field{
		F(KeyBeforeCommands, StringList()),
		F(KeyAfterCommands, StringList()),
		F(KeyFilter, filterNode()),
	}
	seen := map[string]bool{
		KeyBeforeCommands: true,
		KeyAfterCommands:  true,
		KeyFilter:         true,
	}

	names := make([]string, 0, len(analyzers))
	for _, a := range analyzers {
		name := a.Name()
		if name == "" {
			return nil, fmt.Errorf("analyzer %T has an empty name", a)
		}
		if seen[name] {
			return nil, fmt.Errorf("analyzer name %q collides with another configuration key", name)
		}
		seen[name] = true
		names = append(names, name)

		schema := &AnalyzerSchema{}
		if ext, ok := any(a).(SchemaExtender); ok {
			ext.ConfigureSchema(schema)
		}
		fields = append(fields, F(name, schema.node()))
	}

	return &Processor{
		root:      Map(fields...),
		analyzers: names,
		registry:  registry,
	}, nil
}

// Keys returns the top-level configuration keys in schema order.
func (p *Processor) Keys() []string {
	return p.root.Fields()
}

// Process validates raw against the schema and returns the merged
// configuration. raw may be nil.
func (p *Processor) Process(raw map[string]any) (*Configuration, error) {
	merged := p.root.Default()

	if p.registry != nil {
		defaults := p.registry.raw(p.analyzers)
		if len(defaults) > 0 {
			var err error
			merged, err = p.root.Merge("", merged, defaults)
			if err != nil {
				return nil, fmt.Errorf("default registry: %w", err)
			}
		}
	}

	var rawAny any
	if raw != nil {
		rawAny = raw
	}
	merged, err := p.root.Merge("", merged, rawAny)
	if err != nil {
		return nil, err
	}

	return &Configuration{
		values:    merged.(map[string]any),
		analyzers: append([]string{}, p.analyzers...),
	}, nil
}
