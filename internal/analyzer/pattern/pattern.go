// Package pattern reports lines matching user-defined regex and contains
// rules from the configuration.
package pattern

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/erik-smit/scrutinizer/internal/analyzer"
	"github.com/erik-smit/scrutinizer/internal/config"
	"github.com/erik-smit/scrutinizer/internal/model"
)

// Name is the analyzer's configuration key.
const Name = "pattern"

const maxMatchLen = 200

// Options are the analyzer's configuration values.
type Options struct {
	Extensions []string  `mapstructure:"extensions"`
	Rules      []RawRule `mapstructure:"rules"`
}

// Analyzer is enabled by default but does nothing until rules are
// configured.
type Analyzer struct {
	lggr *zap.SugaredLogger
}

// New creates the analyzer.
func New() *Analyzer {
	return &Analyzer{lggr: zap.NewNop().Sugar()}
}

func (a *Analyzer) Name() string { return Name }

func (a *Analyzer) SetLogger(lggr *zap.SugaredLogger) { a.lggr = lggr.Named(Name) }

func (a *Analyzer) ConfigureSchema(s *config.AnalyzerSchema) {
	patterns := config.List(config.Map(
		config.F("type", config.String(string(TypeRegex))),
		config.F("value", config.String("")),
	))
	s.Add("extensions", config.StringList()).
		Add("rules", config.List(config.Map(
			config.F("id", config.String("")),
			config.F("message", config.String("")),
			config.F("severity", config.String(model.SeverityMinor.String())),
			config.F("match_mode", config.String("any")),
			config.F("paths", config.StringList()),
			config.F("patterns", patterns),
			config.F("exclude_patterns", patterns),
		)))
}

func (a *Analyzer) Scrutinize(ctx context.Context, p *model.Project) error {
	var opts Options
	if err := p.Config().Analyzer(Name).Decode(&opts); err != nil {
		return err
	}
	if len(opts.Rules) == 0 {
		return nil
	}
	rules, err := CompileAll(opts.Rules)
	if err != nil {
		return err
	}

	targets, err := analyzer.Targets(p, Name, opts.Extensions...)
	if err != nil {
		return err
	}
	a.lggr.Debugw("matching rules", "rules", len(rules), "files", len(targets))

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.LoadContent(); err != nil {
			a.lggr.Debugw("skipping unreadable file", "path", t.RelPath, "err", err)
			continue
		}
		p.File(t.RelPath)
		for _, f := range Match(rules, t.RelPath, t.Lines()) {
			p.AddComment(t.RelPath, f.Line, f.Comment)
		}
	}
	return nil
}

// Finding is a comment and the line it belongs to.
type Finding struct {
	Line    int
	Comment model.Comment
}

// Match applies rules to the lines of the file at relPath.
func Match(rules []*Rule, relPath string, lines []string) []Finding {
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	var out []Finding
	for _, r := range rules {
		if !r.appliesTo(relPath) {
			continue
		}
		switch r.MatchMode {
		case MatchAny:
			for _, cp := range r.Patterns {
				for _, h := range cp.find(lines) {
					if !r.excluded(lines, h.line) {
						out = append(out, r.finding(h))
					}
				}
			}
		case MatchAll:
			var first []hit
			for _, cp := range r.Patterns {
				hits := cp.find(lines)
				if len(hits) == 0 {
					first = nil
					break
				}
				first = append(first, hits[0])
			}
			if len(first) == 0 || r.excluded(lines, first[0].line) {
				continue
			}
			parts := make([]string, len(first))
			for i, h := range first {
				parts[i] = h.text
			}
			h := first[0]
			h.text = strings.Join(parts, " + ")
			out = append(out, r.finding(h))
		}
	}
	return out
}

func (r *Rule) appliesTo(relPath string) bool {
	if len(r.Paths) == 0 {
		return true
	}
	for _, glob := range r.Paths {
		if analyzer.MatchGlob(glob, relPath) {
			return true
		}
	}
	return false
}

func (r *Rule) finding(h hit) Finding {
	text := h.text
	if len(text) > maxMatchLen {
		cut := maxMatchLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return Finding{
		Line: h.line,
		Comment: model.Comment{
			Analyzer: Name,
			ID:       r.ID,
			Message:  r.Message,
			Params:   map[string]any{"match": text},
			Severity: r.Severity,
			Column:   h.column,
		},
	}
}
