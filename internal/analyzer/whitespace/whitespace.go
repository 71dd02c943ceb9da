// Package whitespace reports trailing whitespace, tab indentation, and
// overlong lines.
package whitespace

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
const Name = "whitespace"

// Comment IDs.
const (
	IDTrailing   = "whitespace.trailing"
	IDTabIndent  = "whitespace.tab_indentation"
	IDLineLength = "whitespace.line_length"
)

// Options are the analyzer's configuration values.
type Options struct {
	AllowTabs     bool     `mapstructure:"allow_tabs"`
	MaxLineLength int      `mapstructure:"max_line_length"`
	Extensions    []string `mapstructure:"extensions"`
}

var defaultExtensions = []string{"php", "js", "ts", "py", "rb", "go", "css", "scss", "html", "xml", "yml", "yaml", "json", "md", "txt"}

// Analyzer is opt-in: it has to be enabled in .scrutinizer.yml.
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
	s.DisabledByDefault().
		Add("allow_tabs", config.Bool(true)).
		Add("max_line_length", config.Int(0)).
		Add("extensions", config.StringList(defaultExtensions...).Append())
}

func (a *Analyzer) Scrutinize(ctx context.Context, p *model.Project) error {
	var opts Options
	if err := p.Config().Analyzer(Name).Decode(&opts); err != nil {
		return err
	}

	targets, err := analyzer.Targets(p, Name, opts.Extensions...)
	if err != nil {
		return err
	}
	a.lggr.Debugw("checking files", "count", len(targets))

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.LoadContent(); err != nil {
			a.lggr.Debugw("skipping unreadable file", "path", t.RelPath, "err", err)
			continue
		}
		p.File(t.RelPath)
		for i, line := range t.Lines() {
			for _, c := range Check(strings.TrimSuffix(line, "\r"), opts) {
				p.AddComment(t.RelPath, i+1, c)
			}
		}
	}
	return nil
}

// Check returns the comments for a single line.
func Check(line string, opts Options) []model.Comment {
	var out []model.Comment

	if trimmed := strings.TrimRight(line, " \t"); len(trimmed) < len(line) {
		out = append(out, model.Comment{
			Analyzer:  Name,
			ID:        IDTrailing,
			Message:   "Line has trailing whitespace.",
			Severity:  model.SeverityMinor,
			Column:    utf8.RuneCountInString(trimmed) + 1,
			EndColumn: utf8.RuneCountInString(line) + 1,
		})
	}

	if !opts.AllowTabs {
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if strings.Contains(indent, "\t") {
			out = append(out, model.Comment{
				Analyzer: Name,
				ID:       IDTabIndent,
				Message:  "Line is indented with tabs.",
				Severity: model.SeverityMinor,
				Column:   1,
			})
		}
	}

	if opts.MaxLineLength > 0 {
		if n := utf8.RuneCountInString(line); n > opts.MaxLineLength {
			out = append(out, model.Comment{
				Analyzer: Name,
				ID:       IDLineLength,
				Message:  "Line exceeds {max} characters; contains {actual} characters.",
				Params:   map[string]any{"max": opts.MaxLineLength, "actual": n},
				Severity: model.SeverityInfo,
			})
		}
	}
	return out
}
