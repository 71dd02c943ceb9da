// Package markdown checks Markdown documents for broken links, images
// without alt text, and skipped heading levels.
package markdown

import (
	"bytes"
	"context"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/erik-smit/scrutinizer/internal/analyzer"
	"github.com/erik-smit/scrutinizer/internal/config"
	"github.com/erik-smit/scrutinizer/internal/model"
)

// Name is the analyzer's configuration key.
const Name = "markdown"

// Comment IDs.
const (
	IDEmptyLink    = "markdown.empty_link"
	IDMissingAlt   = "markdown.missing_alt"
	IDHeadingLevel = "markdown.heading_level"
)

// Options are the analyzer's configuration values.
type Options struct {
	Extensions    []string `mapstructure:"extensions"`
	HeadingLevels bool     `mapstructure:"heading_levels"`
}

type Analyzer struct {
	md   goldmark.Markdown
	lggr *zap.SugaredLogger
}

func New() *Analyzer {
	return &Analyzer{md: goldmark.New(), lggr: zap.NewNop().Sugar()}
}

func (a *Analyzer) Name() string { return Name }

func (a *Analyzer) SetLogger(lggr *zap.SugaredLogger) { a.lggr = lggr.Named(Name) }

func (a *Analyzer) ConfigureSchema(s *config.AnalyzerSchema) {
	s.Add("extensions", config.StringList("md", "markdown").Append()).
		Add("heading_levels", config.Bool(true))
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

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.LoadContent(); err != nil {
			a.lggr.Debugw("skipping unreadable file", "path", t.RelPath, "err", err)
			continue
		}
		p.File(t.RelPath)
		for _, f := range a.Check(t.Content, opts) {
			p.AddComment(t.RelPath, f.Line, f.Comment)
		}
	}
	return nil
}

// Finding is a comment with the line it belongs to.
type Finding struct {
	Line    int
	Comment model.Comment
}

// Check parses source and returns its findings in document order.
func (a *Analyzer) Check(source []byte, opts Options) []Finding {
	doc := a.md.Parser().Parse(text.NewReader(source))
	lines := newLineIndex(source)

	var (
		out       []Finding
		lastLevel int
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if opts.HeadingLevels && lastLevel > 0 && node.Level > lastLevel+1 {
				out = append(out, Finding{
					Line: lines.of(offset(node)),
					Comment: model.Comment{
						Analyzer: Name,
						ID:       IDHeadingLevel,
						Message:  "Heading level jumps from {from} to {to}.",
						Params:   map[string]any{"from": lastLevel, "to": node.Level},
						Severity: model.SeverityMinor,
					},
				})
			}
			lastLevel = node.Level
		case *ast.Link:
			if len(bytes.TrimSpace(node.Destination)) == 0 {
				out = append(out, Finding{
					Line: lines.of(offset(node)),
					Comment: model.Comment{
						Analyzer: Name,
						ID:       IDEmptyLink,
						Message:  "Link has an empty destination.",
						Severity: model.SeverityMajor,
					},
				})
			}
		case *ast.Image:
			if plainText(node, source) == "" {
				out = append(out, Finding{
					Line: lines.of(offset(node)),
					Comment: model.Comment{
						Analyzer: Name,
						ID:       IDMissingAlt,
						Message:  "Image {src} has no alt text.",
						Params:   map[string]any{"src": string(node.Destination)},
						Severity: model.SeverityMinor,
					},
				})
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			continue
		}
		buf.WriteString(plainText(child, source))
	}
	return string(bytes.TrimSpace(buf.Bytes()))
}

// offset returns the byte offset of the first source segment at or below
// n. Nodes without any text, such as [](x), fall back to their ancestors.
func offset(n ast.Node) int {
	for m := n; m != nil; m = m.Parent() {
		if o := firstSegment(m); o >= 0 {
			return o
		}
	}
	return -1
}

func firstSegment(n ast.Node) int {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start
	}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			return t.Segment.Start
		}
		if o := firstSegment(child); o >= 0 {
			return o
		}
	}
	return -1
}

type lineIndex []int

func newLineIndex(source []byte) lineIndex {
	idx := lineIndex{0}
	for i, b := range source {
		if b == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

// of converts a byte offset into a 1-based line number.
func (idx lineIndex) of(off int) int {
	if off < 0 {
		return 1
	}
	lo, hi := 0, len(idx)
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if idx[mid] <= off {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo + 1
}
