// Package custom runs user-provided commands and imports the comments they
// write to a JSON result file.
package custom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/erik-smit/scrutinizer/internal/config"
	"github.com/erik-smit/scrutinizer/internal/model"
	"github.com/erik-smit/scrutinizer/internal/process"
)

// Name is the analyzer's configuration key.
const Name = "custom"

// maxResultSize bounds the result file a command may produce.
const maxResultSize = 16 << 20

// Command is one configured command.
type Command struct {
	Command    string `mapstructure:"command"`
	OutputFile string `mapstructure:"output_file"`
}

// Options are the analyzer's configuration values.
type Options struct {
	Commands []Command `mapstructure:"commands"`
}

// Result is the document a command writes to its output file.
type Result struct {
	Files    []string        `json:"files"`
	Comments []ResultComment `json:"comments"`
}

// ResultComment is one comment of a Result.
type ResultComment struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
	ID       string `json:"id"`
	Severity string `json:"severity"`
	Column   int    `json:"column"`
}

type Analyzer struct {
	sup  *process.Supervisor
	lggr *zap.SugaredLogger
}

// New creates the analyzer. A nil supervisor is replaced by one with the
// default limits once the logger is known.
func New(sup *process.Supervisor) *Analyzer {
	return &Analyzer{sup: sup, lggr: zap.NewNop().Sugar()}
}

func (a *Analyzer) Name() string { return Name }

func (a *Analyzer) SetLogger(lggr *zap.SugaredLogger) { a.lggr = lggr.Named(Name) }

func (a *Analyzer) ConfigureSchema(s *config.AnalyzerSchema) {
	s.Add("commands", config.List(config.Map(
		config.F("command", config.String("")),
		config.F("output_file", config.String("")),
	)))
}

func (a *Analyzer) Scrutinize(ctx context.Context, p *model.Project) error {
	var opts Options
	if err := p.Config().Analyzer(Name).Decode(&opts); err != nil {
		return err
	}
	if len(opts.Commands) == 0 {
		return nil
	}

	sup := a.sup
	if sup == nil {
		sup = process.New(process.DefaultConfig(), a.lggr)
	}

	for i, cmd := range opts.Commands {
		if cmd.Command == "" || cmd.OutputFile == "" {
			return fmt.Errorf("commands[%d]: both command and output_file are required", i)
		}
		if err := a.run(ctx, sup, p, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) run(ctx context.Context, sup *process.Supervisor, p *model.Project, cmd Command) error {
	out := cmd.OutputFile
	if !filepath.IsAbs(out) {
		out = p.AbsPath(out)
	}
	// A stale result from an earlier run must not be picked up.
	if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	a.lggr.Infow("running command", "command", cmd.Command)
	if _, err := sup.Run(ctx, cmd.Command, p.Root()); err != nil {
		return err
	}

	res, err := readResult(out)
	if err != nil {
		return fmt.Errorf("command %q: %w", cmd.Command, err)
	}
	defer os.Remove(out)

	return Import(p, res)
}

func readResult(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}
	if info.Size() > maxResultSize {
		return nil, fmt.Errorf("result file %s exceeds %d bytes", path, maxResultSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing result %s: %w", path, err)
	}
	return &res, nil
}

// Import copies res into p. Entries outside the project's path filter are
// dropped silently; an unknown severity is an error.
func Import(p *model.Project, res *Result) error {
	for i, f := range res.Files {
		if !model.IsValidPath(f) {
			return fmt.Errorf("files[%d]: path %q is not relative to the project root", i, f)
		}
		p.File(f)
	}
	for i, c := range res.Comments {
		sev, err := model.ParseSeverity(c.Severity)
		if err != nil {
			return fmt.Errorf("comments[%d]: %w", i, err)
		}
		if c.Path == "" || c.Line < 1 {
			return fmt.Errorf("comments[%d]: path and a positive line are required", i)
		}
		if !model.IsValidPath(c.Path) {
			return fmt.Errorf("comments[%d]: path %q is not relative to the project root", i, c.Path)
		}
		p.AddComment(c.Path, c.Line, model.Comment{
			Analyzer: Name,
			ID:       c.ID,
			Message:  c.Message,
			Severity: sev,
			Column:   c.Column,
		})
	}
	return nil
}
