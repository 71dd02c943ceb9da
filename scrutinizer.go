// Package scrutinizer ties together analyzers and can be used to scrutinize
// a project directory.
//
// This is the library entry point. For the CLI tool, see cmd/scrutinizer/.
package scrutinizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/erik-smit/scrutinizer/internal/analyzer"
	"github.com/erik-smit/scrutinizer/internal/analyzer/custom"
	"github.com/erik-smit/scrutinizer/internal/analyzer/markdown"
	"github.com/erik-smit/scrutinizer/internal/analyzer/pattern"
	"github.com/erik-smit/scrutinizer/internal/analyzer/whitespace"
	"github.com/erik-smit/scrutinizer/internal/config"
	"github.com/erik-smit/scrutinizer/internal/hooks"
	"github.com/erik-smit/scrutinizer/internal/model"
	"github.com/erik-smit/scrutinizer/internal/process"
	"github.com/erik-smit/scrutinizer/internal/profile"
)

// Phase is a step of a run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConfigLoading
	PhaseBeforeCommands
	PhaseAnalyzing
	PhasePostAnalysis
	PhaseAfterCommands
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConfigLoading:
		return "loading configuration"
	case PhaseBeforeCommands:
		return "before commands"
	case PhaseAnalyzing:
		return "analyzing"
	case PhasePostAnalysis:
		return "post analysis"
	case PhaseAfterCommands:
		return "after commands"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Scrutinizer runs the registered analyzers over a project directory.
type Scrutinizer struct {
	lggr      *zap.SugaredLogger
	analyzers []analyzer.Analyzer
	names     map[string]bool
	registry  *config.DefaultRegistry
	sup       *process.Supervisor
	bus       *hooks.Bus

	mu    sync.Mutex
	phase Phase
}

// New creates a Scrutinizer with the built-in analyzers and the
// location-completion hook unless options say otherwise.
func New(opts ...Option) (*Scrutinizer, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.lggr == nil {
		o.lggr = zap.NewNop().Sugar()
	}
	if o.sup == nil {
		o.sup = process.New(process.DefaultConfig(), o.lggr)
	}

	s := &Scrutinizer{
		lggr:     o.lggr,
		names:    make(map[string]bool),
		registry: o.registry,
		sup:      o.sup,
		bus:      &hooks.Bus{},
	}

	analyzers := o.analyzers
	if !o.replace {
		analyzers = builtinAnalyzers(o.sup)
	}
	for _, a := range analyzers {
		if err := s.RegisterAnalyzer(a); err != nil {
			return nil, err
		}
	}

	if !o.noBuiltin {
		s.RegisterHook(hooks.LocationCompletionName, hooks.LocationCompletion)
	}
	for _, h := range o.hooks {
		s.RegisterHook(h.name, h.fn)
	}
	return s, nil
}

func builtinAnalyzers(sup *process.Supervisor) []analyzer.Analyzer {
	return []analyzer.Analyzer{
		whitespace.New(),
		markdown.New(),
		pattern.New(),
		custom.New(sup),
	}
}

// RegisterAnalyzer appends a to the pipeline. Logger-aware analyzers get
// the orchestrator's logger.
func (s *Scrutinizer) RegisterAnalyzer(a analyzer.Analyzer) error {
	name := a.Name()
	if name == "" {
		return fmt.Errorf("analyzer %T has an empty name", a)
	}
	if s.names[name] {
		return fmt.Errorf("analyzer %q is already registered", name)
	}
	if la, ok := a.(analyzer.LoggerAwareAnalyzer); ok {
		la.SetLogger(s.lggr)
	}
	s.names[name] = true
	s.analyzers = append(s.analyzers, a)
	return nil
}

// RegisterHook adds a post-analysis hook.
func (s *Scrutinizer) RegisterHook(name string, fn hooks.PostAnalysisHook) {
	s.bus.OnPostAnalysis(name, fn)
}

// Analyzers returns the registered analyzers in order.
func (s *Scrutinizer) Analyzers() []analyzer.Analyzer {
	return append([]analyzer.Analyzer(nil), s.analyzers...)
}

// Configuration returns the processor for the registered analyzers.
func (s *Scrutinizer) Configuration() (*config.Processor, error) {
	return config.NewProcessor(s.analyzers, s.registry)
}

// Phase returns the phase of the current or last run.
func (s *Scrutinizer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Scrutinizer) enter(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
	s.lggr.Debugw("entering phase", "phase", p.String())
}

func (s *Scrutinizer) fail(p Phase, err error) error {
	s.mu.Lock()
	s.phase = PhaseFailed
	s.mu.Unlock()
	return &RunError{Phase: p, Err: err}
}

// Scrutinize runs the whole pipeline over dir: configuration, before
// commands, enabled analyzers in registration order, post-analysis hooks,
// and after commands. paths restricts the analysis to the given relative
// paths; empty means all. A nil profile is created and started.
func (s *Scrutinizer) Scrutinize(ctx context.Context, dir string, paths []string, prof *profile.Profile) (*model.Project, error) {
	if prof == nil {
		prof = profile.New()
	}
	if !prof.Started() {
		prof.Start()
	}

	s.enter(PhaseConfigLoading)
	root, cfg, err := s.load(dir)
	if err != nil {
		return nil, s.fail(PhaseConfigLoading, err)
	}

	if cmds := cfg.BeforeCommands(); len(cmds) > 0 {
		s.enter(PhaseBeforeCommands)
		if err := s.runCommands(ctx, prof, "before", cmds, root); err != nil {
			return nil, s.fail(PhaseBeforeCommands, err)
		}
	}

	s.enter(PhaseAnalyzing)
	project := model.New(root, cfg, paths)
	lggr := s.lggr.With("run_id", project.RunID())
	for _, a := range s.analyzers {
		name := a.Name()
		if !project.IsAnalyzerEnabled(name) {
			lggr.Debugw("skipping disabled analyzer", "analyzer", name)
			continue
		}
		if name != custom.Name {
			lggr.Infof("Running analyzer %q...", name)
		}

		if err := prof.BeforeAnalysis(name); err != nil {
			return nil, s.fail(PhaseAnalyzing, err)
		}
		err := a.Scrutinize(ctx, project)
		if perr := prof.AfterAnalysis(name); err == nil {
			err = perr
		}
		if err != nil {
			return nil, s.fail(PhaseAnalyzing, &AnalyzerError{Analyzer: name, Err: err})
		}
	}

	s.enter(PhasePostAnalysis)
	if err := s.bus.DispatchPostAnalysis(ctx, project); err != nil {
		return nil, s.fail(PhasePostAnalysis, err)
	}

	if cmds := cfg.AfterCommands(); len(cmds) > 0 {
		s.enter(PhaseAfterCommands)
		if err := s.runCommands(ctx, prof, "after", cmds, root); err != nil {
			return nil, s.fail(PhaseAfterCommands, err)
		}
	}

	s.enter(PhaseDone)
	lggr.Debugw("run finished", "files", len(project.Files()), "comments", project.CommentCount())
	return project, nil
}

// Load resolves dir and processes its configuration without running
// anything. It returns the absolute project root and the configuration.
func (s *Scrutinizer) Load(dir string) (string, *config.Configuration, error) {
	root, cfg, err := s.load(dir)
	if err != nil {
		return "", nil, &RunError{Phase: PhaseConfigLoading, Err: err}
	}
	return root, cfg, nil
}

func (s *Scrutinizer) load(dir string) (string, *config.Configuration, error) {
	root, err := resolveDir(dir)
	if err != nil {
		return "", nil, err
	}
	raw, err := config.Load(root)
	if err != nil {
		return "", nil, err
	}
	proc, err := s.Configuration()
	if err != nil {
		return "", nil, err
	}
	cfg, err := proc.Process(raw)
	if err != nil {
		return "", nil, err
	}
	return root, cfg, nil
}

func (s *Scrutinizer) runCommands(ctx context.Context, prof *profile.Profile, kind string, cmds []string, root string) error {
	if err := prof.Check("commands." + kind + ".start"); err != nil {
		return err
	}
	s.lggr.Infof("Executing %s commands", kind)
	for _, cmd := range cmds {
		s.lggr.Infof("Running %q...", cmd)
		if _, err := s.sup.Run(ctx, cmd, root); err != nil {
			return err
		}
	}
	return prof.Check("commands." + kind + ".end")
}

// resolveDir returns the absolute, symlink-free form of dir.
func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return "", fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
