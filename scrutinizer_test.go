package scrutinizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/erik-smit/scrutinizer"
	"github.com/erik-smit/scrutinizer/internal/config"
	"github.com/erik-smit/scrutinizer/internal/logging"
	"github.com/erik-smit/scrutinizer/internal/model"
	"github.com/erik-smit/scrutinizer/internal/profile"
)

// recorder appends its name to a shared log when it runs.
type recorder struct {
	name string
	log  *[]string
	err  error
	// comment, when set, is added to path "a.txt" line 1.
	comment string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Scrutinize(_ context.Context, p *model.Project) error {
	*r.log = append(*r.log, r.name)
	if r.comment != "" {
		p.AddComment("a.txt", 1, model.Comment{Analyzer: r.name, Message: r.comment})
	}
	return r.err
}

// optIn is a recorder that is disabled unless configured.
type optIn struct{ recorder }

func (o *optIn) ConfigureSchema(s *config.AnalyzerSchema) { s.DisabledByDefault() }

// aware records the logger it was given.
type aware struct {
	recorder
	lggr *zap.SugaredLogger
}

func (a *aware) SetLogger(l *zap.SugaredLogger) { a.lggr = l }

func writeConfig(t *testing.T, dir, yaml string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(yaml), 0644))
}

func newScrutinizer(t *testing.T, opts ...scrutinizer.Option) *scrutinizer.Scrutinizer {
	t.Helper()
	s, err := scrutinizer.New(append([]scrutinizer.Option{scrutinizer.WithLogger(logging.Test(t))}, opts...)...)
	require.NoError(t, err)
	return s
}

func TestNewRegistersBuiltins(t *testing.T) {
	s := newScrutinizer(t)
	var names []string
	for _, a := range s.Analyzers() {
		names = append(names, a.Name())
	}
	require.Equal(t, []string{"whitespace", "markdown", "pattern", "custom"}, names)

	proc, err := s.Configuration()
	require.NoError(t, err)
	require.Equal(t, []string{"before_commands", "after_commands", "filter", "whitespace", "markdown", "pattern", "custom"}, proc.Keys())
}

func TestRegisterAnalyzerRejectsDuplicates(t *testing.T) {
	var log []string
	_, err := scrutinizer.New(scrutinizer.WithAnalyzers(&recorder{name: "a", log: &log}, &recorder{name: "a", log: &log}))
	require.Error(t, err)

	s := newScrutinizer(t, scrutinizer.WithAnalyzers())
	require.Error(t, s.RegisterAnalyzer(&recorder{name: "", log: &log}))
}

func TestRegisterAnalyzerInjectsLogger(t *testing.T) {
	var log []string
	a := &aware{recorder: recorder{name: "aware", log: &log}}
	lggr := logging.Test(t)
	_, err := scrutinizer.New(scrutinizer.WithLogger(lggr), scrutinizer.WithAnalyzers(a))
	require.NoError(t, err)
	require.Same(t, lggr, a.lggr)
}

func TestScrutinizeDefaultsWithoutConfigFile(t *testing.T) {
	var log []string
	s := newScrutinizer(t, scrutinizer.WithAnalyzers(
		&recorder{name: "first", log: &log},
		&optIn{recorder{name: "opt", log: &log}},
		&recorder{name: "last", log: &log},
	))

	p, err := s.Scrutinize(context.Background(), t.TempDir(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "last"}, log)
	require.Empty(t, p.Config().BeforeCommands())
	require.Empty(t, p.Config().AfterCommands())
	require.Equal(t, scrutinizer.PhaseDone, s.Phase())
}

func TestScrutinizeSkipsDisabledAnalyzers(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "second:\n  enabled: false\nopt:\n  enabled: true\n")

	var log []string
	s := newScrutinizer(t, scrutinizer.WithAnalyzers(
		&recorder{name: "first", log: &log},
		&recorder{name: "second", log: &log},
		&optIn{recorder{name: "opt", log: &log}},
		&recorder{name: "third", log: &log},
	))

	prof := profile.New()
	prof.Start()
	_, err := s.Scrutinize(context.Background(), dir, nil, prof)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "opt", "third"}, log)

	var timed []string
	for _, a := range prof.Analyses() {
		timed = append(timed, a.Analyzer)
	}
	require.Equal(t, []string{"first", "opt", "third"}, timed)
}

func TestScrutinizeUnknownKeyRunsNothing(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "first:\n  enabled: true\nbogus: 1\n")

	var log []string
	s := newScrutinizer(t, scrutinizer.WithAnalyzers(&recorder{name: "first", log: &log}))
	_, err := s.Scrutinize(context.Background(), dir, nil, nil)

	require.ErrorIs(t, err, config.ErrInvalid)
	var cerr *config.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "bogus", cerr.Path)

	var rerr *scrutinizer.RunError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, scrutinizer.PhaseConfigLoading, rerr.Phase)
	require.Equal(t, scrutinizer.PhaseFailed, s.Phase())
	require.Empty(t, log)
}

func TestScrutinizeMissingDirectory(t *testing.T) {
	s := newScrutinizer(t, scrutinizer.WithAnalyzers())
	_, err := s.Scrutinize(context.Background(), filepath.Join(t.TempDir(), "nope"), nil, nil)
	require.ErrorIs(t, err, scrutinizer.ErrDirectoryNotFound)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = s.Scrutinize(context.Background(), file, nil, nil)
	require.ErrorIs(t, err, scrutinizer.ErrDirectoryNotFound)
}

func TestScrutinizeAnalyzerFailureAborts(t *testing.T) {
	boom := errors.New("boom")
	var log []string
	s := newScrutinizer(t, scrutinizer.WithAnalyzers(
		&recorder{name: "bad", log: &log, err: boom},
		&recorder{name: "never", log: &log},
	))

	prof := profile.New()
	_, err := s.Scrutinize(context.Background(), t.TempDir(), nil, prof)
	require.ErrorIs(t, err, boom)

	var aerr *scrutinizer.AnalyzerError
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, "bad", aerr.Analyzer)
	require.Equal(t, []string{"bad"}, log)
	require.Len(t, prof.Analyses(), 1, "a failed analysis is still closed")
}

func TestScrutinizePathFilter(t *testing.T) {
	var log []string
	s := newScrutinizer(t, scrutinizer.WithAnalyzers(&recorder{name: "a", log: &log, comment: "filtered"}))

	p, err := s.Scrutinize(context.Background(), t.TempDir(), []string{"src/a.php", "src/b.php"}, nil)
	require.NoError(t, err)
	require.True(t, p.IsPathIncluded("src/a.php"))
	require.True(t, p.IsPathIncluded("src/b.php"))
	require.False(t, p.IsPathIncluded("src/c.php"))
	require.False(t, p.HasComments(), "a.txt is outside the path filter")
}

func TestScrutinizeResolvesRoot(t *testing.T) {
	target := t.TempDir()
	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	want, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)

	s := newScrutinizer(t, scrutinizer.WithAnalyzers())
	p, err := s.Scrutinize(context.Background(), link, nil, nil)
	require.NoError(t, err)
	require.Equal(t, want, p.Root())
}

func TestScrutinizeDispatchesHooks(t *testing.T) {
	var log []string
	s := newScrutinizer(t,
		scrutinizer.WithAnalyzers(&recorder{name: "a", log: &log, comment: "hello"}),
		scrutinizer.WithHook("count", func(_ context.Context, p *model.Project) error {
			log = append(log, "hook")
			require.Equal(t, 1, p.CommentCount())
			return nil
		}),
	)
	_, err := s.Scrutinize(context.Background(), t.TempDir(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "hook"}, log)
}

func TestScrutinizeHookFailure(t *testing.T) {
	boom := errors.New("boom")
	s := newScrutinizer(t,
		scrutinizer.WithAnalyzers(),
		scrutinizer.WithHook("fails", func(context.Context, *model.Project) error { return boom }),
	)
	_, err := s.Scrutinize(context.Background(), t.TempDir(), nil, nil)
	require.ErrorIs(t, err, boom)

	var rerr *scrutinizer.RunError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, scrutinizer.PhasePostAnalysis, rerr.Phase)
}

func TestScrutinizeCompletesLocations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("  indented\n"), 0644))

	var log []string
	s := newScrutinizer(t, scrutinizer.WithAnalyzers(&recorder{name: "a", log: &log, comment: "x"}))
	p, err := s.Scrutinize(context.Background(), dir, nil, nil)
	require.NoError(t, err)

	f, ok := p.Lookup("a.txt")
	require.True(t, ok)
	c := f.CommentsAt(1)[0]
	require.Equal(t, 3, c.Column)
	require.Equal(t, 1, c.EndLine)
	require.Equal(t, 11, c.EndColumn)

	s = newScrutinizer(t, scrutinizer.WithAnalyzers(&recorder{name: "a", log: &log, comment: "x"}), scrutinizer.WithoutBuiltinHooks())
	p, err = s.Scrutinize(context.Background(), dir, nil, nil)
	require.NoError(t, err)
	f, _ = p.Lookup("a.txt")
	require.False(t, f.CommentsAt(1)[0].HasLocation())
}

func TestScrutinizeLogsAnalyzers(t *testing.T) {
	lggr, logs := logging.TestObserved(t, zapcore.InfoLevel)
	var log []string
	s, err := scrutinizer.New(scrutinizer.WithLogger(lggr), scrutinizer.WithAnalyzers(&recorder{name: "first", log: &log}))
	require.NoError(t, err)

	_, err = s.Scrutinize(context.Background(), t.TempDir(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterMessage(`Running analyzer "first"...`).Len())
}

func TestScrutinizeBuiltinAnalyzers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Readme\n\n![](logo.png)   \n"), 0644))
	writeConfig(t, dir, "whitespace:\n  enabled: true\n")

	p, err := newScrutinizer(t).Scrutinize(context.Background(), dir, nil, nil)
	require.NoError(t, err)

	f, ok := p.Lookup("README.md")
	require.True(t, ok)
	var analyzers []string
	for _, c := range f.CommentsAt(3) {
		analyzers = append(analyzers, c.Analyzer)
	}
	require.Equal(t, []string{"whitespace", "markdown"}, analyzers)
}
