//go:build !windows

package scrutinizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erik-smit/scrutinizer"
	"github.com/erik-smit/scrutinizer/internal/logging"
	"github.com/erik-smit/scrutinizer/internal/model"
	"github.com/erik-smit/scrutinizer/internal/process"
	"github.com/erik-smit/scrutinizer/internal/profile"
)

func supervisor(t *testing.T, timeout, idle time.Duration) scrutinizer.Option {
	return scrutinizer.WithSupervisor(process.New(process.Config{Timeout: timeout, IdleTimeout: idle}, logging.Test(t)))
}

func labels(p *profile.Profile) []string {
	var out []string
	for _, cp := range p.CheckPoints() {
		out = append(out, cp.Label)
	}
	return out
}

func TestScrutinizeRunsCommandsAroundAnalysis(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
before_commands:
  - echo before > before.txt
after_commands:
  - echo after > after.txt
`)

	var log []string
	s := newScrutinizer(t,
		supervisor(t, 10*time.Second, 5*time.Second),
		scrutinizer.WithAnalyzers(&recorder{name: "a", log: &log}),
		scrutinizer.WithHook("check", func(_ context.Context, p *model.Project) error {
			_, err := os.Stat(filepath.Join(p.Root(), "before.txt"))
			require.NoError(t, err)
			_, err = os.Stat(filepath.Join(p.Root(), "after.txt"))
			require.ErrorIs(t, err, os.ErrNotExist)
			return nil
		}),
	)

	prof := profile.New()
	_, err := s.Scrutinize(context.Background(), dir, nil, prof)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "after.txt"))
	require.Equal(t, []string{
		"commands.before.start",
		"commands.before.end",
		"analysis.a.start",
		"analysis.a.end",
		"commands.after.start",
		"commands.after.end",
	}, labels(prof))
}

func TestScrutinizeSkipsEmptyCommandPhases(t *testing.T) {
	var log []string
	s := newScrutinizer(t, scrutinizer.WithAnalyzers(&recorder{name: "a", log: &log}))
	prof := profile.New()
	_, err := s.Scrutinize(context.Background(), t.TempDir(), nil, prof)
	require.NoError(t, err)
	require.Equal(t, []string{"analysis.a.start", "analysis.a.end"}, labels(prof))
}

func TestScrutinizeBeforeCommandIdleTimeout(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "before_commands:\n  - sleep 10\n")

	var log []string
	s := newScrutinizer(t,
		supervisor(t, 5*time.Second, 200*time.Millisecond),
		scrutinizer.WithAnalyzers(&recorder{name: "a", log: &log}),
	)

	start := time.Now()
	_, err := s.Scrutinize(context.Background(), dir, nil, nil)
	require.Less(t, time.Since(start), 4*time.Second)
	require.ErrorIs(t, err, process.ErrTimeout)

	var terr *process.TimeoutError
	require.True(t, errors.As(err, &terr))
	require.True(t, terr.Idle)
	var rerr *scrutinizer.RunError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, scrutinizer.PhaseBeforeCommands, rerr.Phase)
	require.Empty(t, log)
}

func TestScrutinizeBeforeCommandWithPeriodicOutput(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "before_commands:\n  - 'for i in 1 2 3 4 5; do echo $i; sleep 0.2; done'\n")

	var log []string
	s := newScrutinizer(t,
		supervisor(t, 5*time.Second, 500*time.Millisecond),
		scrutinizer.WithAnalyzers(&recorder{name: "a", log: &log}),
	)
	_, err := s.Scrutinize(context.Background(), dir, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, log)
}

func TestScrutinizeAfterCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "after_commands:\n  - exit 2\n  - touch never.txt\n")

	s := newScrutinizer(t, supervisor(t, 5*time.Second, 5*time.Second), scrutinizer.WithAnalyzers())
	_, err := s.Scrutinize(context.Background(), dir, nil, nil)
	require.ErrorIs(t, err, process.ErrFailure)
	require.NoFileExists(t, filepath.Join(dir, "never.txt"))
}
