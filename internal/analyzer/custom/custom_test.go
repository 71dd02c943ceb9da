//go:build !windows

package custom_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erik-smit/scrutinizer/internal/analyzer/custom"
	"github.com/erik-smit/scrutinizer/internal/config"
	"github.com/erik-smit/scrutinizer/internal/logging"
	"github.com/erik-smit/scrutinizer/internal/model"
	"github.com/erik-smit/scrutinizer/internal/process"
)

func project(t *testing.T, dir string, raw map[string]any, paths ...string) *model.Project {
	t.Helper()
	proc, err := config.NewProcessor([]config.Named{custom.New(nil)}, nil)
	require.NoError(t, err)
	cfg, err := proc.Process(raw)
	require.NoError(t, err)
	return model.New(dir, cfg, paths)
}

func commands(cmds ...map[string]any) map[string]any {
	list := make([]any, len(cmds))
	for i, c := range cmds {
		list[i] = c
	}
	return map[string]any{"custom": map[string]any{"commands": list}}
}

func analyzer(t *testing.T) *custom.Analyzer {
	sup := process.New(process.Config{Timeout: 10 * time.Second, IdleTimeout: 5 * time.Second}, logging.Test(t))
	a := custom.New(sup)
	a.SetLogger(logging.Test(t))
	return a
}

const result = `{"files":["clean.go"],"comments":[{"path":"src/a.go","line":3,"message":"unused variable","id":"lint.unused","severity":"major","column":5}]}`

func TestScrutinizeImportsResult(t *testing.T) {
	dir := t.TempDir()
	p := project(t, dir, commands(map[string]any{
		"command":     "cat > out.json <<'JSON'\n" + result + "\nJSON",
		"output_file": "out.json",
	}))

	require.NoError(t, analyzer(t).Scrutinize(context.Background(), p))

	files := p.Files()
	require.Len(t, files, 2)
	require.Equal(t, "clean.go", files[0].Path())
	require.False(t, files[0].HasComments())

	c := files[1].CommentsAt(3)
	require.Len(t, c, 1)
	require.Equal(t, custom.Name, c[0].Analyzer)
	require.Equal(t, "lint.unused", c[0].ID)
	require.Equal(t, model.SeverityMajor, c[0].Severity)
	require.Equal(t, 5, c[0].Column)

	_, err := os.Stat(filepath.Join(dir, "out.json"))
	require.ErrorIs(t, err, os.ErrNotExist, "result file is removed")
}

func TestScrutinizeWithoutCommandsIsNoop(t *testing.T) {
	p := project(t, t.TempDir(), nil)
	require.NoError(t, custom.New(nil).Scrutinize(context.Background(), p))
	require.Empty(t, p.Files())
}

func TestScrutinizeMissingResult(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.json"), []byte(result), 0644))

	p := project(t, dir, commands(map[string]any{"command": "true", "output_file": "out.json"}))
	err := analyzer(t).Scrutinize(context.Background(), p)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Empty(t, p.Files(), "stale result must not be imported")
}

func TestScrutinizeCommandFailure(t *testing.T) {
	p := project(t, t.TempDir(), commands(map[string]any{"command": "exit 4", "output_file": "out.json"}))
	err := analyzer(t).Scrutinize(context.Background(), p)
	require.ErrorIs(t, err, process.ErrFailure)
}

func TestScrutinizeRequiresOutputFile(t *testing.T) {
	p := project(t, t.TempDir(), commands(map[string]any{"command": "true"}))
	require.Error(t, analyzer(t).Scrutinize(context.Background(), p))
}

func TestImportRespectsPathFilter(t *testing.T) {
	p := project(t, t.TempDir(), nil, "src/a.go")
	err := custom.Import(p, &custom.Result{
		Files: []string{"other.go"},
		Comments: []custom.ResultComment{
			{Path: "src/a.go", Line: 1, Message: "in"},
			{Path: "src/b.go", Line: 1, Message: "out"},
		},
	})
	require.NoError(t, err)
	require.Len(t, p.Files(), 1)
	require.Equal(t, 1, p.CommentCount())
}

func TestImportRejectsBadComments(t *testing.T) {
	p := project(t, t.TempDir(), nil)
	require.Error(t, custom.Import(p, &custom.Result{Comments: []custom.ResultComment{{Path: "a", Line: 1, Severity: "fatal"}}}))
	require.Error(t, custom.Import(p, &custom.Result{Comments: []custom.ResultComment{{Path: "a", Line: 0}}}))
}

func TestImportRejectsPathsOutsideRoot(t *testing.T) {
	for _, bad := range []string{"", ".", "/etc/passwd", "../outside.go", "src/../../outside.go"} {
		t.Run(bad, func(t *testing.T) {
			p := project(t, t.TempDir(), nil)

			err := custom.Import(p, &custom.Result{Files: []string{bad}})
			require.ErrorContains(t, err, "files[0]")

			err = custom.Import(p, &custom.Result{Comments: []custom.ResultComment{{Path: "ok.go", Line: 1}, {Path: bad, Line: 1}}})
			require.ErrorContains(t, err, "comments[1]")
			require.Len(t, p.Files(), 1)
		})
	}
}

func TestSchemaRejectsUnknownCommandKey(t *testing.T) {
	proc, err := config.NewProcessor([]config.Named{custom.New(nil)}, nil)
	require.NoError(t, err)
	_, err = proc.Process(commands(map[string]any{"command": "x", "shell": "bash"}))
	require.ErrorIs(t, err, config.ErrInvalid)
	require.Contains(t, err.Error(), "custom.commands[0].shell")
}
