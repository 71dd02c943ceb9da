package markdown_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erik-smit/scrutinizer/internal/analyzer/markdown"
	"github.com/erik-smit/scrutinizer/internal/config"
	"github.com/erik-smit/scrutinizer/internal/model"
)

var defaults = markdown.Options{HeadingLevels: true}

func ids(fs []markdown.Finding) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.Comment.ID)
	}
	return out
}

func TestCheckCleanDocument(t *testing.T) {
	src := "# Title\n\n## Section\n\nSee [docs](https://example.com) and ![logo](logo.png).\n"
	require.Empty(t, markdown.New().Check([]byte(src), defaults))
}

func TestCheckEmptyLink(t *testing.T) {
	src := "# Title\n\nFirst paragraph.\n\nClick [here]() now.\n"
	fs := markdown.New().Check([]byte(src), defaults)
	require.Equal(t, []string{markdown.IDEmptyLink}, ids(fs))
	require.Equal(t, 5, fs[0].Line)
}

func TestCheckMissingAlt(t *testing.T) {
	src := "Intro\n\n![](diagram.png)\n"
	fs := markdown.New().Check([]byte(src), defaults)
	require.Equal(t, []string{markdown.IDMissingAlt}, ids(fs))
	require.Equal(t, 3, fs[0].Line)
	require.Equal(t, "Image diagram.png has no alt text.", fs[0].Comment.String())
}

func TestCheckHeadingJump(t *testing.T) {
	src := "# One\n\ntext\n\n### Three\n\n## Two\n\n#### Four\n"
	fs := markdown.New().Check([]byte(src), defaults)
	require.Equal(t, []string{markdown.IDHeadingLevel, markdown.IDHeadingLevel}, ids(fs))
	require.Equal(t, 5, fs[0].Line)
	require.Equal(t, "Heading level jumps from 1 to 3.", fs[0].Comment.String())
	require.Equal(t, 9, fs[1].Line)

	require.Empty(t, markdown.New().Check([]byte(src), markdown.Options{}))
}

func TestCheckStartingBelowTopLevel(t *testing.T) {
	require.Empty(t, markdown.New().Check([]byte("### Notes\n\ntext\n"), defaults))
}

func TestScrutinize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Readme\n\n[broken]()\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("[broken]()\n"), 0644))

	proc, err := config.NewProcessor([]config.Named{markdown.New()}, nil)
	require.NoError(t, err)
	cfg, err := proc.Process(nil)
	require.NoError(t, err)
	require.True(t, cfg.IsAnalyzerEnabled(markdown.Name))

	p := model.New(dir, cfg, nil)
	require.NoError(t, markdown.New().Scrutinize(context.Background(), p))

	require.Equal(t, 1, p.CommentCount())
	f, ok := p.Lookup("README.md")
	require.True(t, ok)
	require.Equal(t, []int{3}, f.Lines())
	require.Equal(t, markdown.Name, f.CommentsAt(3)[0].Analyzer)
}
