package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GitChangedFiles lists the files under root that are modified, staged, or
// untracked, relative to root. Deleted files and binary extensions are left
// out. Outside a git work tree, or without git on PATH, it returns nothing.
func GitChangedFiles(ctx context.Context, root string) ([]string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, nil
	}
	prefix, err := runGit(ctx, root, "rev-parse", "--show-prefix")
	if err != nil {
		return nil, nil
	}
	prefix = strings.TrimSpace(prefix)

	out, err := runGit(ctx, root, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	return parseStatus(out, prefix), nil
}

// parseStatus reads NUL-separated porcelain v1 entries. Paths are relative
// to the repository top level; prefix is root's position inside it.
func parseStatus(out, prefix string) []string {
	var files []string
	entries := strings.Split(out, "\x00")
	for i := 0; i < len(entries); i++ {
		e := entries[i]
		if len(e) < 4 {
			continue
		}
		x, y, rel := e[0], e[1], e[3:]
		if x == 'R' || x == 'C' {
			// The source path follows as its own entry.
			i++
		}
		if x == 'D' || y == 'D' {
			continue
		}
		if !strings.HasPrefix(rel, prefix) {
			continue
		}
		rel = strings.TrimPrefix(rel, prefix)
		if rel == "" || strings.HasSuffix(rel, "/") || isBinaryExt(rel) {
			continue
		}
		files = append(files, rel)
	}
	return files
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return string(out), nil
}
