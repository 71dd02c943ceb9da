package analyzer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/erik-smit/scrutinizer/internal/config"
	"github.com/erik-smit/scrutinizer/internal/model"
)

// IgnoreFile lists glob patterns excluded from discovery, one per line.
const IgnoreFile = ".scrutinizerignore"

// MaxFileSize bounds the files LoadContent reads.
const MaxFileSize = 4 << 20

// ErrTooLarge is returned by LoadContent for files over MaxFileSize.
var ErrTooLarge = errors.New("file too large")

// Target is one file an analyzer looks at.
type Target struct {
	Path    string // absolute
	RelPath string // slash-separated, relative to the project root
	Content []byte
}

// LoadContent reads the file into Content.
func (t *Target) LoadContent() error {
	info, err := os.Stat(t.Path)
	if err != nil {
		return err
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("%s: %w (%d bytes)", t.RelPath, ErrTooLarge, info.Size())
	}
	t.Content, err = os.ReadFile(t.Path)
	return err
}

// Lines splits Content on newlines. Carriage returns are kept.
func (t *Target) Lines() []string {
	return strings.Split(string(t.Content), "\n")
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{".git": true, ".hg": true, ".svn": true, "node_modules": true}

// Discovery finds candidate files below a root.
type Discovery struct {
	// Ignore holds glob patterns; IgnoreFile entries are appended to it.
	Ignore []string
	// Extensions restricts discovery to these extensions, with or without
	// the leading dot. Empty means every extension.
	Extensions []string
}

// Discover returns the regular, non-binary files below root in lexical
// order. Unreadable entries are skipped.
func (d *Discovery) Discover(root string) ([]*Target, error) {
	d.loadIgnoreFile(root)

	var targets []*Target
	err := filepath.WalkDir(root, func(abs string, e fs.DirEntry, err error) error {
		if err != nil {
			if e != nil && e.IsDir() && abs != root {
				return filepath.SkipDir
			}
			return nil
		}
		if e.IsDir() {
			if abs != root && skipDirs[e.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !e.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.accept(rel) {
			targets = append(targets, &Target{Path: abs, RelPath: rel})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return targets, nil
}

func (d *Discovery) accept(rel string) bool {
	return !isBinaryExt(rel) && d.hasExtension(rel) && !matchAny(d.Ignore, rel)
}

func (d *Discovery) loadIgnoreFile(root string) {
	data, err := os.ReadFile(filepath.Join(root, IgnoreFile))
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d.Ignore = append(d.Ignore, line)
	}
}

func (d *Discovery) hasExtension(rel string) bool {
	if len(d.Extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(path.Ext(rel), ".")
	for _, e := range d.Extensions {
		if strings.EqualFold(strings.TrimPrefix(e, "."), ext) {
			return true
		}
	}
	return false
}

// Targets returns the files the named analyzer should look at: files under
// the project root with one of the extensions, inside the project's path
// filter, the global filter, and the analyzer's own filter.
func Targets(p *model.Project, name string, extensions ...string) ([]*Target, error) {
	cfg := p.Config()
	var filters []config.Filter
	if cfg != nil {
		filters = append(filters, cfg.Filter(), cfg.Analyzer(name).Filter())
	}

	d := &Discovery{Extensions: extensions}
	var candidates []*Target
	if explicit := p.Paths(); len(explicit) > 0 {
		// A path filter names the files directly; no need to walk the tree.
		d.loadIgnoreFile(p.Root())
		for _, rel := range explicit {
			abs := p.AbsPath(rel)
			info, err := os.Stat(abs)
			if err != nil || !info.Mode().IsRegular() || !d.accept(rel) {
				continue
			}
			candidates = append(candidates, &Target{Path: abs, RelPath: rel})
		}
		sortTargets(candidates)
	} else {
		var err error
		candidates, err = d.Discover(p.Root())
		if err != nil {
			return nil, err
		}
	}

	var out []*Target
	for _, t := range candidates {
		if p.IsPathIncluded(t.RelPath) && allow(filters, t.RelPath) {
			out = append(out, t)
		}
	}
	return out, nil
}

func sortTargets(ts []*Target) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].RelPath < ts[j].RelPath })
}
