package model

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/erik-smit/scrutinizer/internal/config"
)

// Project is the aggregate root of one run. It only grows: nothing removes
// files or comments once added.
type Project struct {
	runID  string
	root   string
	config *config.Configuration
	paths  map[string]bool
	files  []*File
	index  map[string]*File
}

// New creates a project rooted at root. paths restricts analysis to the
// given relative paths; an empty set means every path. Blank entries are
// ignored so a trailing newline in a path file does not matter.
func New(root string, cfg *config.Configuration, paths []string) *Project {
	p := &Project{
		runID:  uuid.NewString(),
		root:   root,
		config: cfg,
		paths:  make(map[string]bool, len(paths)),
		index:  make(map[string]*File),
	}
	for _, rel := range paths {
		if rel = strings.TrimSpace(rel); !IsValidPath(rel) {
			continue
		}
		p.paths[Normalize(rel)] = true
	}
	return p
}

// Normalize turns a relative path into the slash-separated, cleaned form
// used as the project's file key.
func Normalize(rel string) string {
	rel = path.Clean(filepath.ToSlash(rel))
	return strings.TrimPrefix(rel, "./")
}

// IsValidPath reports whether rel names a file inside the project: not
// empty, not the root itself, not absolute, and not escaping with "..".
func IsValidPath(rel string) bool {
	if strings.TrimSpace(rel) == "" || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return false
	}
	n := Normalize(rel)
	return n != "." && n != ".." && !path.IsAbs(n) && !strings.HasPrefix(n, "../")
}

// RunID identifies the run in logs and JSON output.
func (p *Project) RunID() string { return p.runID }

// Root returns the absolute project directory.
func (p *Project) Root() string { return p.root }

// Config returns the validated configuration.
func (p *Project) Config() *config.Configuration { return p.config }

// AbsPath resolves a project-relative path against the root.
func (p *Project) AbsPath(rel string) string {
	return filepath.Join(p.root, filepath.FromSlash(Normalize(rel)))
}

// Paths returns the explicit path filter in no particular order.
func (p *Project) Paths() []string {
	out := make([]string, 0, len(p.paths))
	for rel := range p.paths {
		out = append(out, rel)
	}
	return out
}

// IsPathIncluded reports whether rel is covered by the path filter.
func (p *Project) IsPathIncluded(rel string) bool {
	if len(p.paths) == 0 {
		return true
	}
	return p.paths[Normalize(rel)]
}

// IsAnalyzerEnabled delegates to the configuration.
func (p *Project) IsAnalyzerEnabled(name string) bool {
	if p.config == nil {
		return false
	}
	return p.config.IsAnalyzerEnabled(name)
}

// File returns the file for rel, creating it on first use. It returns nil
// for invalid paths and paths outside the path filter.
func (p *Project) File(rel string) *File {
	if !IsValidPath(rel) {
		return nil
	}
	rel = Normalize(rel)
	if !p.IsPathIncluded(rel) {
		return nil
	}
	if f, ok := p.index[rel]; ok {
		return f
	}
	f := newFile(rel)
	p.index[rel] = f
	p.files = append(p.files, f)
	return f
}

// Lookup returns an existing file without creating it.
func (p *Project) Lookup(rel string) (*File, bool) {
	f, ok := p.index[Normalize(rel)]
	return f, ok
}

// AddComment attaches c to line of rel. It reports false, leaving the
// project untouched, when rel is invalid, outside the path filter, or
// line < 1.
func (p *Project) AddComment(rel string, line int, c Comment) bool {
	if line < 1 || !IsValidPath(rel) || !p.IsPathIncluded(rel) {
		return false
	}
	return p.File(rel).AddComment(line, c)
}

// Files returns the files in the order they were first reported.
func (p *Project) Files() []*File {
	return append([]*File(nil), p.files...)
}

// HasComments reports whether any file has comments.
func (p *Project) HasComments() bool {
	for _, f := range p.files {
		if f.HasComments() {
			return true
		}
	}
	return false
}

// CommentCount returns the number of comments across all files.
func (p *Project) CommentCount() int {
	n := 0
	for _, f := range p.files {
		n += f.CommentCount()
	}
	return n
}
