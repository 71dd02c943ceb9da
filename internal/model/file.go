package model

import "sort"

// File is one scanned source file and the comments reported on it.
type File struct {
	path     string
	comments map[int][]Comment
	count    int
}

func newFile(path string) *File {
	return &File{path: path, comments: make(map[int][]Comment)}
}

// Path returns the path relative to the project root.
func (f *File) Path() string { return f.path }

// AddComment appends c to the comments of line. Lines are 1-based; lower
// values are rejected.
func (f *File) AddComment(line int, c Comment) bool {
	if line < 1 {
		return false
	}
	f.comments[line] = append(f.comments[line], c)
	f.count++
	return true
}

// HasComments reports whether any comment was added.
func (f *File) HasComments() bool { return f.count > 0 }

// CommentCount returns the number of comments on the file.
func (f *File) CommentCount() int { return f.count }

// Lines returns the commented line numbers in ascending order.
func (f *File) Lines() []int {
	lines := make([]int, 0, len(f.comments))
	for l := range f.comments {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

// CommentsAt returns the comments of one line in insertion order.
func (f *File) CommentsAt(line int) []Comment {
	return append([]Comment(nil), f.comments[line]...)
}

// LineComments groups the comments of one line.
type LineComments struct {
	Line     int
	Comments []Comment
}

// Comments returns every comment grouped by ascending line number.
func (f *File) Comments() []LineComments {
	lines := f.Lines()
	out := make([]LineComments, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineComments{Line: l, Comments: f.CommentsAt(l)})
	}
	return out
}

// UpdateComments rewrites comments in place. It is meant for post-analysis
// hooks that complete data on existing comments; fn must not change their
// number or order.
func (f *File) UpdateComments(fn func(line int, c Comment) Comment) {
	for line, cs := range f.comments {
		for i := range cs {
			cs[i] = fn(line, cs[i])
		}
	}
}
