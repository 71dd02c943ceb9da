package hooks

import (
	"context"
	"errors"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/erik-smit/scrutinizer/internal/model"
)

// LocationCompletionName is the name LocationCompletion registers under.
const LocationCompletionName = "location-completion"

// LocationCompletion fills missing range data on every comment: the end
// line becomes the comment's line, the column the first non-blank
// character, and the end column one past the last character. Values an
// analyzer already set are kept. Files that no longer exist are skipped.
func LocationCompletion(ctx context.Context, p *model.Project) error {
	for _, f := range p.Files() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !needsCompletion(f) {
			continue
		}

		data, err := os.ReadFile(p.AbsPath(f.Path()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		lines := strings.Split(string(data), "\n")

		f.UpdateComments(func(line int, c model.Comment) model.Comment {
			if c.HasLocation() || line > len(lines) {
				return c
			}
			text := strings.TrimSuffix(lines[line-1], "\r")
			if c.EndLine == 0 {
				c.EndLine = line
			}
			if c.Column == 0 {
				c.Column = firstNonBlank(text)
			}
			if c.EndColumn == 0 {
				c.EndColumn = utf8.RuneCountInString(text) + 1
			}
			return c
		})
	}
	return nil
}

func needsCompletion(f *model.File) bool {
	for _, lc := range f.Comments() {
		for _, c := range lc.Comments {
			if !c.HasLocation() {
				return true
			}
		}
	}
	return false
}

// firstNonBlank returns the 1-based column of the first non-space rune, or
// 1 for a blank line.
func firstNonBlank(line string) int {
	col := 1
	for _, r := range line {
		if !unicode.IsSpace(r) {
			return col
		}
		col++
	}
	return 1
}
