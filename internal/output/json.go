package output

import (
	"encoding/json"
	"io"

	"github.com/erik-smit/scrutinizer/internal/model"
)

// JSONFormatter outputs the project as an indented JSON document.
type JSONFormatter struct{}

// Report is the document written by JSONFormatter.
type Report struct {
	RunID   string       `json:"run_id"`
	Files   []FileReport `json:"files"`
	Summary Summary      `json:"summary"`
}

// FileReport holds the comments of one file in line order.
type FileReport struct {
	Path     string          `json:"path"`
	Comments []CommentReport `json:"comments"`
}

// CommentReport is a comment with its line and rendered message.
type CommentReport struct {
	Line int `json:"line"`
	model.Comment
}

// Summary counts files and comments.
type Summary struct {
	Files      int            `json:"files"`
	Comments   int            `json:"comments"`
	BySeverity map[string]int `json:"by_severity"`
}

func (f *JSONFormatter) Format(w io.Writer, p *model.Project) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReport(p))
}

// NewReport flattens p into a Report. Messages are rendered with their
// parameters substituted.
func NewReport(p *model.Project) Report {
	r := Report{
		RunID: p.RunID(),
		Files: []FileReport{},
		Summary: Summary{
			BySeverity: map[string]int{},
		},
	}
	for _, file := range p.Files() {
		fr := FileReport{Path: file.Path(), Comments: []CommentReport{}}
		for _, lc := range file.Comments() {
			for _, c := range lc.Comments {
				c.Message = c.String()
				c.Params = nil
				fr.Comments = append(fr.Comments, CommentReport{Line: lc.Line, Comment: c})
				r.Summary.BySeverity[c.Severity.String()]++
				r.Summary.Comments++
			}
		}
		r.Files = append(r.Files, fr)
		r.Summary.Files++
	}
	return r
}
