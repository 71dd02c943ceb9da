package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/erik-smit/scrutinizer/internal/model"
)

// PlainFormatter lists the comments of every commented file, followed by a
// summary line.
//
//	src/a.php
//	=========
//	Line 1: first comment
//	Line 3: second comment
//
//	Scanned Files: 2, Comments: 2
type PlainFormatter struct{}

func (f *PlainFormatter) Format(w io.Writer, p *model.Project) error {
	bw := bufio.NewWriter(w)
	files, comments := 0, 0
	first := true

	for _, file := range p.Files() {
		files++
		if !file.HasComments() {
			continue
		}
		if !first {
			fmt.Fprintln(bw)
		}
		first = false

		fmt.Fprintln(bw, file.Path())
		fmt.Fprintln(bw, strings.Repeat("=", len(file.Path())))
		for _, lc := range file.Comments() {
			for _, c := range lc.Comments {
				fmt.Fprintf(bw, "Line %d: %s\n", lc.Line, c)
				comments++
			}
		}
	}

	if comments > 0 {
		fmt.Fprintln(bw)
	}
	fmt.Fprintf(bw, "Scanned Files: %d, Comments: %d\n", files, comments)
	return bw.Flush()
}
