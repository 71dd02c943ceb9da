package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrPathFileNotFound is returned when --path-file names a missing file.
var ErrPathFileNotFound = errors.New("path file not found")

// readPathFile returns the non-blank lines of path.
func readPathFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrPathFileNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			paths = append(paths, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return paths, nil
}
