package analyzer

import (
	"path"
	"strings"

	"github.com/erik-smit/scrutinizer/internal/config"
)

// MatchGlob reports whether the slash-separated relPath matches pattern.
// Segments are matched with path.Match; a "**" segment matches any number
// of directories, a trailing "/" is shorthand for "/**", and a pattern
// without a slash matches the file name at any depth.
func MatchGlob(pattern, relPath string) bool {
	pattern = strings.TrimPrefix(pattern, "./")
	if pattern == "" {
		return false
	}
	if strings.HasSuffix(pattern, "/") {
		pattern += "**"
	}
	if !strings.Contains(pattern, "/") {
		pattern = "**/" + pattern
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(relPath, "/"))
}

func matchSegments(pat, name []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			rest := pat[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, _ := path.Match(pat[0], name[0]); !ok {
			return false
		}
		pat, name = pat[1:], name[1:]
	}
	return len(name) == 0
}

func matchAny(patterns []string, relPath string) bool {
	for _, p := range patterns {
		if MatchGlob(p, relPath) {
			return true
		}
	}
	return false
}

// allow applies filters in order: a non-empty Paths list must match, and
// no ExcludedPaths entry may.
func allow(filters []config.Filter, relPath string) bool {
	for _, f := range filters {
		if len(f.Paths) > 0 && !matchAny(f.Paths, relPath) {
			return false
		}
		if matchAny(f.ExcludedPaths, relPath) {
			return false
		}
	}
	return true
}

var binaryExts = make(map[string]bool)

func init() {
	for _, ext := range strings.Fields(`
		.exe .dll .so .dylib .o .a .bin .class .jar .phar
		.png .jpg .jpeg .gif .ico .svg .webp .bmp
		.woff .woff2 .ttf .eot .otf
		.zip .tar .gz .bz2 .xz .7z .rar
		.pdf .mp3 .mp4 .avi .mov .wav`) {
		binaryExts[ext] = true
	}
}

func isBinaryExt(rel string) bool {
	return binaryExts[strings.ToLower(path.Ext(rel))]
}
