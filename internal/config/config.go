// Package config loads .scrutinizer.yml and merges it with the schema
// declared by the registered analyzers into a validated Configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up in the project root.
const FileName = ".scrutinizer.yml"

const maxFileSize = 1 << 20

// Load reads <dir>/.scrutinizer.yml. A missing file yields an empty mapping.
func Load(dir string) (map[string]any, error) {
	path := filepath.Join(dir, FileName)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("reading %s: is a directory", path)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %s (%d bytes, max 1 MB)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	raw, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return raw, nil
}

// Parse decodes a YAML document into a raw mapping. An empty document is an
// empty mapping; any other non-mapping document is a ConfigurationError.
func Parse(data []byte) (map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	switch v := doc.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return nil, typeError("", "mapping", doc)
	}
}
