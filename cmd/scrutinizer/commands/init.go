package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/erik-smit/scrutinizer/internal/analyzer"
	"github.com/erik-smit/scrutinizer/internal/config"
)

var flagHook bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize Scrutinizer configuration files",
	Long:  `Scaffolds .scrutinizer.yml and .scrutinizerignore, or a git pre-commit hook with --hook.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&flagHook, "hook", false, "Create a git pre-commit hook that analyzes changed files")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	var w io.Writer = os.Stdout
	if cmd != nil {
		w = cmd.OutOrStdout()
	}
	if flagHook {
		return writeIfMissing(w, filepath.Join(dir, ".git", "hooks", "pre-commit"), preCommitTemplate, 0755, filepath.Join(dir, ".git"))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := writeIfMissing(w, filepath.Join(dir, config.FileName), configTemplate, 0644, ""); err != nil {
		return err
	}
	return writeIfMissing(w, filepath.Join(dir, analyzer.IgnoreFile), ignoreTemplate, 0644, "")
}

// writeIfMissing creates path with content unless it exists. When requires
// is set, that directory must already exist.
func writeIfMissing(w io.Writer, path, content string, perm os.FileMode, requires string) error {
	if requires != "" {
		if _, err := os.Stat(requires); os.IsNotExist(err) {
			return fmt.Errorf("no %s directory found (is this a git repository?)", requires)
		}
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "  skip %s (already exists)\n", path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(w, "  create %s\n", path)
	return nil
}

const configTemplate = `# Scrutinizer configuration
# Run "scrutinizer config" to see every option with its effective value.

# Shell commands run in the project root before and after the analyzers.
before_commands: []
after_commands: []

# Paths every analyzer looks at (globs, "dir/" means everything below dir).
filter:
  paths: []
  excluded_paths:
    - "vendor/"
    - "node_modules/"

whitespace:
  enabled: false
  allow_tabs: true
  max_line_length: 0

markdown:
  enabled: true

# Regex and contains rules, e.g.
#   rules:
#     - id: debug.var_dump
#       message: "Remove {match} before committing."
#       severity: major
#       patterns:
#         - type: regex
#           value: 'var_dump\('
pattern:
  extensions: []
  rules: []

# Commands writing {"files": [...], "comments": [...]} to output_file.
custom:
  commands: []
`

const ignoreTemplate = `# Scrutinizer ignore patterns
# Files matching these patterns are never analyzed

# Dependencies
vendor/
node_modules/
.venv/

# Build artifacts
dist/
build/
*.min.js

# Logs and temp
*.log
tmp/
`

const preCommitTemplate = `#!/bin/sh
# Scrutinizer pre-commit hook
echo "Running Scrutinizer on changed files..."
scrutinizer run --changed .
exit $?
`
