package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erik-smit/scrutinizer"
	"github.com/erik-smit/scrutinizer/internal/analyzer"
	"github.com/erik-smit/scrutinizer/internal/model"
	"github.com/erik-smit/scrutinizer/internal/output"
	"github.com/erik-smit/scrutinizer/internal/profile"
)

var (
	flagFormat         string
	flagOutputFile     string
	flagProfilerOutput string
	flagPathFile       string
	flagChanged        bool
)

var runCmd = &cobra.Command{
	Use:   "run <directory>",
	Short: "Run the analyzers over a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVarP(&flagFormat, "format", "f", output.DefaultFormat, "Output format (plain, json, sarif)")
	runCmd.Flags().StringVar(&flagOutputFile, "output-file", "", "File to write the output to (default: stdout)")
	runCmd.Flags().StringVar(&flagProfilerOutput, "profiler-output-file", "", "File to write the profiler checkpoints to")
	runCmd.Flags().StringVar(&flagPathFile, "path-file", "", "File with newline-separated relative paths to restrict the analysis to")
	runCmd.Flags().BoolVar(&flagChanged, "changed", false, "Only analyze git-changed files (staged, unstaged, untracked)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	dir := args[0]

	formatter, err := output.ForName(flagFormat)
	if err != nil {
		return err
	}
	output.ToolVersion = Version

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		fmt.Fprintf(cmd.ErrOrStderr(), "The directory %q does not exist.\n", dir)
		return fmt.Errorf("%w: %s", scrutinizer.ErrDirectoryNotFound, dir)
	}

	paths, err := collectPaths(cmd.Context(), dir)
	if err != nil {
		return err
	}

	lggr := newLogger(cmd)
	defer func() { _ = lggr.Sync() }()

	prof := profile.New()
	prof.Start()

	s, err := newScrutinizer(lggr)
	if err != nil {
		return err
	}

	var project *model.Project
	if flagChanged && len(paths) == 0 {
		// An empty path filter means everything; nothing changed means nothing.
		root, cfg, err := s.Load(dir)
		if err != nil {
			return err
		}
		lggr.Info("No changed files, nothing to analyze.")
		project = model.New(root, cfg, nil)
	} else {
		ctx, cancel := contextWithInterrupt()
		defer cancel()

		project, err = s.Scrutinize(ctx, dir, paths, prof)
		if err != nil {
			return err
		}
	}

	_ = prof.Check("output.start")
	if err := writeOutput(cmd, formatter, project); err != nil {
		return err
	}
	_ = prof.Check("output.end")
	prof.Stop()

	if flagProfilerOutput != "" {
		data, err := prof.IndentedJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(flagProfilerOutput, data, 0644); err != nil {
			return fmt.Errorf("writing profiler output: %w", err)
		}
	}
	return nil
}

// collectPaths merges the --path-file entries and, with --changed, the
// files git reports as changed.
func collectPaths(ctx context.Context, dir string) ([]string, error) {
	var paths []string
	if flagPathFile != "" {
		fromFile, err := readPathFile(flagPathFile)
		if err != nil {
			return nil, err
		}
		paths = append(paths, fromFile...)
	}
	if flagChanged {
		changed, err := analyzer.GitChangedFiles(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("getting changed files: %w", err)
		}
		if flagPathFile != "" {
			changed = intersect(changed, paths)
		}
		return changed, nil
	}
	return paths, nil
}

func intersect(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, p := range b {
		in[model.Normalize(p)] = true
	}
	var out []string
	for _, p := range a {
		if in[model.Normalize(p)] {
			out = append(out, p)
		}
	}
	return out
}

func writeOutput(cmd *cobra.Command, formatter output.Formatter, p *model.Project) (err error) {
	if flagOutputFile == "" {
		return formatter.Format(cmd.OutOrStdout(), p)
	}
	f, err := os.Create(flagOutputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output file: %w", cerr)
		}
	}()
	return formatter.Format(f, p)
}
