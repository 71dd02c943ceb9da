package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/erik-smit/scrutinizer"
	"github.com/erik-smit/scrutinizer/internal/config"
	"github.com/erik-smit/scrutinizer/internal/logging"
)

var (
	flagVerbose       bool
	flagNoColor       bool
	flagDefaultConfig string
)

var rootCmd = &cobra.Command{
	Use:   "scrutinizer",
	Short: "Runs code analyzers over a project directory",
	Long: `Scrutinizer runs a configurable pipeline of analyzers over a project
directory, with optional shell commands before and after the analysis, and
reports the comments they produce.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Show debug output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored log levels")
	rootCmd.PersistentFlags().StringVar(&flagDefaultConfig, "default-config", "", "YAML file with per-analyzer default options")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, scrutinizer.ErrDirectoryNotFound):
		return 1
	default:
		return 2
	}
}

func newLogger(cmd *cobra.Command) *zap.SugaredLogger {
	return logging.New(logging.Config{
		Verbose: flagVerbose,
		Output:  cmd.ErrOrStderr(),
		NoColor: flagNoColor || os.Getenv("NO_COLOR") != "",
	})
}

// newScrutinizer builds the orchestrator with the flags shared by all
// commands.
func newScrutinizer(lggr *zap.SugaredLogger) (*scrutinizer.Scrutinizer, error) {
	opts := []scrutinizer.Option{scrutinizer.WithLogger(lggr)}
	if flagDefaultConfig != "" {
		reg, err := config.LoadDefaultRegistry(flagDefaultConfig)
		if err != nil {
			return nil, fmt.Errorf("loading default config: %w", err)
		}
		opts = append(opts, scrutinizer.WithDefaultRegistry(reg))
	}
	return scrutinizer.New(opts...)
}

func contextWithInterrupt() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
