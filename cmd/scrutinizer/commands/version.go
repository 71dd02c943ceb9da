package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erik-smit/scrutinizer/internal/update"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var flagCheckUpdate bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&flagCheckUpdate, "check", false, "Check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "scrutinizer %s (commit: %s)\n", Version, Commit)
	if !flagCheckUpdate {
		return nil
	}

	r, err := update.NewChecker().Latest(cmd.Context(), Version)
	if err != nil {
		// Being offline is not a reason to fail.
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		return nil
	}
	switch {
	case r == nil:
		fmt.Fprintln(w, "Development build, not checking for updates.")
	case r.NeedsUpdate():
		fmt.Fprintf(w, "A newer version is available: %s\n  %s\n", r.Latest, r.UpdateCmd)
	default:
		fmt.Fprintln(w, "You are running the latest version.")
	}
	return nil
}
