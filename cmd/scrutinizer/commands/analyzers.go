package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/erik-smit/scrutinizer/internal/config"
)

var flagListFormat string

var analyzersCmd = &cobra.Command{
	Use:   "analyzers",
	Short: "List the registered analyzers in pipeline order",
	Args:  cobra.NoArgs,
	RunE:  runAnalyzers,
}

func init() {
	analyzersCmd.Flags().StringVar(&flagListFormat, "format", "table", "Output format (table, json)")
	rootCmd.AddCommand(analyzersCmd)
}

type analyzerInfo struct {
	Name    string   `json:"name"`
	Enabled bool     `json:"enabled"`
	Options []string `json:"options"`
}

func runAnalyzers(cmd *cobra.Command, args []string) error {
	s, err := newScrutinizer(newLogger(cmd))
	if err != nil {
		return err
	}
	proc, err := s.Configuration()
	if err != nil {
		return err
	}
	cfg, err := proc.Process(nil)
	if err != nil {
		return err
	}

	var infos []analyzerInfo
	for _, name := range cfg.Analyzers() {
		var opts []string
		for key := range cfg.Analyzer(name) {
			if key != config.KeyEnabled && key != config.KeyFilter {
				opts = append(opts, key)
			}
		}
		sort.Strings(opts)
		infos = append(infos, analyzerInfo{Name: name, Enabled: cfg.IsAnalyzerEnabled(name), Options: opts})
	}

	w := cmd.OutOrStdout()
	switch strings.ToLower(flagListFormat) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	case "table":
	default:
		return fmt.Errorf("unknown format %q (supported: table, json)", flagListFormat)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Enabled", "Options"})
	table.SetAutoWrapText(false)
	for _, info := range infos {
		table.Append([]string{info.Name, strconv.FormatBool(info.Enabled), strings.Join(info.Options, ", ")})
	}
	table.Render()
	fmt.Fprintf(w, "\n%d analyzers registered\n", len(infos))
	return nil
}
