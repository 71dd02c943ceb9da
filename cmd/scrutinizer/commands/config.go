package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/erik-smit/scrutinizer/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [directory]",
	Short: "Print the effective configuration of a directory",
	Long: `Prints the configuration a run would use: built-in defaults, overlaid with
--default-config, overlaid with the directory's .scrutinizer.yml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	s, err := newScrutinizer(newLogger(cmd))
	if err != nil {
		return err
	}
	proc, err := s.Configuration()
	if err != nil {
		return err
	}
	raw, err := config.Load(dir)
	if err != nil {
		return err
	}
	cfg, err := proc.Process(raw)
	if err != nil {
		return err
	}

	// Emit keys in schema order rather than yaml's sorted map order.
	doc := &yaml.Node{Kind: yaml.MappingNode}
	values := cfg.Values()
	for _, key := range proc.Keys() {
		var v yaml.Node
		if err := v.Encode(values[key]); err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, &v)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
