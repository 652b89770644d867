package cmd

import (
	"fmt"
	"strings"

	cfgpkg "github.com/KaramelBytes/dkap-cli/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set dkap configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg.Source != "" {
			fmt.Fprintf(out, "# source: %s\n", cfg.Source)
		} else {
			fmt.Fprintln(out, "# source: defaults (no config file found)")
		}
		fmt.Fprintf(out, "# data: %s\n# output: %s\n", cfg.DataPath(), cfg.OutputPath())
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = out.Write(b)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: "Set a config value and save it to the file it was read from.\n\nKeys:\n  " +
		strings.Join(cfgpkg.Keys, "\n  ") + "\n\nLists are comma separated.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
