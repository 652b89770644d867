package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	cfgpkg "github.com/KaramelBytes/dkap-cli/internal/config"
	"github.com/KaramelBytes/dkap-cli/internal/logging"
	"github.com/KaramelBytes/dkap-cli/internal/survey"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagDataDir   string
	flagOutputDir string

	// Loaded configuration and process logger
	cfg    *cfgpkg.Global
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dkap",
	Short: "DKAP survey analytics: knowledge, awareness, attitude and demographics",
	Long: `dkap runs the analyses of a Demographics-Knowledge-Awareness-Practice survey:
descriptives, association rules, k-prototypes clustering, reliability, factor
analysis, cluster comparisons and the summary reports. Inputs are read from the
data directory and every result is written to the output directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here: loadConfig reads rootCmd's flags.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(debug)
		if err != nil {
			return err
		}
		logger = l
		return loadConfig(cmd)
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./dkap.yaml, searched upward, then ~/.dkap/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory holding the input datasets (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, "output-dir", "", "directory receiving the results (overrides config)")
}

func loadConfig(cmd *cobra.Command) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	// Flag directories are relative to the working directory, not the study.
	f := cmd.Root().PersistentFlags()
	if f.Changed("data-dir") && flagDataDir != "" {
		if cfg.DataDir, err = filepath.Abs(flagDataDir); err != nil {
			return fmt.Errorf("resolve --data-dir: %w", err)
		}
	}
	if f.Changed("output-dir") && flagOutputDir != "" {
		if cfg.OutputDir, err = filepath.Abs(flagOutputDir); err != nil {
			return fmt.Errorf("resolve --output-dir: %w", err)
		}
	}
	logger.Debug("configuration loaded",
		zap.String("source", cfg.Source),
		zap.String("data_dir", cfg.DataPath()),
		zap.String("output_dir", cfg.OutputPath()))
	return nil
}

// runAnalysis opens the output manifest, runs fn and saves the manifest,
// also after a failure so earlier artifacts stay recorded.
func runAnalysis(cmd *cobra.Command, fn func(r *survey.Runner) error) error {
	r, err := survey.NewRunner(cfg, logger, cmd.OutOrStdout(), cmd.CommandPath())
	if err != nil {
		return err
	}
	runErr := fn(r)
	if err := r.Finish(); err != nil && runErr == nil {
		return err
	}
	if runErr != nil {
		logger.Error("analysis failed", zap.String("command", cmd.CommandPath()), zap.Error(runErr))
	}
	return runErr
}

// analysisCmd builds a leaf command without arguments around a Runner method.
func analysisCmd(use, short string, fn func(r *survey.Runner) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, fn)
		},
	}
}
