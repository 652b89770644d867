package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	cfgpkg "github.com/KaramelBytes/dkap-cli/internal/config"
	"github.com/KaramelBytes/dkap-cli/internal/study"
	"github.com/KaramelBytes/dkap-cli/internal/utils"
	"github.com/spf13/cobra"
)

var initDescription string

var initCmd = &cobra.Command{
	Use:   "init <dir>",
	Short: "Initialize a study directory with dkap.yaml, data/ and out/",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolve study directory: %w", err)
		}
		cfgPath := filepath.Join(dir, utils.StudyConfigName)
		// Refuse to overwrite an existing study.
		if utils.FileExists(cfgPath) {
			return fmt.Errorf("study already exists at %s", dir)
		}
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
		if err := os.WriteFile(cfgPath, []byte("data_dir: data\noutput_dir: out\n"), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", cfgPath, err)
		}
		// Reload so the file carries every default and can be edited in place.
		c, err := cfgpkg.Load(cfgPath)
		if err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgPath); err != nil {
			return err
		}
		for _, d := range []string{c.DataPath(), c.OutputPath()} {
			if err := utils.EnsureDir(d); err != nil {
				return err
			}
		}
		st := study.New(filepath.Base(dir), initDescription, c.OutputPath())
		if err := st.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Study initialized: %s\n", dir)
		fmt.Fprintf(cmd.OutOrStdout(), "  Put the survey exports into %s\n", c.DataPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "study description")
}
