package cmd

import (
	"github.com/KaramelBytes/dkap-cli/internal/survey"
	"github.com/spf13/cobra"
)

var demoBy string

var describeCmd = analysisCmd("describe",
	"Per-question descriptives of the three-row-header survey export",
	(*survey.Runner).Describe)

var demographicsCmd = &cobra.Command{
	Use:   "demographics",
	Short: "Cross-tabulate every question by a one-hot demographic",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, func(r *survey.Runner) error {
			return r.Demographics(demoBy)
		})
	},
}

var associateCmd = analysisCmd("associate",
	"Frequent itemsets and association rules over the binary answers",
	(*survey.Runner).Associate)

var relationshipsCmd = analysisCmd("relationships",
	"Chi-square tests for the configured antecedent/consequent pairs",
	(*survey.Runner).Relationships)

func init() {
	rootCmd.AddCommand(describeCmd, demographicsCmd, associateCmd, relationshipsCmd)
	demographicsCmd.Flags().StringVar(&demoBy, "by", "", "demographic question to group by (default from config demographic_by)")
}
