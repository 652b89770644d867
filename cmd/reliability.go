package cmd

import (
	"github.com/KaramelBytes/dkap-cli/internal/survey"
	"github.com/spf13/cobra"
)

var reliabilityCmd = &cobra.Command{
	Use:   "reliability",
	Short: "Internal consistency of the knowledge and awareness scales",
}

func init() {
	rootCmd.AddCommand(reliabilityCmd)
	reliabilityCmd.AddCommand(
		analysisCmd("alpha", "Cronbach's alpha over every knowledge question", (*survey.Runner).Alpha),
		analysisCmd("groups", "Cronbach's alpha per configured awareness group", (*survey.Runner).AlphaGroups),
		analysisCmd("omega", "Alpha, McDonald's omega and item-total correlations per group", (*survey.Runner).Omega),
	)
}
