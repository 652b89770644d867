package cmd

import (
	"github.com/KaramelBytes/dkap-cli/internal/survey"
)

func init() {
	rootCmd.AddCommand(
		analysisCmd("final", "Integrate knowledge, awareness and attitude into the DKAP summary report", (*survey.Runner).Final),
		analysisCmd("publication", "Radar profiles, regressions, heatmap and the merged publication report", (*survey.Runner).Publication),
	)
}
