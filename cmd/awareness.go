package cmd

import (
	"github.com/KaramelBytes/dkap-cli/internal/survey"
	"github.com/spf13/cobra"
)

var awarenessCmd = &cobra.Command{
	Use:   "awareness",
	Short: "Awareness descriptives, cluster comparisons and reports",
}

var attitudeCmd = &cobra.Command{
	Use:   "attitude",
	Short: "Attitude/practice analyses and report",
}

func init() {
	rootCmd.AddCommand(awarenessCmd, attitudeCmd)
	awarenessCmd.AddCommand(
		analysisCmd("descriptives", "Subscale descriptives, skewness, kurtosis and Shapiro-Wilk", (*survey.Runner).AwarenessDescriptives),
		analysisCmd("clusters", "Awareness questions vs knowledge score and clusters", (*survey.Runner).AwarenessClusters),
		analysisCmd("postprocess", "Normalise factor scores and relate them to knowledge and demographics", (*survey.Runner).AwarenessPostprocess),
		analysisCmd("report", "Awareness summary PDF", (*survey.Runner).AwarenessReport),
		analysisCmd("factor-report", "Awareness factor analysis PDF", (*survey.Runner).AwarenessFactorReport),
	)
	attitudeCmd.AddCommand(
		analysisCmd("analyze", "Attitude items vs knowledge, awareness and clusters", (*survey.Runner).AttitudeAnalyze),
		analysisCmd("report", "Attitude composite correlations, figures and PDF", (*survey.Runner).AttitudeReport),
	)
}
