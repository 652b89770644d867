package cmd

import (
	"github.com/KaramelBytes/dkap-cli/internal/survey"
	"github.com/spf13/cobra"
)

var (
	clusterK  int
	clusterKs []int
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Segment respondents by knowledge with k-prototypes",
}

var clusterKnowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Fit k-prototypes and write the per-respondent clusters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, func(r *survey.Runner) error {
			return r.ClusterKnowledge(clusterK)
		})
	},
}

var clusterEvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Elbow (WCSS) and Davies-Bouldin index over a range of k",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, func(r *survey.Runner) error {
			return r.EvaluateClusters(clusterKs)
		})
	},
}

var clusterSilhouetteCmd = &cobra.Command{
	Use:   "silhouette",
	Short: "Silhouette score over a range of k",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, func(r *survey.Runner) error {
			return r.Silhouette(clusterKs)
		})
	},
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	clusterCmd.AddCommand(clusterKnowledgeCmd, clusterEvaluateCmd, clusterSilhouetteCmd)
	clusterKnowledgeCmd.Flags().IntVar(&clusterK, "k", 0, "number of clusters (default from config cluster.k)")
	clusterEvaluateCmd.Flags().IntSliceVar(&clusterKs, "ks", nil, "cluster counts to evaluate (default from config cluster.k_range)")
	clusterSilhouetteCmd.Flags().IntSliceVar(&clusterKs, "ks", nil, "cluster counts to score (default from config cluster.silhouette_range)")
}
