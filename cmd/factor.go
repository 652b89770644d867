package cmd

import (
	"github.com/KaramelBytes/dkap-cli/internal/survey"
	"github.com/spf13/cobra"
)

var (
	efaFactors int
	cfaModel   string
)

var factorCmd = &cobra.Command{
	Use:   "factor",
	Short: "Exploratory and confirmatory factor analysis of the awareness items",
}

var factorEFACmd = &cobra.Command{
	Use:   "efa",
	Short: "KMO, Bartlett, scree plot, rotated loadings and factor scores",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, func(r *survey.Runner) error {
			return r.EFA(efaFactors)
		})
	},
}

var factorCFACmd = &cobra.Command{
	Use:   "cfa",
	Short: "Fit a measurement model and report fit indices and estimates",
	Long: `Fit a measurement model written in lavaan-style syntax, one latent per line:

  F1 =~ Q24 + Q29
  F2 =~ Q9 + Q10

The default model comes from config cfa_model.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, func(r *survey.Runner) error {
			return r.CFA(cfaModel)
		})
	},
}

func init() {
	rootCmd.AddCommand(factorCmd)
	factorCmd.AddCommand(factorEFACmd, factorCFACmd)
	factorEFACmd.Flags().IntVarP(&efaFactors, "factors", "n", 0, "number of factors (default from config efa.n_factors)")
	factorCFACmd.Flags().StringVar(&cfaModel, "model", "", "model description (default from config cfa_model)")
}
