package survey

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var awarenessItemNames = []string{"Q8", "Q9", "Q10", "Q14", "Q19", "Q21", "Q24", "Q29"}

// writeAwarenessQuestions simulates n respondents answering the eight
// awareness items: Q8-Q10, Q14-Q21 and Q24-Q29 each load on their own
// correlated factor.
func writeAwarenessQuestions(t *testing.T, r *Runner, n int) {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	factorOf := []int{0, 0, 0, 1, 1, 1, 2, 2}
	lines := []string{"respondent_id," + strings.Join(awarenessItemNames, ",")}
	for i := 0; i < n; i++ {
		f := make([]float64, 3)
		f[0] = rng.NormFloat64()
		f[1] = 0.3*f[0] + math.Sqrt(0.91)*rng.NormFloat64()
		f[2] = 0.3*f[1] + math.Sqrt(0.91)*rng.NormFloat64()
		cells := []string{id(i)}
		for j := range awarenessItemNames {
			cells = append(cells, fmt.Sprintf("%.3f", 3+0.8*f[factorOf[j]]+0.6*rng.NormFloat64()))
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	writeData(t, r, r.Cfg.Files.AwarenessQuestions, lines)
}

func TestEFAScoresFeedPostprocessAndReport(t *testing.T) {
	r, out := newTestRunner(t)
	writeAwarenessQuestions(t, r, 200)
	writeKnowledgeClusters(t, r, respondents)

	require.NoError(t, r.EFA(3))
	assert.FileExists(t, r.path("scree_plot.png"))

	console := out.String()
	start := strings.Index(console, "Factor Loadings")
	end := strings.Index(console, "Variance Explained by Each Factor")
	require.True(t, start >= 0 && end > start, "loadings table printed before the variance table")
	loadings := console[start:end]
	assert.Contains(t, strings.ToUpper(loadings), "ITEM")
	for _, it := range awarenessItemNames {
		assert.Contains(t, loadings, it)
	}

	load := loadOutput(t, r, "EFA_factor_loadings.csv")
	assert.Equal(t, []string{"Unnamed: 0", "Factor1", "Factor2", "Factor3"}, load.Names())
	items, err := load.Strings("Unnamed: 0")
	require.NoError(t, err)
	assert.Equal(t, awarenessItemNames, items)

	variance := loadOutput(t, r, "EFA_variance_explained.csv")
	require.Equal(t, 3, variance.Len())
	pct, err := variance.Numeric("Variance Explained (%)")
	require.NoError(t, err)
	for _, p := range pct {
		assert.Greater(t, p, 0.0)
	}

	scores := loadOutput(t, r, r.Cfg.Files.FactorScores)
	assert.Equal(t, []string{"respondent_id", "Factor1", "Factor2", "Factor3"}, scores.Names())
	assert.Equal(t, 200, scores.Len())

	require.NoError(t, r.AwarenessPostprocess())
	norm := loadOutput(t, r, postprocessPrefix+"_normalized_scores.csv")
	f1, err := norm.Numeric("factor1_norm")
	require.NoError(t, err)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range f1 {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	merged := loadOutput(t, r, postprocessPrefix+"_merged.csv")
	assert.Equal(t, 200, merged.Len())
	assert.True(t, merged.Has(colKnowledge))
	assert.True(t, merged.Has(colCluster))
	assert.Contains(t, out.String(), "demographic.csv not found")

	corr := loadOutput(t, r, postprocessPrefix+"_knowledge_correlations.csv")
	factors, err := corr.Strings("Unnamed: 0")
	require.NoError(t, err)
	assert.Equal(t, []string{"factor1_norm", "factor2_norm", "factor3_norm"}, factors)
	for _, f := range factors {
		assert.FileExists(t, r.path(postprocessPrefix+"_"+f+"_by_cluster.png"))
		assert.FileExists(t, r.path(postprocessPrefix+"_"+f+"_regression.txt"))
	}
	assert.FileExists(t, r.path(postprocessPrefix+"_distributions.png"))

	require.NoError(t, r.AwarenessFactorReport())
	assert.FileExists(t, r.path("awareness_analysis_report.pdf"))
	require.NoError(t, r.Finish())
}

func TestPostprocessSkipsSmallRegressions(t *testing.T) {
	r, out := newTestRunner(t)
	writeData(t, r, r.Cfg.Files.FactorScores, rows("respondent_id,factor1,factor2,factor3", func(i int) string {
		return fmt.Sprintf("%s,%d,%d,%d", id(i), (i*5)%11, (i*7+3)%11, (i*3+1)%11)
	}))
	writeKnowledgeClusters(t, r, 8)

	require.NoError(t, r.AwarenessPostprocess())
	for _, f := range []string{"factor1_norm", "factor2_norm", "factor3_norm"} {
		assert.Contains(t, out.String(), fmt.Sprintf("Skipping regression for %s due to small N=8", f))
		assert.NoFileExists(t, r.path(postprocessPrefix+"_"+f+"_regression.txt"))
	}
	assert.FileExists(t, r.path(postprocessPrefix+"_knowledge_correlations.csv"))
	assert.FileExists(t, r.path(postprocessPrefix+"_factor1_norm_by_cluster.png"))
}

func TestPostprocessWithoutKnowledge(t *testing.T) {
	r, out := newTestRunner(t)
	writeData(t, r, r.Cfg.Files.FactorScores, rows("respondent_id,factor1,factor2,factor3", func(i int) string {
		return fmt.Sprintf("%s,%d,%d,%d", id(i), (i*5)%11, (i*7+3)%11, (i*3+1)%11)
	}))

	require.NoError(t, r.AwarenessPostprocess())
	assert.Contains(t, out.String(), "knowledge_score column not found; skipping correlations with knowledge")
	assert.Contains(t, out.String(), "knowledge_score not found; skipping regression analyses")
	assert.NoFileExists(t, r.path(postprocessPrefix+"_knowledge_correlations.csv"))
}

func TestCFAWritesFitAndEstimates(t *testing.T) {
	r, out := newTestRunner(t)
	writeAwarenessQuestions(t, r, 300)

	require.NoError(t, r.CFA(""))
	assert.Contains(t, out.String(), "CFA fit statistics")

	fit := loadOutput(t, r, "awareness_cfa_fit.csv")
	require.Equal(t, 1, fit.Len())
	assert.Equal(t, "Value", fit.Row(0)[0])
	// 7 indicators: 28 moments, 4 free loadings, 6 factor (co)variances, 7 residuals.
	dof, err := fit.Numeric("DoF")
	require.NoError(t, err)
	assert.Equal(t, 11.0, dof[0])
	cfi, err := fit.Numeric("CFI")
	require.NoError(t, err)
	assert.Greater(t, cfi[0], 0.9)

	est := loadOutput(t, r, "awareness_cfa_estimates.csv")
	require.Equal(t, 20, est.Len())
	assert.Equal(t, []string{"Q24", "~", "F1_env_implications", "1", "-", "-", "-"}, est.Row(0))
	free := rowWhere(t, est, "Q29", "~", "F1_env_implications")
	assert.Greater(t, number(t, free["Estimate"]), 0.0)
	assert.Greater(t, number(t, free["Std. Err"]), 0.0)

	assert.FileExists(t, r.path("awareness_cfa_model.dot"))
}

func TestCFARejectsBadModel(t *testing.T) {
	r, _ := newTestRunner(t)
	writeAwarenessQuestions(t, r, 50)
	assert.Error(t, r.CFA("F1 =~ Q8"))
	assert.Error(t, r.CFA("F1 =~ Q8 + Q99"))
}
