package survey

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwarenessDescriptives(t *testing.T) {
	r, out := newTestRunner(t)
	writeData(t, r, r.Cfg.Files.AwarenessSubscales, rows("respondent_id,AW1,AW2", func(i int) string {
		skewed := 0.5
		if i >= 20 {
			skewed = float64(i-18) * 1.2
		}
		return fmt.Sprintf("%s,%.2f,%.2f", id(i), 1+float64((i*7)%9)/2, skewed)
	}))

	require.NoError(t, r.AwarenessDescriptives())
	assert.Contains(t, out.String(), "Interpretation tip:")
	assert.FileExists(t, r.path("awareness_distributions.png"))

	res := loadOutput(t, r, "awareness_descriptive_summary.csv")
	require.Equal(t, 2, res.Len())
	groups, err := res.Strings("Awareness Group")
	require.NoError(t, err)
	assert.Equal(t, []string{"AW1", "AW2"}, groups)
	assert.Equal(t, "No", rowWhere(t, res, "AW2")["Normality"])
	assert.Greater(t, number(t, rowWhere(t, res, "AW2")["Skewness"]), 1.0)
}

func TestAwarenessClustersTukeyOnlyWhenSignificant(t *testing.T) {
	r, out := newTestRunner(t)
	writeSplitNorm(t, r, r.Cfg.Files.AwarenessNorm, []string{"Q8"}, []string{"Q9", "Q10"})
	writeKnowledgeClusters(t, r, respondents)

	require.NoError(t, r.AwarenessClusters())
	assert.Contains(t, out.String(), "✓ Data merged successfully: 24 respondents")

	corr := loadOutput(t, r, "awareness_question_correlations.csv")
	questions, err := corr.Strings("Question")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q8", "Q9", "Q10"}, questions)
	assert.Greater(t, number(t, rowWhere(t, corr, "Q8")["Pearson_r"]), 0.9)

	anova := loadOutput(t, r, "awareness_anova_results.csv")
	require.Equal(t, 3, anova.Len())
	assert.Less(t, number(t, rowWhere(t, anova, "Q8")["p_value"]), r.Cfg.Alpha)
	assert.Greater(t, number(t, rowWhere(t, anova, "Q9")["p_value"]), 0.5)

	tukey := loadOutput(t, r, "awareness_Q8_tukey.csv")
	require.Equal(t, 1, tukey.Len())
	assert.Equal(t, []string{"0", "1"}, tukey.Row(0)[:2])
	assert.Equal(t, "True", rowWhere(t, tukey, "0", "1")["reject"])
	assert.NoFileExists(t, r.path("awareness_Q9_tukey.csv"))
	assert.NoFileExists(t, r.path("awareness_Q10_tukey.csv"))

	for _, q := range questions {
		assert.FileExists(t, r.path("awareness_"+q+"_by_cluster.png"))
	}
	assert.FileExists(t, r.path("awareness_question_regressions.txt"))

	require.NoError(t, r.AwarenessReport())
	assert.FileExists(t, r.path("awareness_summary_report.pdf"))
}

func TestAwarenessReportNeedsClusterResults(t *testing.T) {
	r, _ := newTestRunner(t)
	assert.Error(t, r.AwarenessReport())
	assert.NoFileExists(t, r.path("awareness_summary_report.pdf"))
}

func TestAttitudeAnalyzeAndReport(t *testing.T) {
	r, out := newTestRunner(t)
	writeSplitNorm(t, r, r.Cfg.Files.AttitudeNorm, []string{"Q2"}, []string{"Q3", "Q4"})
	writeSplitNorm(t, r, r.Cfg.Files.AwarenessNorm, []string{"Q8"}, []string{"Q9"})
	writeKnowledgeClusters(t, r, respondents)

	require.NoError(t, r.AttitudeAnalyze())
	assert.Contains(t, out.String(), "Post-hoc Tukey for Q2:")

	corr := loadOutput(t, r, "attitude_correlations.csv")
	assert.Equal(t, 6, corr.Len())
	assert.Greater(t, number(t, rowWhere(t, corr, "Knowledge", "Q2")["Pearson_r"]), 0.9)
	rowWhere(t, corr, "Awareness", "Q4")

	anova := loadOutput(t, r, "attitude_anova_results.csv")
	require.Equal(t, 3, anova.Len())
	assert.Less(t, number(t, rowWhere(t, anova, "Q2")["p_value"]), r.Cfg.Alpha)
	assert.FileExists(t, r.path("attitude_Q2_tukey.csv"))
	assert.NoFileExists(t, r.path("attitude_Q3_tukey.csv"))
	assert.NoFileExists(t, r.path("attitude_Q4_tukey.csv"))
	for _, q := range []string{"Q2", "Q3", "Q4"} {
		assert.FileExists(t, r.path("attitude_"+q+"_by_cluster.png"))
	}

	require.NoError(t, r.AttitudeReport())
	res := loadOutput(t, r, "attitude_correlation_results.csv")
	refs, err := res.Strings("Reference")
	require.NoError(t, err)
	assert.Equal(t, []string{"Knowledge", "Awareness"}, refs)
	assert.Greater(t, number(t, rowWhere(t, res, "Awareness")["Pearson_r"]), 0.0)
	for _, name := range []string{"attitude_scatter_matrix.png", "attitude_cluster_heatmap.png", "attitude_summary_report.pdf"} {
		assert.FileExists(t, r.path(name))
	}
	require.NoError(t, r.Finish())
}
