package survey

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeQuestions(t *testing.T) {
	r, _ := newTestRunner(t)
	writeSurvey(t, r)

	require.NoError(t, r.Describe())
	res := loadOutput(t, r, "survey_descriptives.csv")
	assert.Equal(t, []string{"Question", "Option", "Count", "Percentage", "Mean", "Std", "Min", "Max"}, res.Names())
	require.Equal(t, 5, res.Len())

	urban := rowWhere(t, res, "Q32", "Urban")
	assert.Equal(t, 12.0, number(t, urban["Count"]))
	assert.Equal(t, 50.0, number(t, urban["Percentage"]))
	assert.Empty(t, urban["Mean"])

	yes := rowWhere(t, res, "Q11", "Yes")
	assert.Equal(t, 11.0, number(t, yes["Count"]))
	assert.Equal(t, 45.8, number(t, yes["Percentage"]))
	assert.Equal(t, 54.2, number(t, rowWhere(t, res, "Q11", "No")["Percentage"]))

	likert := rowWhere(t, res, "Q6", "")
	assert.Equal(t, 24.0, number(t, likert["Count"]))
	assert.InDelta(t, 70.0/24, number(t, likert["Mean"]), 1e-9)
	assert.Equal(t, 1.0, number(t, likert["Min"]))
	assert.Equal(t, 5.0, number(t, likert["Max"]))
	assert.Empty(t, likert["Percentage"])
}

func TestDemographicsComparesGroups(t *testing.T) {
	r, out := newTestRunner(t)
	writeSurvey(t, r)

	require.NoError(t, r.Demographics("q32"))
	assert.Contains(t, out.String(), "Groups detected for q32:")
	assert.Contains(t, out.String(), "  Rural: 12")
	assert.Contains(t, out.String(), "  Urban: 12")

	res := loadOutput(t, r, "demographics_by_q32.csv")
	assert.Equal(t, []string{"Question", "Group", "Option", "Measure", "Value"}, res.Names())
	assert.Equal(t, 25.0, number(t, rowWhere(t, res, "Q11", "Urban", "Yes", "percentage")["Value"]))
	assert.Equal(t, 75.0, number(t, rowWhere(t, res, "Q11", "Urban", "No", "percentage")["Value"]))
	assert.Equal(t, 66.7, number(t, rowWhere(t, res, "Q11", "Rural", "Yes", "percentage")["Value"]))
	assert.Equal(t, 33.3, number(t, rowWhere(t, res, "Q11", "Rural", "No", "percentage")["Value"]))
	assert.Equal(t, 100.0, number(t, rowWhere(t, res, "Q32", "Rural", "Rural", "percentage")["Value"]))
	assert.InDelta(t, 2.75, number(t, rowWhere(t, res, "Q6", "Urban", "", "mean")["Value"]), 1e-9)
	assert.InDelta(t, 37.0/12, number(t, rowWhere(t, res, "Q6", "Rural", "", "mean")["Value"]), 1e-9)

	for _, q := range []string{"Q32", "Q6", "Q11"} {
		assert.FileExists(t, r.path("demographics_"+q+"_by_q32.png"))
	}
}

func TestDemographicsUnknownKeyword(t *testing.T) {
	r, out := newTestRunner(t)
	writeSurvey(t, r)

	require.NoError(t, r.Demographics("Q99"))
	assert.Contains(t, out.String(), "no demographic columns found for keyword: Q99")
	assert.NoFileExists(t, r.path("demographics_by_Q99.csv"))
}

func TestIdxMax(t *testing.T) {
	cols := []*dataset.Column{
		{Name: "a", Levels: []string{"demographic", "Q1", "A"}, Cells: []string{"1", "0", "", "0.2"}},
		{Name: "b", Levels: []string{"demographic", "Q1", "B"}, Cells: []string{"1", "1", "", "0.7"}},
	}
	// Ties go to the first column, rows without values stay unlabelled.
	assert.Equal(t, []string{"A", "B", "", "B"}, idxMax(cols, 4))
}

func TestAssociateSkipsLikertItems(t *testing.T) {
	r, out := newTestRunner(t)
	writeSurvey(t, r)

	require.NoError(t, r.Associate())
	assert.Contains(t, out.String(), "Running apriori on 4 items x 24 responses")
	assert.FileExists(t, r.path("frequent_itemsets_top.png"))

	sets := loadOutput(t, r, "frequent_itemsets_2plus.csv")
	require.Greater(t, sets.Len(), 0)
	itemsets, err := sets.Strings("itemsets")
	require.NoError(t, err)
	paired := false
	for _, s := range itemsets {
		assert.NotContains(t, s, "Q6")
		if strings.Contains(s, "demographic_Q32_Urban") && strings.Contains(s, "knowledge_Q11_No") {
			paired = true
		}
	}
	assert.True(t, paired, "Urban and No co-occur in 9 of 24 responses")

	rules := loadOutput(t, r, "frequent_itemsets_rules.csv")
	require.Greater(t, rules.Len(), 0)
	lift, err := rules.Numeric("lift")
	require.NoError(t, err)
	for _, l := range lift {
		assert.GreaterOrEqual(t, l, r.Cfg.Apriori.MinLift)
	}
}

func TestRelationshipsReportsMissingAndFailedTests(t *testing.T) {
	r, _ := newTestRunner(t)
	lines := append([]string{"Binary survey export,,,", "exported 2024,,,"}, rows("respondent_id,A,B,E", func(i int) string {
		return id(i) + "," + []string{"0", "1"}[i%2] + "," + []string{"0", "1"}[i%2] + ","
	})...)
	writeData(t, r, r.Cfg.Files.SurveyBinary, lines)
	writeData(t, r, r.Cfg.Files.Comparisons, []string{
		"Antecedent,Consequent_1,Consequent_2",
		"A,B,Missing",
		"A,E,",
	})

	require.NoError(t, r.Relationships())
	res := loadOutput(t, r, "relationship_tests.csv")
	require.Equal(t, 3, res.Len())

	ok := rowWhere(t, res, "A", "B")
	assert.Equal(t, "Chi-square", ok["Test"])
	assert.Equal(t, "True", ok["Significant"])
	assert.Equal(t, "OK", ok["Note"])
	assert.Less(t, number(t, ok["p-value"]), 0.001)

	missing := rowWhere(t, res, "A", "Missing")
	assert.Equal(t, "Column missing", missing["Note"])
	assert.Equal(t, "False", missing["Significant"])
	assert.Empty(t, missing["Chi2"])

	failed := rowWhere(t, res, "A", "E")
	assert.Equal(t, "ERROR", failed["Test"])
	assert.Contains(t, failed["Note"], "empty contingency table")
}
