package survey

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/KaramelBytes/dkap-cli/internal/config"
	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/study"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const respondents = 24

// newTestRunner loads the default configuration from an empty dkap.yaml in
// a temp study directory.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "dkap.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("cluster:\n  k: 2\n  n_init: 3\nplot_dpi: 40\n"), 0o644))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(cfg.DataPath(), 0o755))
	var buf bytes.Buffer
	r, err := NewRunner(cfg, nil, &buf, "test")
	require.NoError(t, err)
	return r, &buf
}

func writeData(t *testing.T, r *Runner, name string, lines []string) {
	t.Helper()
	body := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(r.Cfg.DataPath(), name), []byte(body), 0o644))
}

// rows renders one CSV line per respondent.
func rows(header string, line func(i int) string) []string {
	out := []string{header}
	for i := 0; i < respondents; i++ {
		out = append(out, line(i))
	}
	return out
}

func id(i int) string { return fmt.Sprintf("R%02d", i+1) }

func writeKnowledge(t *testing.T, r *Runner) {
	lines := append([]string{"Knowledge database,,,,"}, rows("respondent_id,knowledge_score,gender_male,gender_female,age_18_25", func(i int) string {
		score := float64(i%12)/4 + 1
		if i >= respondents/2 {
			score += 7
		}
		male := i % 2
		return fmt.Sprintf("%s,%g,%d,%d,%d", id(i), score, male, 1-male, (i/3)%2)
	})...)
	writeData(t, r, r.Cfg.Files.Knowledge, lines)
}

func writeNorm(t *testing.T, r *Runner, name string, items []string, seed int) {
	writeData(t, r, name, rows("respondent_id,"+strings.Join(items, ","), func(i int) string {
		cells := []string{id(i)}
		for j := range items {
			v := float64((i*7+j*3+seed)%10) / 10
			if i >= respondents/2 {
				v = (v + 1) / 2
			}
			cells = append(cells, fmt.Sprintf("%.2f", v))
		}
		return strings.Join(cells, ",")
	}))
}

func loadOutput(t *testing.T, r *Runner, name string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.Load(r.path(name), dataset.ReadOptions{})
	require.NoError(t, err)
	return tbl
}

// rowWhere returns the first row of tbl whose leading cells equal key, as a
// column name to cell map.
func rowWhere(t *testing.T, tbl *dataset.Table, key ...string) map[string]string {
	t.Helper()
	names := tbl.Names()
	for i := 0; i < tbl.Len(); i++ {
		row := tbl.Row(i)
		match := len(row) >= len(key)
		for j := 0; match && j < len(key); j++ {
			match = row[j] == key[j]
		}
		if match {
			out := make(map[string]string, len(names))
			for j, n := range names {
				out[n] = row[j]
			}
			return out
		}
	}
	t.Fatalf("%s has no row starting with %v", tbl.Name, key)
	return nil
}

func number(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err, "cell %q", s)
	return v
}

// writeSurvey writes a three-row-header export: a two-option demographic
// question (Urban for the first half), a Likert item and a yes/no item.
func writeSurvey(t *testing.T, r *Runner) {
	lines := []string{
		"respondent_id,demographic,demographic,knowledge,knowledge,knowledge",
		"respondent_id,Q32,Q32,Q6,Q11,Q11",
		"respondent_id,Urban,Rural,Score,Yes,No",
	}
	for i := 0; i < respondents; i++ {
		urban := 0
		if i < respondents/2 {
			urban = 1
		}
		yes := 0
		if i%4 == 0 || i >= 18 {
			yes = 1
		}
		lines = append(lines, fmt.Sprintf("%s,%d,%d,%d,%d,%d", id(i), urban, 1-urban, i%5+1, yes, 1-yes))
	}
	writeData(t, r, r.Cfg.Files.Survey, lines)
}

// writeKnowledgeClusters writes n respondents split into cluster 0 (first
// half, low scores) and cluster 1.
func writeKnowledgeClusters(t *testing.T, r *Runner, n int) {
	lines := []string{"respondent_id,knowledge_score,cluster"}
	for i := 0; i < n; i++ {
		c := 0
		if i >= n/2 {
			c = 1
		}
		lines = append(lines, fmt.Sprintf("%s,%g,%d", id(i), 2+0.5*float64(i%4)+6*float64(c), c))
	}
	writeData(t, r, r.Cfg.Files.KnowledgeClusters, lines)
}

// writeSplitNorm writes normalised items. The separated ones follow the
// knowledge clusters of writeKnowledgeClusters, the flat ones have the same
// distribution in both halves.
func writeSplitNorm(t *testing.T, r *Runner, name string, separated, flat []string) {
	header := append([]string{"respondent_id"}, separated...)
	header = append(header, flat...)
	writeData(t, r, name, rows(strings.Join(header, ","), func(i int) string {
		cells := []string{id(i)}
		for j := range separated {
			base := 0.1
			if i >= respondents/2 {
				base = 0.9
			}
			cells = append(cells, fmt.Sprintf("%.3f", base+0.01*float64(i%3)+0.005*float64(j)))
		}
		for j := range flat {
			cells = append(cells, fmt.Sprintf("%.3f", float64(i%6)/10+0.01*float64(j)))
		}
		return strings.Join(cells, ",")
	}))
}

func TestAlphaWritesKnowledgeReliability(t *testing.T) {
	r, out := newTestRunner(t)
	writeData(t, r, r.Cfg.Files.KnowledgeQuestions, rows("respondent_id,K1,K2,K3,K4", func(i int) string {
		cells := []string{id(i)}
		for j := 1; j <= 4; j++ {
			v := 0
			if i%8 >= j {
				v = 1
			}
			cells = append(cells, fmt.Sprint(v))
		}
		return strings.Join(cells, ",")
	}))

	require.NoError(t, r.Alpha())
	require.NoError(t, r.Finish())

	res := loadOutput(t, r, "knowledge_cronbach_alpha.csv")
	require.Equal(t, 1, res.Len())
	assert.Equal(t, []string{"Knowledge", "4"}, res.Row(0)[:2])
	alpha, err := res.Numeric("Cronbach_Alpha")
	require.NoError(t, err)
	assert.Greater(t, alpha[0], 0.5)
	assert.Contains(t, out.String(), "✓ Saved knowledge_cronbach_alpha.csv")

	st, err := study.Load(r.Cfg.OutputPath())
	require.NoError(t, err)
	arts := st.List(study.KindCSV)
	require.Len(t, arts, 1)
	assert.Equal(t, "test", arts[0].Command)
}

func TestAlphaGroupsSkipsShortGroups(t *testing.T) {
	r, out := newTestRunner(t)
	writeData(t, r, r.Cfg.Files.AwarenessQuestions, rows("respondent_id,Q8,Q9,Q10,Q14", func(i int) string {
		base := i%5 + 1
		return fmt.Sprintf("%s,%d,%d,%d,%d", id(i), base, min(base+i%2, 5), max(base-(i/2)%2, 1), (i*3)%5+1)
	}))

	require.NoError(t, r.AlphaGroups())

	res := loadOutput(t, r, "awareness_cronbach_alpha.csv")
	require.Equal(t, 1, res.Len())
	assert.Equal(t, "Water_contamination", res.Row(0)[0])
	assert.Contains(t, out.String(), "Skipping MPs_awareness")
}

func TestMissingInput(t *testing.T) {
	r, _ := newTestRunner(t)
	err := r.Alpha()
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestKnowledgeClustersFeedFinalAndPublication(t *testing.T) {
	r, out := newTestRunner(t)
	writeKnowledge(t, r)
	writeNorm(t, r, r.Cfg.Files.AwarenessNorm, []string{"Q8", "Q9", "Q10", "Q14"}, 1)
	writeNorm(t, r, r.Cfg.Files.AttitudeNorm, []string{"Q2", "Q3", "Q4"}, 4)

	require.NoError(t, r.ClusterKnowledge(0))
	slim := loadOutput(t, r, "knowledge_score_clusters.csv")
	assert.Equal(t, []string{"respondent_id", "knowledge_score", "cluster"}, slim.Names())
	assert.Equal(t, respondents, slim.Len())
	summary := loadOutput(t, r, "knowledge_cluster_summary.csv")
	assert.Equal(t, 2, summary.Len())
	assert.FileExists(t, r.path("demographics_clusters.png"))

	require.NoError(t, r.Final())
	for _, name := range []string{
		"dkap_descriptive_summary.csv", "dkap_correlations.csv", "dkap_anova_results.csv",
		"dkap_scatter_matrix.png", "dkap_cluster_heatmap.png", summaryReport,
	} {
		assert.FileExists(t, r.path(name))
	}
	desc := loadOutput(t, r, "dkap_descriptive_summary.csv")
	require.Equal(t, 8, desc.Len())
	assert.Equal(t, "count", desc.Row(0)[0])
	assert.Equal(t, fmt.Sprint(respondents), desc.Row(0)[1])
	assert.Contains(t, out.String(), "demographics_clean.csv not found")

	require.NoError(t, r.Publication())
	for _, name := range []string{
		"DKAP_cluster_profiles.png", "DKAP_Correlation_Heatmap.png",
		"DKAP_Publication_Extension.pdf", "DKAP_Publication_Report.pdf",
	} {
		assert.FileExists(t, r.path(name))
	}
	require.NoError(t, r.Finish())
}

func TestExportArtifacts(t *testing.T) {
	r, out := newTestRunner(t)
	writeKnowledge(t, r)
	require.NoError(t, r.ClusterKnowledge(2))

	require.NoError(t, r.ExportWorkbook("results.xlsx"))
	require.NoError(t, r.ExportSQLite(context.Background(), "results.sqlite"))
	assert.FileExists(t, r.path("results.xlsx"))
	assert.FileExists(t, r.path("results.sqlite"))
	assert.Contains(t, out.String(), "knowledge_score_clusters")

	assert.Len(t, r.Study.List(study.KindXLSX), 1)
	assert.Len(t, r.Study.List(study.KindDB), 1)

	out.Reset()
	r.Artifacts(study.KindCSV)
	assert.Contains(t, out.String(), "clusters.csv")
}

func TestExportWithoutArtifacts(t *testing.T) {
	r, _ := newTestRunner(t)
	err := r.ExportWorkbook("empty.xlsx")
	assert.ErrorIs(t, err, dataset.ErrEmptyTable)
}

func TestQuestionColumns(t *testing.T) {
	tbl := dataset.New("t", "respondent_id", "Q1", "Q12", "Qx", "gender_male", "Q")
	assert.Equal(t, []string{"Q1", "Q12"}, questionColumns(tbl))
	assert.Equal(t, []string{"gender_male"}, prefixed(tbl, []string{"gender_", "age_"}))
}
