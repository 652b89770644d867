package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	corr := dataset.New("corr", "Question", "Pearson r", "p-value")
	corr.Append("Q8", 0.12, 0.04)
	corr.Append("Q9", nil, "")
	clusters := dataset.New("clusters", "respondent_id", "Cluster")
	clusters.Append(1, 0)
	clusters.Append(2, 1)

	path := filepath.Join(t.TempDir(), "dkap.sqlite")
	names, err := Export(context.Background(), path, []Table{
		{Name: "awareness_question_correlations.csv", Table: corr},
		{Name: "clusters.csv", Table: clusters},
		{Name: "Clusters", Table: clusters},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"awareness_question_correlations", "clusters", "clusters_2"}, names)

	// Re-exporting replaces tables instead of appending rows.
	_, err = Export(context.Background(), path, []Table{{Name: "clusters.csv", Table: clusters}})
	require.NoError(t, err)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM clusters`).Scan(&n))
	assert.Equal(t, 2, n)

	var r float64
	require.NoError(t, db.QueryRow(`SELECT "Pearson r" FROM awareness_question_correlations WHERE Question = 'Q8'`).Scan(&r))
	assert.InDelta(t, 0.12, r, 1e-12)

	var missing sql.NullFloat64
	require.NoError(t, db.QueryRow(`SELECT "Pearson r" FROM awareness_question_correlations WHERE Question = 'Q9'`).Scan(&missing))
	assert.False(t, missing.Valid)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "attitude_tukey", TableName("Attitude Tukey.csv"))
	assert.Equal(t, "t_2024_export", TableName("2024-export"))
	assert.Equal(t, "t", TableName("***"))
	assert.Equal(t, "scale_reliability_analysis", TableName("scale_reliability_analysis.csv"))
}
