package survey

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateClusters(t *testing.T) {
	r, out := newTestRunner(t)
	writeKnowledge(t, r)

	require.NoError(t, r.EvaluateClusters([]int{2, 3}))
	assert.Contains(t, out.String(), "--- Evaluating 3 clusters ---")
	assert.FileExists(t, r.path("cluster_evaluation.png"))

	res := loadOutput(t, r, "cluster_evaluation.csv")
	assert.Equal(t, []string{"k", "Inertia (WCSS)", "Davies-Bouldin Index"}, res.Names())
	require.Equal(t, 2, res.Len())
	ks, err := res.Strings("k")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ks)
	wcss, err := res.Numeric("Inertia (WCSS)")
	require.NoError(t, err)
	dbi, err := res.Numeric("Davies-Bouldin Index")
	require.NoError(t, err)
	for i := range ks {
		assert.Greater(t, wcss[i], 0.0)
		assert.False(t, math.IsNaN(dbi[i]))
	}
}

func TestSilhouettePicksSeparatedK(t *testing.T) {
	r, out := newTestRunner(t)
	// Two knowledge groups seven points apart.
	writeKnowledge(t, r)

	require.NoError(t, r.Silhouette([]int{2, 3, 4}))
	assert.Contains(t, out.String(), "Silhouette Score for 2 clusters:")
	assert.FileExists(t, r.path("silhouette_scores.png"))

	res := loadOutput(t, r, "silhouette_scores.csv")
	require.Equal(t, 3, res.Len())
	ks, err := res.Strings("k")
	require.NoError(t, err)
	scores, err := res.Numeric("Silhouette Score")
	require.NoError(t, err)
	best := 0
	for i, s := range scores {
		assert.LessOrEqual(t, s, 1.0)
		if s > scores[best] {
			best = i
		}
	}
	assert.Equal(t, "2", ks[best])
	assert.Greater(t, scores[best], 0.5)
}

func TestSilhouetteMissingKnowledge(t *testing.T) {
	r, _ := newTestRunner(t)
	assert.Error(t, r.Silhouette(nil))
	assert.NoFileExists(t, r.path("silhouette_scores.csv"))
}
