package cluster

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func separated() ([][]float64, [][]string) {
	num := [][]float64{{1.0}, {1.2}, {0.8}, {1.1}, {9.0}, {9.3}, {8.8}, {9.1}}
	cat := [][]string{{"1", "0"}, {"1", "0"}, {"1", "0"}, {"1", "1"}, {"0", "1"}, {"0", "1"}, {"0", "1"}, {"0", "0"}}
	return num, cat
}

func TestKPrototypesSeparatesGroups(t *testing.T) {
	num, cat := separated()
	res, err := KPrototypes(num, cat, Options{K: 2, Seed: 42})
	require.NoError(t, err)
	require.Len(t, res.Labels, 8)

	for i := 1; i < 4; i++ {
		assert.Equal(t, res.Labels[0], res.Labels[i])
		assert.Equal(t, res.Labels[4], res.Labels[4+i])
	}
	assert.NotEqual(t, res.Labels[0], res.Labels[4])
	assert.Equal(t, []int{4, 4}, res.Sizes())
	assert.True(t, res.Cost > 0)
	assert.Len(t, res.CatCentroids[0], 2)

	again, err := KPrototypes(num, cat, Options{K: 2, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, res.Labels, again.Labels)
	assert.Equal(t, res.Cost, again.Cost)
}

func TestKPrototypesGammaDefault(t *testing.T) {
	num := [][]float64{{0, 10}, {2, 10}, {0, 14}, {2, 14}}
	cat := [][]string{{"a"}, {"a"}, {"b"}, {"b"}}
	res, err := KPrototypes(num, cat, Options{K: 2, NInit: 2})
	require.NoError(t, err)
	// population std is 1 and 2, so gamma = 0.5 * 1.5
	assert.InDelta(t, 0.75, res.Gamma, 1e-12)

	_, err = KPrototypes(nil, [][]string{{"a"}, {"b"}}, Options{K: 2})
	assert.NoError(t, err)
}

func TestKPrototypesValidation(t *testing.T) {
	num, cat := separated()
	_, err := KPrototypes(num, cat, Options{K: 9})
	assert.Error(t, err)
	_, err = KPrototypes(num, cat[:3], Options{K: 2})
	assert.Error(t, err)
	num[2][0] = math.NaN()
	_, err = KPrototypes(num, cat, Options{K: 2})
	assert.Error(t, err)
}

func TestIsPrototypeChecksEveryOtherPrototype(t *testing.T) {
	r := &run{cCat: [][]int{{0, 0}, {1, 1}, {0, 1}}}
	assert.True(t, r.isPrototype([]int{1, 1}, 0))
	assert.False(t, r.isPrototype([]int{1, 1}, 1))
	// Prototypes after the skipped one count too.
	assert.True(t, r.isPrototype([]int{0, 1}, 1))
	assert.False(t, r.isPrototype([]int{1, 0}, 2))
}

func TestInitCentroidsDistinctPrototypes(t *testing.T) {
	cat := [][]string{
		{"a", "x"}, {"a", "x"}, {"a", "y"}, {"a", "y"},
		{"b", "x"}, {"b", "x"}, {"b", "y"}, {"b", "y"},
	}
	d := newData(nil, cat, len(cat))
	for seed := int64(1); seed <= 50; seed++ {
		r := &run{data: d, k: 3, rng: rand.New(rand.NewSource(seed))}
		r.initCentroids()
		for a := 0; a < r.k; a++ {
			for b := a + 1; b < r.k; b++ {
				assert.NotZero(t, mismatches(r.cCat[a], r.cCat[b]), "seed %d: prototypes %d and %d coincide", seed, a, b)
			}
		}
	}
}

func TestSilhouetteAndDaviesBouldin(t *testing.T) {
	x := [][]float64{{0}, {1}, {10}, {11}}
	labels := []int{0, 0, 1, 1}

	s, err := Silhouette(x, labels)
	require.NoError(t, err)
	want := (9.5/10.5 + 8.5/9.5) / 2
	assert.InDelta(t, want, s, 1e-12)

	dbi, err := DaviesBouldin(x, labels)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, dbi, 1e-12)

	_, err = Silhouette(x, []int{0, 0, 0, 0})
	assert.True(t, errors.Is(err, ErrLabelCount))
	_, err = DaviesBouldin(x, []int{0, 1, 2, 3})
	assert.True(t, errors.Is(err, ErrLabelCount))
}

func TestSilhouetteSingleton(t *testing.T) {
	x := [][]float64{{0}, {2}, {10}}
	s, err := Silhouette(x, []int{0, 0, 1})
	require.NoError(t, err)
	// point 0: a=2, b=10; point 1: a=2, b=8; singleton scores 0
	assert.InDelta(t, (0.8+0.75)/3, s, 1e-12)
}

func TestSplitAndOneHot(t *testing.T) {
	tbl := dataset.New("k", "respondent_id", "Knowledge_score", "gender_F", "age_18")
	tbl.Append("r1", 3.5, 1, 0)
	tbl.Append("r2", 4.0, 0, 1)
	tbl.Append("r3", 2.0, "1.0", 1)

	numeric, categorical := SplitColumns(tbl, "respondent_id")
	assert.Equal(t, []string{"Knowledge_score"}, numeric)
	assert.Equal(t, []string{"gender_F", "age_18"}, categorical)

	num, cat, err := Matrices(tbl, numeric, categorical)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1"}, cat[2])

	enc, err := OneHot(numeric, num, categorical, cat)
	require.NoError(t, err)
	assert.Equal(t, []string{"Knowledge_score", "gender_F_0", "gender_F_1", "age_18_0", "age_18_1"}, enc.Names)
	assert.Equal(t, []float64{4.0, 1, 0, 0, 1}, enc.Rows[1])
}
