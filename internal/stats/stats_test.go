package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	s := Describe([]float64{4, math.NaN(), 1, 3, 2})
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.Std, 1e-12)
	assert.InDelta(t, 1.75, s.Q25, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.InDelta(t, 3.25, s.Q75, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)

	empty := Describe(nil)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))
}

func TestMoments(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 0, Skew(x), 1e-12)
	assert.InDelta(t, -1.3, Kurtosis(x), 1e-12)
	assert.True(t, Skew([]float64{1, 2, 10}) > 0)
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, MinMax([]float64{2, 3, 4}))
	assert.Equal(t, []float64{0, 0}, MinMax([]float64{7, 7}))
	out := MinMax([]float64{1, math.NaN(), 3})
	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, 1.0, out[2])
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.235, Round(1.23456, 3))
	assert.Equal(t, -2.0, Round(-1.5, 0))
}

func TestPearson(t *testing.T) {
	c, err := Pearson([]float64{1, 2, 3, 4, 5, math.NaN()}, []float64{2, 4, 5, 4, 5, 1})
	require.NoError(t, err)
	assert.Equal(t, 5, c.N)
	assert.InDelta(t, 6/math.Sqrt(60), c.R, 1e-12)
	assert.InDelta(t, 0.1240, c.P, 1e-3)

	_, err = Pearson([]float64{1, 2}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInsufficientData)

	perfect, err := Pearson([]float64{1, 2, 3}, []float64{2, 4, 6})
	require.NoError(t, err)
	assert.InDelta(t, 1, perfect.R, 1e-12)
	assert.True(t, perfect.P < 1e-6)
}

func TestCorrMatrix(t *testing.T) {
	m := CorrMatrix([][]float64{{1, 2, 3}, {3, 2, 1}, {1, 2, 4}})
	assert.InDelta(t, -1, m.At(0, 1), 1e-12)
	assert.Equal(t, 1.0, m.At(2, 2))
	assert.Equal(t, m.At(0, 2), m.At(2, 0))
}

func TestOneWayAnova(t *testing.T) {
	a, err := OneWay([][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	require.NoError(t, err)
	assert.InDelta(t, 54, a.SSBetween, 1e-12)
	assert.InDelta(t, 6, a.SSWithin, 1e-12)
	assert.InDelta(t, 27, a.F, 1e-9)
	assert.InDelta(t, 0.001, a.P, 1e-9)

	tbl := a.Table("C(cluster)")
	require.Len(t, tbl, 2)
	assert.Equal(t, "Residual", tbl[1].Source)
	assert.True(t, math.IsNaN(tbl[1].F))

	_, err = OneWay([][]float64{{1, 2}, {}})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestStudentizedRange(t *testing.T) {
	// Published critical values of q at alpha = 0.05.
	assert.InDelta(t, 4.339, QTukey(0.95, 3, 6), 0.01)
	assert.InDelta(t, 3.151, QTukey(0.95, 2, 10), 0.01)
	assert.InDelta(t, 3.958, QTukey(0.95, 4, 20), 0.01)
	assert.InDelta(t, 0.05, PTukeyUpper(QTukey(0.95, 5, 30), 5, 30), 1e-6)
	assert.Equal(t, 0.0, PTukey(0, 1, 3, 10))
}

func TestTukeyHSD(t *testing.T) {
	pairs, err := TukeyHSD([]string{"0", "1", "2"}, [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}, 0.05)
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, "0", pairs[0].Group1)
	assert.Equal(t, "1", pairs[0].Group2)
	assert.InDelta(t, 3, pairs[0].MeanDiff, 1e-12)
	assert.InDelta(t, 6, pairs[1].MeanDiff, 1e-12)
	assert.True(t, pairs[1].Reject)
	assert.True(t, pairs[1].PAdj < 0.01)
	for _, p := range pairs {
		assert.True(t, p.Lower < p.MeanDiff && p.MeanDiff < p.Upper)
	}
}

func TestShapiroWilk(t *testing.T) {
	r, err := ShapiroWilk([]float64{1, 2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.9642857, r.W, 1e-6)
	assert.InDelta(t, 0.6369, r.P, 1e-3)

	even := make([]float64, 20)
	for i := range even {
		even[i] = float64(i + 1)
	}
	r, err = ShapiroWilk(even)
	require.NoError(t, err)
	assert.True(t, r.W > 0.9)
	assert.True(t, r.P > 0.05)

	skewed := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 100}
	r, err = ShapiroWilk(skewed)
	require.NoError(t, err)
	assert.True(t, r.P < 0.001)

	_, err = ShapiroWilk([]float64{1, 2})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestChiSquareYates(t *testing.T) {
	res, err := ChiSquare(Contingency{Counts: [][]float64{{10, 20}, {30, 40}}})
	require.NoError(t, err)
	want := 2.25 * (1.0/12 + 1.0/18 + 1.0/28 + 1.0/42)
	assert.Equal(t, 1, res.Dof)
	assert.InDelta(t, want, res.Chi2, 1e-12)
	assert.InDelta(t, 0.504, res.P, 1e-3)
	assert.InDelta(t, math.Sqrt(want/100), res.CramersV, 1e-12)
}

func TestChiSquareEdgeCases(t *testing.T) {
	_, err := ChiSquare(Contingency{Counts: [][]float64{{0, 0}, {1, 2}}})
	assert.ErrorIs(t, err, ErrZeroExpected)

	res, err := ChiSquare(Contingency{Counts: [][]float64{{3, 4}}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Chi2)
	assert.Equal(t, 1.0, res.P)
	assert.True(t, math.IsNaN(res.CramersV))
}

func TestCrosstab(t *testing.T) {
	ct := Crosstab([]string{"1", "0", "1", "", "0"}, []string{"a", "b", "b", "a", "b"})
	assert.Equal(t, []string{"0", "1"}, ct.RowLabels)
	assert.Equal(t, []string{"a", "b"}, ct.ColLabels)
	assert.Equal(t, [][]float64{{0, 2}, {1, 1}}, ct.Counts)
}

func TestOLS(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{3.1, 4.9, 7.2, 8.8, 11.0}
	res, err := OLS("y", y, []string{"x"}, [][]float64{x})
	require.NoError(t, err)
	assert.Equal(t, []string{"const", "x"}, res.Names)
	assert.InDelta(t, 1.09, res.Coef[0], 1e-9)
	assert.InDelta(t, 1.97, res.Coef[1], 1e-9)
	assert.Equal(t, 3.0, res.DfResid)
	assert.Equal(t, 1.0, res.DfModel)
	assert.True(t, res.R2 > 0.99)
	assert.True(t, res.P[1] < 0.001)
	assert.InDelta(t, res.T[1]*res.T[1], res.F, 1e-6)
	assert.Contains(t, res.Summary(), "OLS Regression Results")
	assert.Contains(t, res.CoefTable(), "const")
}

func TestOLSRankDeficient(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	dup := []float64{2, 4, 6, 8, 10, 12}
	y := []float64{1, 3, 2, 5, 4, 6}
	res, err := OLS("y", y, []string{"x", "x2"}, [][]float64{x, dup})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.DfModel)
	assert.Equal(t, 4.0, res.DfResid)
}

func TestKDEIntegratesToOne(t *testing.T) {
	k := NewKDE([]float64{1, 2, 2, 3, 3, 3, 4, 4, 5})
	require.NotNil(t, k)
	xs, ys := k.Curve(400)
	area := 0.0
	for i := 1; i < len(xs); i++ {
		area += (xs[i] - xs[i-1]) * (ys[i] + ys[i-1]) / 2
	}
	assert.InDelta(t, 1, area, 0.01)
	assert.Nil(t, NewKDE([]float64{2, 2, 2}))
}
