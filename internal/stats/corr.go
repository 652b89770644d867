package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Correlation is a Pearson correlation with its two-sided p-value.
type Correlation struct {
	R float64
	P float64
	N int
}

// Pearson correlates the pairwise-complete values of x and y.
func Pearson(x, y []float64) (Correlation, error) {
	if len(x) != len(y) {
		return Correlation{}, fmt.Errorf("pearson: length mismatch %d != %d", len(x), len(y))
	}
	var a, b []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		a = append(a, x[i])
		b = append(b, y[i])
	}
	n := len(a)
	if n < 3 {
		return Correlation{N: n, R: math.NaN(), P: math.NaN()}, fmt.Errorf("pearson needs at least 3 pairs, got %d: %w", n, ErrInsufficientData)
	}
	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) {
		return Correlation{N: n, R: r, P: math.NaN()}, nil
	}
	r = math.Max(-1, math.Min(1, r))
	return Correlation{R: r, P: pearsonP(r, n), N: n}, nil
}

func pearsonP(r float64, n int) float64 {
	if math.Abs(r) == 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	st := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * st.Survival(math.Abs(t))
}

// CorrMatrix returns the pairwise-complete Pearson correlation matrix of the
// given columns. Constant columns give NaN off-diagonal entries.
func CorrMatrix(cols [][]float64) *mat.SymDense {
	k := len(cols)
	m := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		m.SetSym(i, i, 1)
		for j := i + 1; j < k; j++ {
			var a, b []float64
			for r := range cols[i] {
				if math.IsNaN(cols[i][r]) || math.IsNaN(cols[j][r]) {
					continue
				}
				a = append(a, cols[i][r])
				b = append(b, cols[j][r])
			}
			v := math.NaN()
			if len(a) > 1 {
				v = stat.Correlation(a, b, nil)
			}
			m.SetSym(i, j, v)
		}
	}
	return m
}
