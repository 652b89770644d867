// Package factor implements exploratory and confirmatory factor analysis.
package factor

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/dkap-cli/internal/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrSingularMatrix is returned when a correlation or covariance matrix
// cannot be inverted.
var ErrSingularMatrix = errors.New("matrix is singular")

// KMOResult is the Kaiser-Meyer-Olkin measure of sampling adequacy.
type KMOResult struct {
	PerItem []float64
	Overall float64
}

// KMO compares squared correlations with squared partial correlations.
func KMO(cols [][]float64) (KMOResult, error) {
	corr := stats.CorrMatrix(cols)
	p := corr.SymmetricDim()
	inv, err := invert(corr)
	if err != nil {
		return KMOResult{}, fmt.Errorf("kmo: %w", err)
	}
	per := make([]float64, p)
	var sumR, sumA float64
	for j := 0; j < p; j++ {
		var r2, a2 float64
		for i := 0; i < p; i++ {
			if i == j {
				continue
			}
			r := corr.At(i, j)
			a := -inv.At(i, j) / math.Sqrt(inv.At(i, i)*inv.At(j, j))
			r2 += r * r
			a2 += a * a
		}
		per[j] = r2 / (r2 + a2)
		sumR += r2
		sumA += a2
	}
	return KMOResult{PerItem: per, Overall: sumR / (sumR + sumA)}, nil
}

// BartlettResult is Bartlett's test of sphericity.
type BartlettResult struct {
	Chi2 float64
	Dof  float64
	P    float64
}

// Bartlett tests whether the correlation matrix is an identity matrix. The
// sample size is the column length.
func Bartlett(cols [][]float64) (BartlettResult, error) {
	if len(cols) == 0 {
		return BartlettResult{}, fmt.Errorf("bartlett: no columns: %w", stats.ErrInsufficientData)
	}
	n := float64(len(cols[0]))
	corr := stats.CorrMatrix(cols)
	p := float64(corr.SymmetricDim())
	det := mat.Det(corr)
	if det <= 0 || math.IsNaN(det) {
		return BartlettResult{}, fmt.Errorf("bartlett: determinant %g: %w", det, ErrSingularMatrix)
	}
	chi2 := -math.Log(det) * (n - 1 - (2*p+5)/6)
	dof := p * (p - 1) / 2
	return BartlettResult{
		Chi2: chi2,
		Dof:  dof,
		P:    distuv.ChiSquared{K: dof}.Survival(chi2),
	}, nil
}

// Eigenvalues returns the eigenvalues of a symmetric matrix in descending order.
func Eigenvalues(m mat.Symmetric) ([]float64, error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(m, false); !ok {
		return nil, fmt.Errorf("eigen decomposition failed")
	}
	vals := eig.Values(nil)
	sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
	return vals, nil
}

// invert inverts m, tolerating ill-conditioned but finite inverses.
func invert(m mat.Matrix) (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, ErrSingularMatrix
		}
	}
	return &inv, nil
}

// imputeMedian replaces NaN cells with the column median.
func imputeMedian(cols [][]float64) [][]float64 {
	out := make([][]float64, len(cols))
	for j, c := range cols {
		med := stats.Median(c)
		out[j] = make([]float64, len(c))
		for i, v := range c {
			if math.IsNaN(v) {
				v = med
			}
			out[j][i] = v
		}
	}
	return out
}
