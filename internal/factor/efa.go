package factor

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/dkap-cli/internal/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Rotation names accepted by FitEFA.
const (
	RotationNone    = "none"
	RotationVarimax = "varimax"
)

const (
	psiLower = 0.005
	psiUpper = 1.0
)

// EFAOptions configures an exploratory factor analysis.
type EFAOptions struct {
	NFactors int
	Rotation string
}

// EFA is a fitted minimum-residual factor model.
type EFA struct {
	Items         []string
	Loadings      *mat.Dense // items x factors
	Uniquenesses  []float64
	Communalities []float64
	// Eigenvalues of the item correlation matrix, descending.
	Eigenvalues []float64
	// Per factor: sum of squared loadings, its share of the item count and
	// the running total.
	Variance   []float64
	Proportion []float64
	Cumulative []float64

	corr *mat.SymDense
	mean []float64
	std  []float64
}

// FitEFA extracts opt.NFactors factors by minimum residual (unweighted least
// squares) from the item correlation matrix. Missing cells are imputed with
// the column median.
func FitEFA(items []string, cols [][]float64, opt EFAOptions) (*EFA, error) {
	p := len(cols)
	if p != len(items) {
		return nil, fmt.Errorf("efa: %d names for %d columns", len(items), p)
	}
	if p < 2 {
		return nil, fmt.Errorf("efa needs at least 2 items: %w", stats.ErrInsufficientData)
	}
	m := opt.NFactors
	if m < 1 || m > p {
		return nil, fmt.Errorf("efa: invalid number of factors %d for %d items", m, p)
	}
	x := imputeMedian(cols)
	n := len(x[0])
	if n < 3 {
		return nil, fmt.Errorf("efa needs at least 3 rows, got %d: %w", n, stats.ErrInsufficientData)
	}
	corr := stats.CorrMatrix(x)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			if math.IsNaN(corr.At(i, j)) {
				return nil, fmt.Errorf("efa: item %s has zero variance", items[i])
			}
		}
	}
	eigs, err := Eigenvalues(corr)
	if err != nil {
		return nil, fmt.Errorf("efa: %w", err)
	}

	psi, err := minres(corr, m)
	if err != nil {
		return nil, fmt.Errorf("efa: %w", err)
	}
	load, err := loadingsFor(corr, psi, m)
	if err != nil {
		return nil, fmt.Errorf("efa: %w", err)
	}
	switch opt.Rotation {
	case "", RotationNone:
	case RotationVarimax:
		load = Varimax(load, true, 1000, 1e-5)
	default:
		return nil, fmt.Errorf("efa: unsupported rotation %q", opt.Rotation)
	}
	normalizeSigns(load)

	e := &EFA{Items: items, Loadings: load, Eigenvalues: eigs, corr: corr}
	e.Communalities = make([]float64, p)
	e.Uniquenesses = make([]float64, p)
	for i := 0; i < p; i++ {
		for j := 0; j < m; j++ {
			e.Communalities[i] += load.At(i, j) * load.At(i, j)
		}
		e.Uniquenesses[i] = 1 - e.Communalities[i]
	}
	cum := 0.0
	for j := 0; j < m; j++ {
		ss := 0.0
		for i := 0; i < p; i++ {
			ss += load.At(i, j) * load.At(i, j)
		}
		prop := ss / float64(p)
		cum += prop
		e.Variance = append(e.Variance, ss)
		e.Proportion = append(e.Proportion, prop)
		e.Cumulative = append(e.Cumulative, cum)
	}
	for _, c := range x {
		mu, v := stat.PopMeanVariance(c, nil)
		e.mean = append(e.mean, mu)
		e.std = append(e.std, math.Sqrt(v))
	}
	return e, nil
}

// smcStart returns 1 - squared multiple correlations, or 0.5 everywhere when
// the correlation matrix cannot be inverted.
func smcStart(corr *mat.SymDense) []float64 {
	p := corr.SymmetricDim()
	start := make([]float64, p)
	inv, err := invert(corr)
	for i := range start {
		start[i] = 0.5
		if err == nil {
			smc := 1 - 1/inv.At(i, i)
			start[i] = 1 - smc
		}
	}
	return start
}

// minres finds uniquenesses minimising the squared off-model residuals.
// Bounds are enforced by a logistic reparametrisation.
func minres(corr *mat.SymDense, m int) ([]float64, error) {
	start := smcStart(corr)
	z0 := make([]float64, len(start))
	for i, s := range start {
		s = math.Min(math.Max(s, psiLower+1e-6), psiUpper-1e-6)
		u := (s - psiLower) / (psiUpper - psiLower)
		z0[i] = math.Log(u / (1 - u))
	}
	toPsi := func(z []float64) []float64 {
		out := make([]float64, len(z))
		for i, v := range z {
			out[i] = psiLower + (psiUpper-psiLower)/(1+math.Exp(-v))
		}
		return out
	}
	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			return ulsObjective(corr, toPsi(z), m)
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 5000,
		FuncEvaluations: 50000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Iterations: 200,
		},
	}
	res, err := optimize.Minimize(problem, z0, settings, &optimize.NelderMead{})
	if res == nil {
		return nil, fmt.Errorf("minres optimisation: %w", err)
	}
	return toPsi(res.X), nil
}

// reducedEigen returns the top m eigenpairs of corr with 1 - psi on the
// diagonal, largest first.
func reducedEigen(corr *mat.SymDense, psi []float64, m int) ([]float64, *mat.Dense, error) {
	p := corr.SymmetricDim()
	red := mat.NewSymDense(p, nil)
	red.CopySym(corr)
	for i := 0; i < p; i++ {
		red.SetSym(i, i, 1-psi[i])
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(red, true); !ok {
		return nil, nil, fmt.Errorf("eigen decomposition failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	order := make([]int, p)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return vals[order[a]] > vals[order[b]] })
	top := make([]float64, m)
	v := mat.NewDense(p, m, nil)
	for j := 0; j < m; j++ {
		top[j] = vals[order[j]]
		for i := 0; i < p; i++ {
			v.Set(i, j, vecs.At(i, order[j]))
		}
	}
	return top, v, nil
}

func ulsObjective(corr *mat.SymDense, psi []float64, m int) float64 {
	vals, vecs, err := reducedEigen(corr, psi, m)
	if err != nil {
		return math.Inf(1)
	}
	p := corr.SymmetricDim()
	load := mat.NewDense(p, m, nil)
	for j, ev := range vals {
		s := math.Sqrt(math.Max(ev, 100*2.220446049250313e-16))
		for i := 0; i < p; i++ {
			load.Set(i, j, vecs.At(i, j)*s)
		}
	}
	var model mat.Dense
	model.Mul(load, load.T())
	sum := 0.0
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			target := corr.At(i, j)
			if i == j {
				target = 1 - psi[i]
			}
			d := target - model.At(i, j)
			sum += d * d
		}
	}
	return sum
}

func loadingsFor(corr *mat.SymDense, psi []float64, m int) (*mat.Dense, error) {
	vals, vecs, err := reducedEigen(corr, psi, m)
	if err != nil {
		return nil, err
	}
	p := corr.SymmetricDim()
	load := mat.NewDense(p, m, nil)
	for j, ev := range vals {
		s := math.Sqrt(math.Max(ev, 0))
		for i := 0; i < p; i++ {
			load.Set(i, j, vecs.At(i, j)*s)
		}
	}
	return load, nil
}

// normalizeSigns flips factors whose loadings sum to a negative number.
func normalizeSigns(load *mat.Dense) {
	p, m := load.Dims()
	for j := 0; j < m; j++ {
		sum := 0.0
		for i := 0; i < p; i++ {
			sum += load.At(i, j)
		}
		if sum < 0 {
			for i := 0; i < p; i++ {
				load.Set(i, j, -load.At(i, j))
			}
		}
	}
}

// Scores computes regression-method factor scores for the given item columns
// (same order as at fit time). Missing cells are imputed with the column
// median.
func (e *EFA) Scores(cols [][]float64) (*mat.Dense, error) {
	if len(cols) != len(e.Items) {
		return nil, fmt.Errorf("scores: expected %d columns, got %d", len(e.Items), len(cols))
	}
	x := imputeMedian(cols)
	n := len(x[0])
	p, m := e.Loadings.Dims()
	z := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		sd := e.std[j]
		for i := 0; i < n; i++ {
			v := x[j][i] - e.mean[j]
			if sd > 0 {
				v /= sd
			}
			z.Set(i, j, v)
		}
	}
	var w mat.Dense
	if err := w.Solve(e.corr, e.Loadings); err != nil {
		return nil, fmt.Errorf("scores: %w", ErrSingularMatrix)
	}
	out := mat.NewDense(n, m, nil)
	out.Mul(z, &w)
	return out, nil
}
