package factor

import (
	"bufio"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/stats"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// Measurement is one "factor =~ item + item" line.
type Measurement struct {
	Factor string
	Items  []string
}

// Model is a confirmatory factor model.
type Model struct {
	Factors []Measurement
}

// ParseModel reads lavaan-style measurement syntax. Blank lines and lines
// starting with '#' are ignored.
func ParseModel(desc string) (*Model, error) {
	m := &Model{}
	seen := map[string]bool{}
	sc := bufio.NewScanner(strings.NewReader(desc))
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		lhs, rhs, ok := strings.Cut(s, "=~")
		if !ok {
			return nil, fmt.Errorf("model line %d: only '=~' measurement lines are supported: %q", line, s)
		}
		f := strings.TrimSpace(lhs)
		if f == "" {
			return nil, fmt.Errorf("model line %d: missing factor name", line)
		}
		if seen[f] {
			return nil, fmt.Errorf("model line %d: factor %s defined twice", line, f)
		}
		seen[f] = true
		var items []string
		for _, it := range strings.Split(rhs, "+") {
			it = strings.TrimSpace(it)
			if it == "" {
				return nil, fmt.Errorf("model line %d: empty indicator", line)
			}
			items = append(items, it)
		}
		if len(items) < 2 {
			return nil, fmt.Errorf("model line %d: factor %s needs at least 2 indicators", line, f)
		}
		m.Factors = append(m.Factors, Measurement{Factor: f, Items: items})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(m.Factors) == 0 {
		return nil, fmt.Errorf("model has no measurement lines")
	}
	return m, nil
}

// Observed returns the indicator names in order of first appearance.
func (m *Model) Observed() []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range m.Factors {
		for _, it := range f.Items {
			if !seen[it] {
				seen[it] = true
				out = append(out, it)
			}
		}
	}
	return out
}

// Estimate is one parameter of a fitted CFA.
type Estimate struct {
	LVal   string
	Op     string
	RVal   string
	Value  float64
	StdErr float64
	Z      float64
	P      float64
	Fixed  bool
}

// FitStats are the global fit indices of a CFA.
type FitStats struct {
	DoF         float64
	DoFBaseline float64
	Chi2        float64
	Chi2P       float64
	Chi2Base    float64
	CFI         float64
	GFI         float64
	AGFI        float64
	NFI         float64
	TLI         float64
	RMSEA       float64
	AIC         float64
	BIC         float64
	LogLik      float64
}

// CFA is a fitted confirmatory model.
type CFA struct {
	Model     *Model
	Observed  []string
	N         int
	Objective float64
	Stats     FitStats
	Estimates []Estimate
}

type cfaLayout struct {
	p, f     int
	loadIdx  [][2]int // (item, factor) of each free loading
	fixedIdx [][2]int // (item, factor) fixed to 1
}

func newLayout(m *Model, obs []string) cfaLayout {
	pos := map[string]int{}
	for i, o := range obs {
		pos[o] = i
	}
	l := cfaLayout{p: len(obs), f: len(m.Factors)}
	for j, f := range m.Factors {
		for k, it := range f.Items {
			if k == 0 {
				l.fixedIdx = append(l.fixedIdx, [2]int{pos[it], j})
				continue
			}
			l.loadIdx = append(l.loadIdx, [2]int{pos[it], j})
		}
	}
	return l
}

func (l cfaLayout) nPhi() int    { return l.f * (l.f + 1) / 2 }
func (l cfaLayout) nParams() int { return len(l.loadIdx) + l.nPhi() + l.p }

// sigma builds the implied covariance from natural parameters
// [free loadings, lower-triangular Phi, Theta variances].
func (l cfaLayout) sigma(x []float64) *mat.SymDense {
	lam := mat.NewDense(l.p, l.f, nil)
	for _, fx := range l.fixedIdx {
		lam.Set(fx[0], fx[1], 1)
	}
	k := 0
	for _, li := range l.loadIdx {
		lam.Set(li[0], li[1], x[k])
		k++
	}
	phi := mat.NewSymDense(l.f, nil)
	for i := 0; i < l.f; i++ {
		for j := 0; j <= i; j++ {
			phi.SetSym(i, j, x[k])
			k++
		}
	}
	var lp mat.Dense
	lp.Mul(lam, phi)
	var full mat.Dense
	full.Mul(&lp, lam.T())
	s := mat.NewSymDense(l.p, nil)
	for i := 0; i < l.p; i++ {
		for j := 0; j <= i; j++ {
			s.SetSym(i, j, full.At(i, j))
		}
		s.SetSym(i, i, full.At(i, i)+x[k+i])
	}
	return s
}

// toNatural maps the optimiser's unconstrained vector (Cholesky factor of
// Phi, log residual variances) to natural parameters.
func (l cfaLayout) toNatural(z []float64) []float64 {
	out := make([]float64, l.nParams())
	nl := len(l.loadIdx)
	copy(out, z[:nl])
	chol := mat.NewTriDense(l.f, mat.Lower, nil)
	k := nl
	for i := 0; i < l.f; i++ {
		for j := 0; j <= i; j++ {
			chol.SetTri(i, j, z[k])
			k++
		}
	}
	var phi mat.Dense
	phi.Mul(chol, chol.T())
	k = nl
	for i := 0; i < l.f; i++ {
		for j := 0; j <= i; j++ {
			out[k] = phi.At(i, j)
			k++
		}
	}
	for i := 0; i < l.p; i++ {
		out[k+i] = math.Exp(z[k+i])
	}
	return out
}

// mlDiscrepancy is log|Sigma| + tr(S Sigma^-1) - log|S| - p.
func mlDiscrepancy(sig, s *mat.SymDense, logDetS float64) float64 {
	var ch mat.Cholesky
	if ok := ch.Factorize(sig); !ok {
		return math.Inf(1)
	}
	var inv mat.SymDense
	if err := ch.InverseTo(&inv); err != nil {
		return math.Inf(1)
	}
	var prod mat.Dense
	prod.Mul(s, &inv)
	return ch.LogDet() + mat.Trace(&prod) - logDetS - float64(s.SymmetricDim())
}

// FitCFA fits the model by maximum likelihood on complete rows of the
// indicator columns. cols maps indicator name to values.
func FitCFA(m *Model, cols map[string][]float64) (*CFA, error) {
	obs := m.Observed()
	data := make([][]float64, len(obs))
	for i, o := range obs {
		c, ok := cols[o]
		if !ok {
			return nil, fmt.Errorf("cfa: indicator %s not in data", o)
		}
		data[i] = c
	}
	data = completeRows(data)
	n := len(data[0])
	p := len(obs)
	if n <= p {
		return nil, fmt.Errorf("cfa: %d complete rows for %d indicators: %w", n, p, stats.ErrInsufficientData)
	}
	s := biasedCov(data)
	var chS mat.Cholesky
	if ok := chS.Factorize(s); !ok {
		return nil, fmt.Errorf("cfa: sample covariance: %w", ErrSingularMatrix)
	}
	logDetS := chS.LogDet()

	lay := newLayout(m, obs)
	nl := len(lay.loadIdx)
	z0 := make([]float64, lay.nParams())
	for i := 0; i < nl; i++ {
		z0[i] = 1
	}
	k := nl
	for i := 0; i < lay.f; i++ {
		for j := 0; j <= i; j++ {
			if i == j {
				first := lay.fixedIdx[i][0]
				z0[k] = math.Sqrt(0.5 * s.At(first, first))
			}
			k++
		}
	}
	for i := 0; i < p; i++ {
		z0[k+i] = math.Log(0.5 * s.At(i, i))
	}

	obj := func(z []float64) float64 {
		return mlDiscrepancy(lay.sigma(lay.toNatural(z)), s, logDetS)
	}
	z, err := minimize(obj, z0)
	if err != nil {
		return nil, fmt.Errorf("cfa: %w", err)
	}
	x := lay.toNatural(z)
	fmin := obj(z)

	res := &CFA{Model: m, Observed: obs, N: n, Objective: fmin}
	res.Stats = fitStats(lay, s, x, fmin, n)
	res.Estimates = estimates(m, obs, lay, s, logDetS, x, n)
	return res, nil
}

// minimize runs L-BFGS with a central-difference gradient and falls back to
// Nelder-Mead when the line search fails.
func minimize(f func([]float64) float64, x0 []float64) ([]float64, error) {
	grad := func(g, x []float64) {
		fd.Gradient(g, f, x, &fd.Settings{Formula: fd.Central})
	}
	problem := optimize.Problem{Func: f, Grad: grad}
	settings := &optimize.Settings{MajorIterations: 2000, GradientThreshold: 1e-8}
	res, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if res != nil && !math.IsInf(res.F, 0) && !math.IsNaN(res.F) && err == nil {
		return res.X, nil
	}
	start := x0
	if res != nil && !math.IsInf(res.F, 0) && !math.IsNaN(res.F) {
		start = res.X
	}
	nm, nmErr := optimize.Minimize(optimize.Problem{Func: f}, start, &optimize.Settings{
		MajorIterations: 20000,
		FuncEvaluations: 200000,
		Converger:       &optimize.FunctionConverge{Absolute: 1e-12, Iterations: 500},
	}, &optimize.NelderMead{})
	if nm == nil {
		return nil, fmt.Errorf("optimisation failed: %v / %v", err, nmErr)
	}
	return nm.X, nil
}

func fitStats(lay cfaLayout, s *mat.SymDense, x []float64, fmin float64, n int) FitStats {
	p := float64(lay.p)
	nf := float64(n)
	k := float64(lay.nParams())
	st := FitStats{
		DoF:         p*(p+1)/2 - k,
		DoFBaseline: p * (p - 1) / 2,
		Chi2:        nf * fmin,
	}
	st.Chi2P = math.NaN()
	if st.DoF > 0 {
		st.Chi2P = distuv.ChiSquared{K: st.DoF}.Survival(st.Chi2)
	}
	base := 0.0
	for i := 0; i < lay.p; i++ {
		base += math.Log(s.At(i, i))
	}
	var chS mat.Cholesky
	chS.Factorize(s)
	st.Chi2Base = nf * (base - chS.LogDet())

	d := math.Max(st.Chi2-st.DoF, 0)
	db := math.Max(st.Chi2Base-st.DoFBaseline, d)
	st.CFI = 1
	if db > 0 {
		st.CFI = 1 - d/db
	}
	st.NFI = (st.Chi2Base - st.Chi2) / st.Chi2Base
	st.TLI = math.NaN()
	if st.DoF > 0 {
		rb := st.Chi2Base / st.DoFBaseline
		st.TLI = (rb - st.Chi2/st.DoF) / (rb - 1)
		st.RMSEA = math.Sqrt(d / (st.DoF * (nf - 1)))
	} else {
		st.RMSEA = math.NaN()
	}

	sig := lay.sigma(x)
	var ch mat.Cholesky
	if ch.Factorize(sig) {
		var inv mat.SymDense
		_ = ch.InverseTo(&inv)
		var a mat.Dense
		a.Mul(&inv, s)
		var a2 mat.Dense
		a2.Mul(&a, &a)
		var r mat.Dense
		r.Sub(&a, eye(lay.p))
		var r2 mat.Dense
		r2.Mul(&r, &r)
		st.GFI = 1 - mat.Trace(&r2)/mat.Trace(&a2)
		st.LogLik = -nf / 2 * (p*math.Log(2*math.Pi) + ch.LogDet() + traceProduct(s, &inv))
	}
	if st.DoF > 0 {
		st.AGFI = 1 - p*(p+1)/(2*st.DoF)*(1-st.GFI)
	} else {
		st.AGFI = math.NaN()
	}
	st.AIC = 2*k - 2*st.LogLik
	st.BIC = k*math.Log(nf) - 2*st.LogLik
	return st
}

func estimates(m *Model, obs []string, lay cfaLayout, s *mat.SymDense, logDetS float64, x []float64, n int) []Estimate {
	se := standardErrors(lay, s, logDetS, x, n)
	var out []Estimate
	add := func(lv, op, rv string, idx int) {
		e := Estimate{LVal: lv, Op: op, RVal: rv, Value: x[idx], StdErr: se[idx]}
		e.Z = e.Value / e.StdErr
		e.P = 2 * distuv.UnitNormal.Survival(math.Abs(e.Z))
		out = append(out, e)
	}
	fixed := func(lv, op, rv string) {
		nan := math.NaN()
		out = append(out, Estimate{LVal: lv, Op: op, RVal: rv, Value: 1, StdErr: nan, Z: nan, P: nan, Fixed: true})
	}
	k := 0
	for _, f := range m.Factors {
		for i, it := range f.Items {
			if i == 0 {
				fixed(it, "~", f.Factor)
				continue
			}
			add(it, "~", f.Factor, k)
			k++
		}
	}
	for i := 0; i < lay.f; i++ {
		for j := 0; j <= i; j++ {
			add(m.Factors[i].Factor, "~~", m.Factors[j].Factor, k)
			k++
		}
	}
	for i, o := range obs {
		add(o, "~~", o, k+i)
	}
	return out
}

// standardErrors inverts the observed information (N/2 times the Hessian of
// the discrepancy in natural parameters).
func standardErrors(lay cfaLayout, s *mat.SymDense, logDetS float64, x []float64, n int) []float64 {
	k := len(x)
	out := make([]float64, k)
	for i := range out {
		out[i] = math.NaN()
	}
	f := func(v []float64) float64 { return mlDiscrepancy(lay.sigma(v), s, logDetS) }
	h := mat.NewSymDense(k, nil)
	fd.Hessian(h, f, x, nil)
	h.ScaleSym(float64(n)/2, h)
	var ch mat.Cholesky
	if ok := ch.Factorize(h); !ok {
		return out
	}
	var cov mat.SymDense
	if err := ch.InverseTo(&cov); err != nil {
		return out
	}
	for i := 0; i < k; i++ {
		if v := cov.At(i, i); v > 0 {
			out[i] = math.Sqrt(v)
		}
	}
	return out
}

// Dot renders the fitted model as a Graphviz digraph.
func (c *CFA) Dot() string {
	var b strings.Builder
	b.WriteString("digraph G {\n  overlap=scale;\n  splines=true;\n")
	for _, f := range c.Model.Factors {
		fmt.Fprintf(&b, "  %q [shape=circle];\n", f.Factor)
	}
	for _, o := range c.Observed {
		fmt.Fprintf(&b, "  %q [shape=box];\n", o)
	}
	for _, e := range c.Estimates {
		switch {
		case e.Op == "~":
			fmt.Fprintf(&b, "  %q -> %q [label=\"%.3f\"];\n", e.RVal, e.LVal, e.Value)
		case e.Op == "~~" && e.LVal != e.RVal:
			fmt.Fprintf(&b, "  %q -> %q [dir=both, style=dashed, label=\"%.3f\"];\n", e.LVal, e.RVal, e.Value)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func completeRows(cols [][]float64) [][]float64 {
	out := make([][]float64, len(cols))
	for i := range cols[0] {
		ok := true
		for _, c := range cols {
			if math.IsNaN(c[i]) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for j, c := range cols {
			out[j] = append(out[j], c[i])
		}
	}
	return out
}

// biasedCov is the covariance matrix with divisor N.
func biasedCov(cols [][]float64) *mat.SymDense {
	p := len(cols)
	n := float64(len(cols[0]))
	means := make([]float64, p)
	for j, c := range cols {
		for _, v := range c {
			means[j] += v
		}
		means[j] /= n
	}
	s := mat.NewSymDense(p, nil)
	for a := 0; a < p; a++ {
		for b := 0; b <= a; b++ {
			sum := 0.0
			for i := range cols[a] {
				sum += (cols[a][i] - means[a]) * (cols[b][i] - means[b])
			}
			s.SetSym(a, b, sum/n)
		}
	}
	return s
}

func eye(n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return d
}

func traceProduct(a, b mat.Matrix) float64 {
	var m mat.Dense
	m.Mul(a, b)
	return mat.Trace(&m)
}
