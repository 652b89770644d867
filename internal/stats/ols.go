package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// OLSResult is an ordinary least squares fit with an intercept term.
type OLSResult struct {
	DepVar   string
	Names    []string // "const" followed by the regressors
	Coef     []float64
	StdErr   []float64
	T        []float64
	P        []float64
	CILow    []float64
	CIHigh   []float64
	N        int
	DfModel  float64
	DfResid  float64
	R2       float64
	AdjR2    float64
	F        float64
	FP       float64
	LogLik   float64
	AIC      float64
	BIC      float64
	SSR      float64
	Fitted   []float64
	Residual []float64
}

// OLS regresses y on the given columns plus a constant. Rows with any NaN
// are dropped. Rank-deficient designs are solved with the pseudo-inverse.
func OLS(depVar string, y []float64, names []string, cols [][]float64) (*OLSResult, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("ols: %d names for %d columns", len(names), len(cols))
	}
	var rows []int
	for i := range y {
		if math.IsNaN(y[i]) {
			continue
		}
		ok := true
		for _, c := range cols {
			if i >= len(c) || math.IsNaN(c[i]) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, i)
		}
	}
	n := len(rows)
	p := len(cols) + 1
	if n < 2 {
		return nil, fmt.Errorf("ols needs at least 2 complete rows, got %d: %w", n, ErrInsufficientData)
	}
	X := mat.NewDense(n, p, nil)
	Y := mat.NewVecDense(n, nil)
	for r, i := range rows {
		X.Set(r, 0, 1)
		for j, c := range cols {
			X.Set(r, j+1, c[i])
		}
		Y.SetVec(r, y[i])
	}

	pinv, rank, err := pseudoInverse(X)
	if err != nil {
		return nil, fmt.Errorf("ols: %w", err)
	}
	var beta mat.VecDense
	beta.MulVec(pinv, Y)
	var fitted mat.VecDense
	fitted.MulVec(X, &beta)

	res := &OLSResult{
		DepVar:   depVar,
		Names:    append([]string{"const"}, names...),
		N:        n,
		DfModel:  float64(rank - 1),
		DfResid:  float64(n - rank),
		Fitted:   make([]float64, n),
		Residual: make([]float64, n),
	}
	ymean := mat.Sum(Y) / float64(n)
	var sst float64
	for r := 0; r < n; r++ {
		f := fitted.AtVec(r)
		e := Y.AtVec(r) - f
		res.Fitted[r] = f
		res.Residual[r] = e
		res.SSR += e * e
		d := Y.AtVec(r) - ymean
		sst += d * d
	}
	if sst > 0 {
		res.R2 = 1 - res.SSR/sst
	} else {
		res.R2 = math.NaN()
	}
	if res.DfResid > 0 {
		res.AdjR2 = 1 - float64(n-1)/res.DfResid*(1-res.R2)
	} else {
		res.AdjR2 = math.NaN()
	}

	// cov = sigma^2 (X'X)^+ = sigma^2 X^+ X^+'
	sigma2 := math.NaN()
	if res.DfResid > 0 {
		sigma2 = res.SSR / res.DfResid
	}
	var cov mat.Dense
	cov.Mul(pinv, pinv.T())
	cov.Scale(sigma2, &cov)

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: res.DfResid}
	tcrit := math.NaN()
	if res.DfResid > 0 {
		tcrit = tdist.Quantile(0.975)
	}
	for j := 0; j < p; j++ {
		b := beta.AtVec(j)
		se := math.Sqrt(cov.At(j, j))
		t := b / se
		pv := math.NaN()
		if res.DfResid > 0 && !math.IsNaN(t) {
			pv = 2 * tdist.Survival(math.Abs(t))
		}
		res.Coef = append(res.Coef, b)
		res.StdErr = append(res.StdErr, se)
		res.T = append(res.T, t)
		res.P = append(res.P, pv)
		res.CILow = append(res.CILow, b-tcrit*se)
		res.CIHigh = append(res.CIHigh, b+tcrit*se)
	}

	ess := sst - res.SSR
	res.F, res.FP = math.NaN(), math.NaN()
	if res.DfModel > 0 && res.DfResid > 0 && res.SSR > 0 {
		res.F = (ess / res.DfModel) / (res.SSR / res.DfResid)
		res.FP = distuv.F{D1: res.DfModel, D2: res.DfResid}.Survival(res.F)
	}
	nf := float64(n)
	res.LogLik = -nf / 2 * (math.Log(2*math.Pi) + math.Log(res.SSR/nf) + 1)
	k := res.DfModel + 1
	res.AIC = -2*res.LogLik + 2*k
	res.BIC = -2*res.LogLik + math.Log(nf)*k
	return res, nil
}

// pseudoInverse returns the Moore-Penrose inverse of a and its numerical rank.
func pseudoInverse(a *mat.Dense) (*mat.Dense, int, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("svd factorization failed")
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	maxS := 0.0
	for _, x := range s {
		maxS = math.Max(maxS, x)
	}
	// Collinear dummy columns leave singular values near machine precision.
	cut := 1e-10 * maxS
	r, c := a.Dims()
	rank := 0
	inv := mat.NewDense(c, r, nil)
	for k, sv := range s {
		if sv <= cut {
			continue
		}
		rank++
		for i := 0; i < c; i++ {
			vik := v.At(i, k) / sv
			for j := 0; j < r; j++ {
				inv.Set(i, j, inv.At(i, j)+vik*u.At(j, k))
			}
		}
	}
	return inv, rank, nil
}

// Summary renders the fit as a plain-text regression report.
func (r *OLSResult) Summary() string {
	var b strings.Builder
	line := strings.Repeat("=", 78)
	now := time.Now()
	fmt.Fprintf(&b, "%s\n", center("OLS Regression Results", 78))
	fmt.Fprintf(&b, "%s\n", line)
	rows := [][4]string{
		{"Dep. Variable:", r.DepVar, "R-squared:", fmt.Sprintf("%.3f", r.R2)},
		{"Model:", "OLS", "Adj. R-squared:", fmt.Sprintf("%.3f", r.AdjR2)},
		{"Method:", "Least Squares", "F-statistic:", fmt.Sprintf("%.4g", r.F)},
		{"Date:", now.Format("Mon, 02 Jan 2006"), "Prob (F-statistic):", fmt.Sprintf("%.3g", r.FP)},
		{"Time:", now.Format("15:04:05"), "Log-Likelihood:", fmt.Sprintf("%.2f", r.LogLik)},
		{"No. Observations:", fmt.Sprintf("%d", r.N), "AIC:", fmt.Sprintf("%.1f", r.AIC)},
		{"Df Residuals:", fmt.Sprintf("%.0f", r.DfResid), "BIC:", fmt.Sprintf("%.1f", r.BIC)},
		{"Df Model:", fmt.Sprintf("%.0f", r.DfModel), "", ""},
		{"Covariance Type:", "nonrobust", "", ""},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "%-20s%19s   %-20s%16s\n", row[0], row[1], row[2], row[3])
	}
	fmt.Fprintf(&b, "%s\n", line)
	b.WriteString(r.CoefTable())
	fmt.Fprintf(&b, "%s\n", line)
	return b.String()
}

// CoefTable renders only the coefficient block of the summary.
func (r *OLSResult) CoefTable() string {
	var b strings.Builder
	width := 16
	for _, n := range r.Names {
		if len(n)+1 > width {
			width = len(n) + 1
		}
	}
	fmt.Fprintf(&b, "%-*s%10s%10s%10s%10s%11s%11s\n", width, "", "coef", "std err", "t", "P>|t|", "[0.025", "0.975]")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", width+62))
	for i, n := range r.Names {
		fmt.Fprintf(&b, "%-*s%10.4f%10.3f%10.3f%10.3f%11.3f%11.3f\n",
			width, n, r.Coef[i], r.StdErr[i], r.T[i], r.P[i], r.CILow[i], r.CIHigh[i])
	}
	return b.String()
}

func center(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
