package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Normality is the result of a Shapiro-Wilk test.
type Normality struct {
	W float64
	P float64
	N int
}

var (
	swG  = []float64{-2.273, 0.459}
	swC1 = []float64{0, 0.221157, -0.147981, -2.07119, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
)

func poly(c []float64, x float64) float64 {
	r := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}

// ShapiroWilk tests the non-NaN values for normality using Royston's
// approximation (valid for 3 <= n <= 5000).
func ShapiroWilk(vals []float64) (Normality, error) {
	x := clean(vals)
	n := len(x)
	if n < 3 {
		return Normality{N: n}, fmt.Errorf("shapiro-wilk needs at least 3 values, got %d: %w", n, ErrInsufficientData)
	}
	if n > 5000 {
		return Normality{N: n}, fmt.Errorf("shapiro-wilk supports at most 5000 values, got %d", n)
	}
	sort.Float64s(x)
	if x[n-1]-x[0] < 1e-19 {
		return Normality{N: n, W: math.NaN(), P: math.NaN()}, fmt.Errorf("shapiro-wilk: all values identical: %w", ErrInsufficientData)
	}

	an := float64(n)
	nn2 := n / 2
	a := make([]float64, nn2+1) // 1-based
	if n == 3 {
		a[1] = math.Sqrt(0.5)
	} else {
		an25 := an + 0.25
		m := make([]float64, nn2+1)
		summ2 := 0.0
		for i := 1; i <= nn2; i++ {
			m[i] = stdNormal.Quantile((float64(i) - 0.375) / an25)
			summ2 += m[i] * m[i]
		}
		summ2 *= 2
		ssumm2 := math.Sqrt(summ2)
		rsn := 1 / math.Sqrt(an)
		a1 := poly(swC1, rsn) - m[1]/ssumm2
		i1 := 2
		var fac float64
		if n > 5 {
			i1 = 3
			a2 := -m[2]/ssumm2 + poly(swC2, rsn)
			fac = math.Sqrt((summ2 - 2*m[1]*m[1] - 2*m[2]*m[2]) / (1 - 2*a1*a1 - 2*a2*a2))
			a[2] = a2
		} else {
			fac = math.Sqrt((summ2 - 2*m[1]*m[1]) / (1 - 2*a1*a1))
		}
		a[1] = a1
		for i := i1; i <= nn2; i++ {
			a[i] = -m[i] / fac
		}
	}

	// W is the squared correlation between the ordered sample and the
	// antisymmetric coefficient vector.
	coef := make([]float64, n)
	for i := 1; i <= nn2; i++ {
		coef[i-1] = -a[i]
		coef[n-i] = a[i]
	}
	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= an
	var sax, ssa, ssx float64
	for i, v := range x {
		d := v - mean
		sax += coef[i] * d
		ssa += coef[i] * coef[i]
		ssx += d * d
	}
	w := sax * sax / (ssa * ssx)
	if w > 1 {
		w = 1
	}
	res := Normality{W: w, N: n}

	if n == 3 {
		const pi6 = 6 / math.Pi
		const stqr = math.Pi / 3
		p := pi6 * (math.Asin(math.Sqrt(w)) - stqr)
		res.P = math.Max(p, 0)
		return res, nil
	}
	w1 := 1 - w
	if w1 <= 0 {
		res.P = 1
		return res, nil
	}
	y := math.Log(w1)
	lxx := math.Log(an)
	var mu, s float64
	if n <= 11 {
		gamma := poly(swG, an)
		if y >= gamma {
			res.P = 1e-99
			return res, nil
		}
		y = -math.Log(gamma - y)
		mu = poly(swC3, an)
		s = math.Exp(poly(swC4, an))
	} else {
		mu = poly(swC5, lxx)
		s = math.Exp(poly(swC6, lxx))
	}
	res.P = distuv.Normal{Mu: mu, Sigma: s}.Survival(y)
	return res, nil
}
