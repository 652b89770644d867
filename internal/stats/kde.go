package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// KDE is a one-dimensional Gaussian kernel density estimate with Scott's
// bandwidth rule.
type KDE struct {
	data []float64
	bw   float64
}

// NewKDE fits a density to the non-NaN values. It returns nil when fewer than
// two distinct values are present.
func NewKDE(vals []float64) *KDE {
	x := clean(vals)
	if len(x) < 2 {
		return nil
	}
	sd := Std(x)
	if sd == 0 || math.IsNaN(sd) {
		return nil
	}
	factor := math.Pow(float64(len(x)), -1.0/5)
	return &KDE{data: x, bw: sd * factor}
}

// Bandwidth is the kernel standard deviation.
func (k *KDE) Bandwidth() float64 { return k.bw }

// Density evaluates the estimate at x.
func (k *KDE) Density(x float64) float64 {
	kern := distuv.Normal{Mu: 0, Sigma: k.bw}
	sum := 0.0
	for _, v := range k.data {
		sum += kern.Prob(x - v)
	}
	return sum / float64(len(k.data))
}

// Curve samples the density on n evenly spaced points spanning the data range
// extended by three bandwidths on each side.
func (k *KDE) Curve(n int) (xs, ys []float64) {
	lo := floats.Min(k.data) - 3*k.bw
	hi := floats.Max(k.data) + 3*k.bw
	xs = make([]float64, n)
	floats.Span(xs, lo, hi)
	ys = make([]float64, n)
	for i, x := range xs {
		ys[i] = k.Density(x)
	}
	return xs, ys
}
