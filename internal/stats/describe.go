// Package stats implements the descriptive and inferential statistics used by
// the survey pipelines.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInsufficientData is returned when a sample is too small for a test.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrZeroExpected is returned by ChiSquare when an expected frequency is zero.
	ErrZeroExpected = errors.New("contingency table has a zero expected frequency")
)

// Summary mirrors a describe() row.
type Summary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Describe summarises the non-NaN values. Empty input gives NaN statistics.
func Describe(vals []float64) Summary {
	x := clean(vals)
	s := Summary{Count: len(x)}
	if len(x) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sort.Float64s(x)
	s.Mean = stat.Mean(x, nil)
	s.Std = Std(x)
	s.Min = x[0]
	s.Max = x[len(x)-1]
	s.Q25 = QuantileSorted(x, 0.25)
	s.Median = QuantileSorted(x, 0.5)
	s.Q75 = QuantileSorted(x, 0.75)
	return s
}

// QuantileSorted is the linear-interpolation quantile (Hyndman-Fan type 7)
// of already-sorted data.
func QuantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Mean of the non-NaN values.
func Mean(vals []float64) float64 {
	x := clean(vals)
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// Std is the sample standard deviation (ddof 1) of the non-NaN values.
func Std(vals []float64) float64 {
	x := clean(vals)
	if len(x) < 2 {
		return math.NaN()
	}
	return math.Sqrt(stat.Variance(x, nil))
}

// Variance is the sample variance (ddof 1) of the non-NaN values.
func Variance(vals []float64) float64 {
	x := clean(vals)
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Variance(x, nil)
}

// Median of the non-NaN values.
func Median(vals []float64) float64 {
	x := clean(vals)
	sort.Float64s(x)
	return QuantileSorted(x, 0.5)
}

// Skew is the biased sample skewness m3 / m2^1.5.
func Skew(vals []float64) float64 {
	x := clean(vals)
	if len(x) == 0 {
		return math.NaN()
	}
	m2, m3, _ := centralMoments(x)
	if m2 == 0 {
		return math.NaN()
	}
	return m3 / math.Pow(m2, 1.5)
}

// Kurtosis is the biased excess (Fisher) kurtosis m4 / m2^2 - 3.
func Kurtosis(vals []float64) float64 {
	x := clean(vals)
	if len(x) == 0 {
		return math.NaN()
	}
	m2, _, m4 := centralMoments(x)
	if m2 == 0 {
		return math.NaN()
	}
	return m4/(m2*m2) - 3
}

func centralMoments(x []float64) (m2, m3, m4 float64) {
	mu := stat.Mean(x, nil)
	for _, v := range x {
		d := v - mu
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	n := float64(len(x))
	return m2 / n, m3 / n, m4 / n
}

// MinMax rescales values to [0, 1]. NaN stays NaN; a constant column maps
// to zeros.
func MinMax(vals []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		switch {
		case math.IsNaN(v):
			out[i] = math.NaN()
		case hi > lo:
			out[i] = (v - lo) / (hi - lo)
		}
	}
	return out
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, digits int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

func clean(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
