// Package reliability computes internal-consistency measures for item scales.
package reliability

import (
	"errors"
	"fmt"
	"math"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewItems is returned when a scale has fewer than two items.
var ErrTooFewItems = errors.New("scale needs at least 2 items")

// Scale is a named set of item columns.
type Scale struct {
	Name  string   `mapstructure:"name" yaml:"name"`
	Items []string `mapstructure:"items" yaml:"items"`
}

// ItemCorr is the corrected item-total correlation of one item.
type ItemCorr struct {
	Item string
	R    float64
}

// Result holds the reliability of one scale.
type Result struct {
	Scale         string
	NItems        int
	N             int
	Alpha         float64
	Omega         float64
	MeanItemTotal float64
	ItemTotal     []ItemCorr
}

// complete returns the item columns restricted to rows where every item is
// present.
func complete(t *dataset.Table, items []string) ([][]float64, error) {
	if len(items) < 2 {
		return nil, fmt.Errorf("%d item(s): %w", len(items), ErrTooFewItems)
	}
	sub, err := t.DropNA(items...)
	if err != nil {
		return nil, err
	}
	if sub.Len() < 2 {
		return nil, fmt.Errorf("%d complete row(s): %w", sub.Len(), stats.ErrInsufficientData)
	}
	cols := make([][]float64, len(items))
	for j, it := range items {
		cols[j], _ = sub.Numeric(it)
	}
	return cols, nil
}

// CronbachAlpha is k/(k-1) * (1 - sum(item variances) / variance(total)),
// computed on complete rows with ddof 1.
func CronbachAlpha(t *dataset.Table, items ...string) (float64, error) {
	cols, err := complete(t, items)
	if err != nil {
		return math.NaN(), err
	}
	return alpha(cols), nil
}

func alpha(cols [][]float64) float64 {
	k := float64(len(cols))
	n := len(cols[0])
	total := make([]float64, n)
	sumVar := 0.0
	for _, c := range cols {
		sumVar += stat.Variance(c, nil)
		for i, v := range c {
			total[i] += v
		}
	}
	tv := stat.Variance(total, nil)
	if tv == 0 {
		return math.NaN()
	}
	return k / (k - 1) * (1 - sumVar/tv)
}

// Omega approximates McDonald's omega as the share of the largest eigenvalue
// of the item correlation matrix.
func Omega(t *dataset.Table, items ...string) (float64, error) {
	cols, err := complete(t, items)
	if err != nil {
		return math.NaN(), err
	}
	return omega(cols)
}

func omega(cols [][]float64) (float64, error) {
	corr := stats.CorrMatrix(cols)
	var eig mat.EigenSym
	if ok := eig.Factorize(corr, false); !ok {
		return math.NaN(), fmt.Errorf("eigen decomposition failed")
	}
	vals := eig.Values(nil)
	sum, largest := 0.0, math.Inf(-1)
	for _, v := range vals {
		sum += v
		largest = math.Max(largest, v)
	}
	if sum == 0 || math.IsNaN(sum) {
		return math.NaN(), nil
	}
	return largest / sum, nil
}

// ItemTotal correlates each item with the sum of the remaining items.
func ItemTotal(t *dataset.Table, items ...string) ([]ItemCorr, error) {
	cols, err := complete(t, items)
	if err != nil {
		return nil, err
	}
	return itemTotal(items, cols), nil
}

func itemTotal(items []string, cols [][]float64) []ItemCorr {
	n := len(cols[0])
	out := make([]ItemCorr, len(items))
	for j, it := range items {
		rest := make([]float64, n)
		for k, c := range cols {
			if k == j {
				continue
			}
			for i, v := range c {
				rest[i] += v
			}
		}
		out[j] = ItemCorr{Item: it, R: stat.Correlation(cols[j], rest, nil)}
	}
	return out
}

// Analyze computes alpha, omega and item-total correlations for one scale.
func Analyze(t *dataset.Table, s Scale) (Result, error) {
	cols, err := complete(t, s.Items)
	if err != nil {
		return Result{}, fmt.Errorf("scale %s: %w", s.Name, err)
	}
	om, err := omega(cols)
	if err != nil {
		return Result{}, fmt.Errorf("scale %s: %w", s.Name, err)
	}
	it := itemTotal(s.Items, cols)
	mean := 0.0
	for _, c := range it {
		mean += c.R
	}
	return Result{
		Scale:         s.Name,
		NItems:        len(s.Items),
		N:             len(cols[0]),
		Alpha:         alpha(cols),
		Omega:         om,
		MeanItemTotal: mean / float64(len(it)),
		ItemTotal:     it,
	}, nil
}

// ExistingItems filters the scale to items present in the table.
func ExistingItems(t *dataset.Table, s Scale) []string {
	var out []string
	for _, it := range s.Items {
		if t.Has(it) {
			out = append(out, it)
		}
	}
	return out
}
