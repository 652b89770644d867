package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Anova is a one-way analysis of variance for y ~ C(group).
type Anova struct {
	F         float64
	P         float64
	SSBetween float64
	SSWithin  float64
	DfBetween float64
	DfWithin  float64
	// Groups actually used after dropping NaN and empty groups.
	K int
	N int
}

// MSE is the within-group mean square.
func (a Anova) MSE() float64 { return a.SSWithin / a.DfWithin }

// OneWay runs a one-way ANOVA across groups. NaN values are ignored and
// empty groups are dropped.
func OneWay(groups [][]float64) (Anova, error) {
	var gs [][]float64
	for _, g := range groups {
		if c := clean(g); len(c) > 0 {
			gs = append(gs, c)
		}
	}
	k := len(gs)
	if k < 2 {
		return Anova{}, fmt.Errorf("anova needs at least 2 non-empty groups, got %d: %w", k, ErrInsufficientData)
	}
	var all []float64
	for _, g := range gs {
		all = append(all, g...)
	}
	n := len(all)
	if n <= k {
		return Anova{}, fmt.Errorf("anova needs more observations (%d) than groups (%d): %w", n, k, ErrInsufficientData)
	}
	grand := stat.Mean(all, nil)
	var ssb, ssw float64
	for _, g := range gs {
		m := stat.Mean(g, nil)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}
	res := Anova{
		SSBetween: ssb,
		SSWithin:  ssw,
		DfBetween: float64(k - 1),
		DfWithin:  float64(n - k),
		K:         k,
		N:         n,
	}
	msb := ssb / res.DfBetween
	msw := ssw / res.DfWithin
	switch {
	case msw == 0 && msb == 0:
		res.F, res.P = math.NaN(), math.NaN()
	case msw == 0:
		res.F, res.P = math.Inf(1), 0
	default:
		res.F = msb / msw
		fd := distuv.F{D1: res.DfBetween, D2: res.DfWithin}
		res.P = fd.Survival(res.F)
	}
	return res, nil
}

// AnovaRow is one line of an ANOVA table.
type AnovaRow struct {
	Source string
	SumSq  float64
	Df     float64
	F      float64
	P      float64
}

// Table returns the two-row ANOVA table for the grouping term and residual.
// The residual row has NaN F and p.
func (a Anova) Table(term string) []AnovaRow {
	return []AnovaRow{
		{Source: term, SumSq: a.SSBetween, Df: a.DfBetween, F: a.F, P: a.P},
		{Source: "Residual", SumSq: a.SSWithin, Df: a.DfWithin, F: math.NaN(), P: math.NaN()},
	}
}
