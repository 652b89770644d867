package chart

import (
	"fmt"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/stats"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Distributions overlays, per series, a density-normalised histogram with
// bins bins and a Gaussian KDE curve.
func Distributions(path, title, xLabel string, series []Series, bins int, opt Options) error {
	if len(series) == 0 {
		return fmt.Errorf("distribution plot %s: no series", path)
	}
	if bins <= 0 {
		bins = 10
	}
	p := New(title, xLabel, "Density")
	p.Add(plotter.NewGrid())
	colors := qualitative(len(series))
	drawn := 0
	for i, s := range series {
		vals := dataset.DropNaN(s.Values)
		if len(vals) == 0 {
			continue
		}
		if lo, hi := minMax(vals); hi > lo {
			h, err := plotter.NewHist(plotter.Values(vals), bins)
			if err != nil {
				return fmt.Errorf("histogram %s: %w", s.Label, err)
			}
			h.Normalize(1)
			h.FillColor = withAlpha(colors[i], 90)
			h.LineStyle.Width = vg.Length(0)
			p.Add(h)
		}
		if k := stats.NewKDE(vals); k != nil {
			xs, ys := k.Curve(200)
			pts := make(plotter.XYs, len(xs))
			for j := range xs {
				pts[j] = plotter.XY{X: xs[j], Y: ys[j]}
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return fmt.Errorf("kde %s: %w", s.Label, err)
			}
			line.Color = colors[i]
			line.Width = vg.Points(2)
			p.Add(line)
			p.Legend.Add(s.Label, line)
		}
		drawn++
	}
	if drawn == 0 {
		return fmt.Errorf("distribution plot %s: no values", path)
	}
	p.Legend.Top = true
	return Save(p, path, opt)
}

func minMax(vals []float64) (lo, hi float64) {
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
