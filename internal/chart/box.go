package chart

import (
	"fmt"
	"image/color"
	"math/rand"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Boxplot draws one box per group. With strip set, the individual values are
// overlaid as jittered points. Missing values are ignored; empty groups keep
// their tick but draw nothing.
func Boxplot(path, title, xLabel, yLabel string, groups []Series, strip bool, opt Options) error {
	if len(groups) == 0 {
		return fmt.Errorf("boxplot %s: no groups", path)
	}
	p := New(title, xLabel, yLabel)
	p.Add(plotter.NewGrid())
	colors := qualitative(len(groups))
	rng := rand.New(rand.NewSource(1))
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Label
		vals := dataset.DropNaN(g.Values)
		if len(vals) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), plotter.Values(vals))
		if err != nil {
			return fmt.Errorf("boxplot %s: %w", g.Label, err)
		}
		box.FillColor = colors[i]
		p.Add(box)
		if !strip {
			continue
		}
		pts := make(plotter.XYs, len(vals))
		for j, v := range vals {
			pts[j].X = float64(i) + (rng.Float64()-0.5)*0.3
			pts[j].Y = v
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("strip %s: %w", g.Label, err)
		}
		sc.GlyphStyle.Color = color.NRGBA{A: 128}
		sc.GlyphStyle.Radius = vg.Points(1.5)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
	}
	p.NominalX(names...)
	return Save(p, path, opt)
}
