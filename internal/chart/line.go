package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	teal = color.RGBA{R: 0, G: 128, B: 128, A: 255}
	red  = color.RGBA{R: 220, G: 20, B: 60, A: 255}
)

// LinePlot returns a plot of ys against xs drawn as a line with point markers.
func LinePlot(title, xLabel, yLabel string, xs, ys []float64) (*plot.Plot, error) {
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil, fmt.Errorf("line plot: %d x values for %d y values", len(xs), len(ys))
	}
	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("line plot %q: no finite values", title)
	}
	p := New(title, xLabel, yLabel)
	p.Add(plotter.NewGrid())
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("line plot %q: %w", title, err)
	}
	line.Color = teal
	line.Width = vg.Points(2)
	points.GlyphStyle.Color = teal
	points.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(line, points)
	p.X.Tick.Marker = integerTicks{}
	return p, nil
}

// MarkPoint highlights one point and adds it to the legend.
func MarkPoint(p *plot.Plot, x, y float64, label string) error {
	sc, err := plotter.NewScatter(plotter.XYs{{X: x, Y: y}})
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = red
	sc.GlyphStyle.Radius = vg.Points(5)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)
	p.Legend.Add(label, sc)
	p.Legend.Top = true
	return nil
}

// RefLine adds a dashed horizontal reference line at y.
func RefLine(p *plot.Plot, y float64) {
	fn := plotter.NewFunction(func(float64) float64 { return y })
	fn.Color = red
	fn.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	p.Add(fn)
	if p.Y.Min > y {
		p.Y.Min = y
	}
	if p.Y.Max < y {
		p.Y.Max = y
	}
}

// Scree plots eigenvalues against factor number with the Kaiser line at 1.
func Scree(path string, eigenvalues []float64, opt Options) error {
	xs := make([]float64, len(eigenvalues))
	for i := range xs {
		xs[i] = float64(i + 1)
	}
	p, err := LinePlot("Scree Plot", "Factors", "Eigenvalue", xs, eigenvalues)
	if err != nil {
		return err
	}
	RefLine(p, 1)
	return Save(p, path, opt)
}

// integerTicks places ticks on whole numbers only.
type integerTicks struct{}

func (integerTicks) Ticks(min, max float64) []plot.Tick {
	lo, hi := math.Ceil(min), math.Floor(max)
	step := math.Max(1, math.Ceil((hi-lo)/10))
	var ticks []plot.Tick
	for v := lo; v <= hi; v += step {
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%d", int(v))})
	}
	return ticks
}
