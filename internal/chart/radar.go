package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Radar draws one closed polygon per series over len(axes) spokes. Values
// are expected on a 0-1 scale; larger values widen the outer ring.
func Radar(path, title string, axes []string, series []Series, opt Options) error {
	n := len(axes)
	if n < 3 {
		return fmt.Errorf("radar %s: need at least 3 axes, got %d", path, n)
	}
	if err := checkSeries(axes, series); err != nil {
		return fmt.Errorf("radar %s: %w", path, err)
	}
	outer := 1.0
	for _, s := range series {
		for _, v := range s.Values {
			if !math.IsNaN(v) && v > outer {
				outer = v
			}
		}
	}
	angle := func(k int) float64 { return math.Pi/2 - 2*math.Pi*float64(k)/float64(n) }
	at := func(k int, r float64) plotter.XY {
		return plotter.XY{X: r * math.Cos(angle(k)), Y: r * math.Sin(angle(k))}
	}

	p := New(title, "", "")
	p.HideAxes()
	gridColor := color.Gray{Y: 200}
	for ring := 1; ring <= 4; ring++ {
		r := outer * float64(ring) / 4
		pts := make(plotter.XYs, n+1)
		for k := 0; k <= n; k++ {
			pts[k] = at(k%n, r)
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = gridColor
		p.Add(l)
	}
	var spokes plotter.XYLabels
	for k := 0; k < n; k++ {
		l, err := plotter.NewLine(plotter.XYs{{}, at(k, outer)})
		if err != nil {
			return err
		}
		l.Color = gridColor
		p.Add(l)
		spokes.XYs = append(spokes.XYs, at(k, outer*1.12))
		spokes.Labels = append(spokes.Labels, axes[k])
	}
	labels, err := plotter.NewLabels(spokes)
	if err != nil {
		return fmt.Errorf("radar %s: %w", path, err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	colors := qualitative(len(series))
	for i, s := range series {
		pts := make(plotter.XYs, n+1)
		for k := 0; k <= n; k++ {
			v := s.Values[k%n]
			if math.IsNaN(v) {
				v = 0
			}
			pts[k] = at(k%n, v)
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("radar %s: %w", s.Label, err)
		}
		l.Color = colors[i]
		l.Width = vg.Points(2)
		p.Add(l)
		p.Legend.Add(s.Label, l)
	}
	p.Legend.Top = true
	lim := outer * 1.35
	p.X.Min, p.X.Max = -lim, lim
	p.Y.Min, p.Y.Max = -lim, lim
	return Save(p, path, opt.or(8*vg.Inch, 8*vg.Inch))
}
