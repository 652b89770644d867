package chart

import (
	"fmt"
	"math"

	"github.com/muesli/reflow/wordwrap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Bar draws one vertical bar per label.
func Bar(path, title, xLabel, yLabel string, labels []string, values []float64, opt Options) error {
	return GroupedBar(path, title, xLabel, yLabel, labels, []Series{{Values: values}}, opt)
}

// GroupedBar draws the series side by side for each category. Series values
// are indexed like categories.
func GroupedBar(path, title, xLabel, yLabel string, categories []string, series []Series, opt Options) error {
	if err := checkSeries(categories, series); err != nil {
		return fmt.Errorf("bar chart %s: %w", path, err)
	}
	p := New(title, xLabel, yLabel)
	p.Add(plotter.NewGrid())
	width := vg.Points(40 / float64(len(series)))
	colors := qualitative(len(series))
	for i, s := range series {
		bars, err := plotter.NewBarChart(plotter.Values(zeroNaN(s.Values)), width)
		if err != nil {
			return fmt.Errorf("bar chart %s: %w", s.Label, err)
		}
		bars.Color = colors[i]
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = width * vg.Length(float64(i)-float64(len(series)-1)/2)
		p.Add(bars)
		if s.Label != "" {
			p.Legend.Add(s.Label, bars)
		}
	}
	p.Legend.Top = true
	p.NominalX(categories...)
	rotateTicks(p, categories)
	return Save(p, path, opt)
}

// StackedBar stacks the series on top of each other for each category.
func StackedBar(path, title, xLabel, yLabel string, categories []string, series []Series, opt Options) error {
	if err := checkSeries(categories, series); err != nil {
		return fmt.Errorf("stacked bar %s: %w", path, err)
	}
	p := New(title, xLabel, yLabel)
	p.Add(plotter.NewGrid())
	colors := qualitative(len(series))
	var below *plotter.BarChart
	for i, s := range series {
		bars, err := plotter.NewBarChart(plotter.Values(zeroNaN(s.Values)), vg.Points(30))
		if err != nil {
			return fmt.Errorf("stacked bar %s: %w", s.Label, err)
		}
		bars.Color = colors[i]
		bars.LineStyle.Width = vg.Length(0)
		if below != nil {
			bars.StackOn(below)
		}
		below = bars
		p.Add(bars)
		p.Legend.Add(s.Label, bars)
	}
	p.Legend.Top = true
	p.NominalX(categories...)
	rotateTicks(p, categories)
	return Save(p, path, opt)
}

// HBar draws horizontal bars, first label on top, with labels wrapped at
// wrap characters.
func HBar(path, title, xLabel string, labels []string, values []float64, wrap int, opt Options) error {
	if len(labels) != len(values) || len(labels) == 0 {
		return fmt.Errorf("bar chart %s: %d labels for %d values", path, len(labels), len(values))
	}
	n := len(values)
	rev := make(plotter.Values, n)
	names := make([]string, n)
	for i := range values {
		rev[n-1-i] = values[i]
		l := labels[i]
		if wrap > 0 {
			l = wordwrap.String(l, wrap)
		}
		names[n-1-i] = l
	}
	p := New(title, xLabel, "")
	p.Add(plotter.NewGrid())
	bars, err := plotter.NewBarChart(plotter.Values(zeroNaN(rev)), vg.Points(18))
	if err != nil {
		return fmt.Errorf("bar chart %s: %w", path, err)
	}
	bars.Horizontal = true
	bars.Color = qualitative(1)[0]
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalY(names...)
	opt = opt.or(11*vg.Inch, vg.Length(math.Max(6, float64(n)))*0.8*vg.Inch)
	return Save(p, path, opt)
}

func checkSeries(categories []string, series []Series) error {
	if len(categories) == 0 || len(series) == 0 {
		return fmt.Errorf("nothing to draw")
	}
	for _, s := range series {
		if len(s.Values) != len(categories) {
			return fmt.Errorf("series %q has %d values for %d categories", s.Label, len(s.Values), len(categories))
		}
	}
	return nil
}

func zeroNaN(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = v
		}
	}
	return out
}

// rotateTicks tilts category labels when any of them is long.
func rotateTicks(p *plot.Plot, labels []string) {
	for _, l := range labels {
		if len(l) > 8 {
			p.X.Tick.Label.Rotation = math.Pi / 4
			p.X.Tick.Label.XAlign = draw.XRight
			p.X.Tick.Label.YAlign = draw.YCenter
			return
		}
	}
}
