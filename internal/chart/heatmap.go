package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
)

// Colour schemes accepted by HeatmapOptions.Palette.
const (
	PaletteSequential = "YlGnBu"
	PaletteDiverging  = "coolwarm"
	PalettePerceptual = "kindlmann"
)

// HeatmapOptions configures Heatmap.
type HeatmapOptions struct {
	Options
	Palette  string
	Min, Max float64 // colour range; both zero means the data range
	Annotate bool
	Format   string // annotation format, default "%.2f"
}

// grid adapts a row-major matrix to plotter.GridXYZ, first row on top.
type grid struct{ z [][]float64 }

func (g grid) Dims() (c, r int)   { return len(g.z[0]), len(g.z) }
func (g grid) Z(c, r int) float64 { return g.z[len(g.z)-1-r][c] }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// Heatmap draws z (rows x cols) as coloured cells.
func Heatmap(path, title string, rowNames, colNames []string, z [][]float64, opt HeatmapOptions) error {
	if len(z) == 0 || len(z[0]) == 0 {
		return fmt.Errorf("heatmap %s: empty matrix", path)
	}
	if len(rowNames) != len(z) || len(colNames) != len(z[0]) {
		return fmt.Errorf("heatmap %s: %dx%d matrix with %d row and %d column names",
			path, len(z), len(z[0]), len(rowNames), len(colNames))
	}
	lo, hi := opt.Min, opt.Max
	if lo == 0 && hi == 0 {
		lo, hi = math.Inf(1), math.Inf(-1)
		for _, row := range z {
			for _, v := range row {
				if math.IsNaN(v) {
					continue
				}
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
		}
		if math.IsInf(lo, 1) {
			lo, hi = 0, 1
		}
	}
	if lo == hi {
		hi = lo + 1
	}
	pal, err := heatPalette(opt.Palette)
	if err != nil {
		return fmt.Errorf("heatmap %s: %w", path, err)
	}

	p := New(title, "", "")
	h := plotter.NewHeatMap(grid{z}, pal)
	h.Min, h.Max = lo, hi
	h.NaN = color.White
	p.Add(h)

	if opt.Annotate {
		format := opt.Format
		if format == "" {
			format = "%.2f"
		}
		var lbl plotter.XYLabels
		for r, row := range z {
			for c, v := range row {
				if math.IsNaN(v) {
					continue
				}
				lbl.XYs = append(lbl.XYs, plotter.XY{X: float64(c), Y: float64(len(z) - 1 - r)})
				lbl.Labels = append(lbl.Labels, fmt.Sprintf(format, v))
			}
		}
		if len(lbl.Labels) > 0 {
			labels, err := plotter.NewLabels(lbl)
			if err != nil {
				return fmt.Errorf("heatmap %s: %w", path, err)
			}
			for i := range labels.TextStyle {
				labels.TextStyle[i].XAlign = draw.XCenter
				labels.TextStyle[i].YAlign = draw.YCenter
			}
			p.Add(labels)
		}
	}

	rows := make([]string, len(rowNames))
	for i, n := range rowNames {
		rows[len(rowNames)-1-i] = n
	}
	p.NominalX(colNames...)
	p.NominalY(rows...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	return Save(p, path, opt.Options)
}

func heatPalette(name string) (palette.Palette, error) {
	switch name {
	case "", PaletteSequential:
		return brewer.GetPalette(brewer.TypeSequential, "YlGnBu", 9)
	case PaletteDiverging:
		cm := moreland.SmoothBlueRed()
		cm.SetMin(0)
		cm.SetMax(1)
		return cm.Palette(64), nil
	case PalettePerceptual:
		cm := moreland.ExtendedKindlmann()
		cm.SetMin(0)
		cm.SetMax(1)
		return cm.Palette(64), nil
	}
	return nil, fmt.Errorf("unknown palette %q", name)
}
