package chart

import (
	"fmt"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ScatterMatrix draws every pair of columns against each other with a
// density curve on the diagonal. Names label the outer axes.
func ScatterMatrix(path string, names []string, cols [][]float64, opt Options) error {
	n := len(cols)
	if n < 2 || len(names) != n {
		return fmt.Errorf("scatter matrix %s: need at least 2 named columns, got %d", path, n)
	}
	color := qualitative(1)[0]
	plots := make([][]*plot.Plot, n)
	for r := 0; r < n; r++ {
		plots[r] = make([]*plot.Plot, n)
		for c := 0; c < n; c++ {
			p := plot.New()
			if r == n-1 {
				p.X.Label.Text = names[c]
			}
			if c == 0 {
				p.Y.Label.Text = names[r]
			}
			if r == c {
				if k := stats.NewKDE(dataset.DropNaN(cols[c])); k != nil {
					xs, ys := k.Curve(100)
					pts := make(plotter.XYs, len(xs))
					for i := range xs {
						pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
					}
					line, err := plotter.NewLine(pts)
					if err != nil {
						return fmt.Errorf("scatter matrix %s: %w", names[c], err)
					}
					line.Color = color
					line.Width = vg.Points(1.5)
					p.Add(line)
				}
				plots[r][c] = p
				continue
			}
			x, y := dataset.PairwiseComplete(cols[c], cols[r])
			if len(x) > 0 {
				pts := make(plotter.XYs, len(x))
				for i := range x {
					pts[i] = plotter.XY{X: x[i], Y: y[i]}
				}
				sc, err := plotter.NewScatter(pts)
				if err != nil {
					return fmt.Errorf("scatter matrix %s/%s: %w", names[c], names[r], err)
				}
				sc.GlyphStyle.Color = withAlpha(color, 160)
				sc.GlyphStyle.Radius = vg.Points(1.5)
				sc.GlyphStyle.Shape = draw.CircleGlyph{}
				p.Add(sc)
			}
			plots[r][c] = p
		}
	}
	side := vg.Length(n) * 2.5 * vg.Inch
	return SavePanels(path, plots, opt.or(side, side))
}
