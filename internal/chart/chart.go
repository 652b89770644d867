// Package chart renders the survey figures as PNG files with gonum/plot.
package chart

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/KaramelBytes/dkap-cli/internal/utils"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DefaultDPI is the resolution used when Options.DPI is zero.
const DefaultDPI = 150

// Options controls the size and resolution of a rendered figure.
type Options struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
}

func (o Options) or(w, h vg.Length) Options {
	if o.Width <= 0 {
		o.Width = w
	}
	if o.Height <= 0 {
		o.Height = h
	}
	if o.DPI <= 0 {
		o.DPI = DefaultDPI
	}
	return o
}

// Series is a named set of values: one box, one bar group, one polygon.
type Series struct {
	Label  string
	Values []float64
}

// New returns a plot with the house title and axis styling.
func New(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}

// Save renders p to a PNG file at path. The parent directory is created.
func Save(p *plot.Plot, path string, opt Options) error {
	opt = opt.or(8*vg.Inch, 6*vg.Inch)
	c := vgimg.NewWith(vgimg.UseWH(opt.Width, opt.Height), vgimg.UseDPI(opt.DPI))
	p.Draw(draw.New(c))
	return writePNG(c, path)
}

// SavePanels renders a grid of plots with aligned axes into one PNG.
func SavePanels(path string, plots [][]*plot.Plot, opt Options) error {
	if len(plots) == 0 || len(plots[0]) == 0 {
		return fmt.Errorf("chart: no panels for %s", path)
	}
	opt = opt.or(vg.Length(len(plots[0]))*4*vg.Inch, vg.Length(len(plots))*4*vg.Inch)
	c := vgimg.NewWith(vgimg.UseWH(opt.Width, opt.Height), vgimg.UseDPI(opt.DPI))
	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      len(plots[0]),
		PadX:      vg.Millimeter * 2,
		PadY:      vg.Millimeter * 2,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}
	return writePNG(c, path)
}

func writePNG(c *vgimg.Canvas, path string) error {
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// qualitative returns n distinguishable colours (ColorBrewer Set2).
func qualitative(n int) []color.Color {
	out := make([]color.Color, n)
	pal, err := brewer.GetPalette(brewer.TypeQualitative, "Set2", 8)
	for i := range out {
		if err != nil {
			out[i] = plotutil.Color(i)
			continue
		}
		cs := pal.Colors()
		out[i] = cs[i%len(cs)]
	}
	return out
}

func withAlpha(c color.Color, a uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: a}
}
