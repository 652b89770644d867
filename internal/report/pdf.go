// Package report renders analysis results as PDF documents, Excel
// workbooks and console tables.
package report

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/utils"
	"github.com/go-pdf/fpdf"
)

const (
	marginLeft   = 14.0
	marginTop    = 18.0
	marginRight  = 14.0
	marginBottom = 15.0
	lineHeight   = 5.0
)

// Document is an A4 report built top to bottom.
type Document struct {
	pdf  *fpdf.Fpdf
	tr   func(string) string
	path string
}

// NewDocument starts a report with a centred title and an optional subtitle.
func NewDocument(path, title, subtitle string) *Document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetTitle(title, true)
	pdf.AliasNbPages("")
	d := &Document{pdf: pdf, path: path, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 8, d.tr(title), "", "C", false)
	if subtitle != "" {
		pdf.SetFont("Helvetica", "", 12)
		pdf.SetTextColor(0, 51, 102)
		pdf.MultiCell(0, 7, d.tr(subtitle), "", "C", false)
	}
	pdf.Ln(6)
	return d
}

// Heading adds a section heading.
func (d *Document) Heading(text string) {
	d.pdf.Ln(2)
	d.pdf.SetFont("Helvetica", "B", 12)
	d.pdf.SetTextColor(0, 51, 102)
	d.pdf.MultiCell(0, 7, d.tr(text), "", "L", false)
	d.pdf.Ln(1)
}

// Paragraph adds a block of body text.
func (d *Document) Paragraph(text string) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.MultiCell(0, lineHeight, d.tr(text), "", "L", false)
	d.pdf.Ln(2)
}

// Bold adds a single bold line.
func (d *Document) Bold(text string) {
	d.pdf.SetFont("Helvetica", "B", 10)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.MultiCell(0, lineHeight, d.tr(text), "", "L", false)
}

// Preformatted adds monospaced lines, e.g. a regression summary.
func (d *Document) Preformatted(lines []string) {
	d.pdf.SetFont("Courier", "", 7)
	d.pdf.SetTextColor(0, 0, 0)
	for _, l := range lines {
		d.pdf.CellFormat(0, 3.4, d.tr(l), "", 1, "L", false, 0, "")
	}
	d.pdf.Ln(2)
}

// Spacer adds vertical space in millimetres.
func (d *Document) Spacer(h float64) { d.pdf.Ln(h) }

// Image embeds a PNG at the given width (mm), keeping its aspect ratio.
// A missing file is noted in the text instead.
func (d *Document) Image(path string, width float64) {
	if !utils.FileExists(path) {
		d.Paragraph(fmt.Sprintf("[%s not found]", path))
		return
	}
	opt := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	info := d.pdf.RegisterImageOptions(path, opt)
	if info == nil || d.pdf.Err() {
		d.pdf.ClearError()
		d.Paragraph(fmt.Sprintf("[%s could not be read]", path))
		return
	}
	pw, _ := d.pdf.GetPageSize()
	if width <= 0 || width > pw-marginLeft-marginRight {
		width = pw - marginLeft - marginRight
	}
	x := (pw - width) / 2
	d.pdf.ImageOptions(path, x, -1, width, 0, true, opt, 0, "")
	d.pdf.Ln(3)
}

// Table adds a grid table with a dark header row. Cells wrap within
// columns sized by their content.
func (d *Document) Table(header []string, rows [][]string) {
	if len(header) == 0 {
		return
	}
	pdf := d.pdf
	pw, ph := pdf.GetPageSize()
	avail := pw - marginLeft - marginRight
	fontSize := 8.0
	pdf.SetFont("Helvetica", "", fontSize)

	widths := make([]float64, len(header))
	measure := func(i int, s string) {
		if w := pdf.GetStringWidth(d.tr(s)) + 4; w > widths[i] {
			widths[i] = w
		}
	}
	for i, h := range header {
		pdf.SetFont("Helvetica", "B", fontSize)
		measure(i, h)
	}
	pdf.SetFont("Helvetica", "", fontSize)
	for _, r := range rows {
		for i := range header {
			if i < len(r) {
				measure(i, r[i])
			}
		}
	}
	total := 0.0
	for _, w := range widths {
		total += w
	}
	if total > avail {
		for i := range widths {
			widths[i] *= avail / total
		}
	}

	drawRow := func(cells []string, head bool) {
		style := ""
		if head {
			style = "B"
			pdf.SetFillColor(0, 51, 102)
			pdf.SetTextColor(255, 255, 255)
		} else {
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.SetFont("Helvetica", style, fontSize)
		lines := 1
		split := make([][]string, len(header))
		for i := range header {
			txt := ""
			if i < len(cells) {
				txt = d.tr(cells[i])
			}
			for _, l := range pdf.SplitLines([]byte(txt), widths[i]-2) {
				split[i] = append(split[i], string(l))
			}
			if len(split[i]) > lines {
				lines = len(split[i])
			}
		}
		h := float64(lines)*4 + 1
		if pdf.GetY()+h > ph-marginBottom {
			pdf.AddPage()
		}
		rect := "D"
		if head {
			rect = "FD"
		}
		x, y := pdf.GetXY()
		for i := range header {
			pdf.Rect(x, y, widths[i], h, rect)
			pdf.SetXY(x+1, y+0.5)
			align := "L"
			if !head && i > 0 {
				align = "C"
			}
			pdf.MultiCell(widths[i]-2, 4, strings.Join(split[i], "\n"), "", align, false)
			x += widths[i]
		}
		pdf.SetXY(marginLeft, y+h)
	}
	pdf.SetDrawColor(128, 128, 128)
	pdf.SetLineWidth(0.2)
	drawRow(header, true)
	for _, r := range rows {
		drawRow(r, false)
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(3)
}

// TableFrom adds a dataset table, rounding numeric cells to digits places.
func (d *Document) TableFrom(t *dataset.Table, digits int) {
	rows := make([][]string, t.Len())
	for i := range rows {
		rows[i] = RoundCells(t.Row(i), digits)
	}
	d.Table(t.Names(), rows)
}

// RoundCells formats numeric cells with the given number of decimals and
// leaves other cells untouched.
func RoundCells(cells []string, digits int) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c
		if v, err := strconv.ParseFloat(strings.TrimSpace(c), 64); err == nil && !math.IsInf(v, 0) && strings.ContainsAny(c, ".eE") {
			out[i] = strconv.FormatFloat(v, 'f', digits, 64)
		}
	}
	return out
}

// Save writes the PDF.
func (d *Document) Save() error {
	if d.pdf.Err() {
		return fmt.Errorf("build %s: %w", d.path, d.pdf.Error())
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return fmt.Errorf("render %s: %w", d.path, err)
	}
	return utils.SafeWriteFile(d.path, buf.Bytes())
}
