package report

import (
	"fmt"
	"io"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Print renders a dataset table to w, rounding numeric cells to digits
// places. An optional title is printed above it.
func Print(w io.Writer, title string, t *dataset.Table, digits int) {
	if t.Len() == 0 {
		_, _ = fmt.Fprintf(w, "%s (0 rows)\n", title)
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	if title != "" {
		tw.SetTitle(title)
	}
	header := make(table.Row, len(t.Columns))
	configs := make([]table.ColumnConfig, len(t.Columns))
	for j, c := range t.Columns {
		header[j] = c.Name
		configs[j] = table.ColumnConfig{Number: j + 1}
		if c.IsNumeric() {
			configs[j].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)
	for i := 0; i < t.Len(); i++ {
		cells := RoundCells(t.Row(i), digits)
		row := make(table.Row, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		tw.AppendRow(row)
	}
	tw.Render()
}
