package profile

import (
	"fmt"
	"sort"
	"strings"
)

// Markdown renders the report as a standalone Markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Profile: %s\n\n", safeName(r.Name))
	fmt.Fprintf(&b, "Rows: %d  \nColumns: %d\n\n", r.Rows, len(r.Cols))

	b.WriteString("## Schema\n\n")
	for _, c := range r.Cols {
		missPct := 0.0
		if total := c.NonNull + c.Missing; total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		fmt.Fprintf(&b, "- **%s**: %s (non-null %d, missing %.1f%%)", name, c.Kind, c.NonNull, missPct)
		switch c.Kind {
		case KindNumeric:
			s := c.Summary
			fmt.Fprintf(&b, "; min %.4g, median %.4g, max %.4g, mean %.4g, std %.4g", s.Min, s.Median, s.Max, s.Mean, s.Std)
			if c.OutlierThreshold > 0 {
				fmt.Fprintf(&b, "; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
				if c.OutliersMaxAbsZ > 0 {
					fmt.Fprintf(&b, " (max |z|≈%.2f)", c.OutliersMaxAbsZ)
				}
			}
		case KindBinary:
			fmt.Fprintf(&b, "; selected by %.1f%%", c.Summary.Mean*100)
		case KindCategorical:
			b.WriteString("; top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%s (%d)", safeVal(kv.Value), kv.Count)
			}
			if c.Unique > len(c.TopValues) {
				fmt.Fprintf(&b, "; unique=%d", c.Unique)
			}
		case KindText:
			b.WriteString("; e.g. ")
			for i, ex := range c.ExampleTexts {
				if i > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(safeVal(truncate(ex, 60)))
			}
		}
		b.WriteString("\n")
	}

	if len(r.Groups) > 0 {
		fmt.Fprintf(&b, "\n## By %s\n\n", r.GroupBy)
		for _, g := range r.Groups {
			fmt.Fprintf(&b, "- %s (n=%d)\n", safeVal(g.Key), g.Size)
			keys := make([]string, 0, len(g.Means))
			for k := range g.Means {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				fmt.Fprintf(&b, "  - %s: mean %.4g\n", k, g.Means[k])
			}
		}
	}

	if len(r.Corr) > 0 {
		b.WriteString("\n## Correlations\n\n")
		for i, p := range r.Corr {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f (n=%d)\n", p.A, p.B, p.R, p.N)
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n## Sample rows\n\n|")
		for _, c := range r.Cols {
			b.WriteString(" " + safeVal(safeName(c.Name)) + " |")
		}
		b.WriteString("\n|")
		for range r.Cols {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for _, row := range r.Samples {
			b.WriteString("|")
			for i := range r.Cols {
				val := ""
				if i < len(row) {
					val = row[i]
				}
				b.WriteString(" " + safeVal(truncate(val, 80)) + " |")
			}
			b.WriteString("\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
