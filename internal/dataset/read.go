package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadOptions controls how a file is turned into a Table.
type ReadOptions struct {
	// Delimiter for CSV. If 0, chosen by extension (.tsv => tab, else comma).
	Delimiter rune
	// HeaderRow is the zero-based row index of the first header row. Rows
	// before it (section banners in survey exports) are discarded.
	HeaderRow int
	// HeaderRows is the number of stacked header rows. Values > 1 produce
	// flattened names joined with "_". Defaults to 1.
	HeaderRows int
	// Locale for numeric cells. Zero value auto-detects per cell.
	Locale Locale
	// XLSX sheet selection. SheetName wins over SheetIndex (1-based).
	SheetName  string
	SheetIndex int
}

// Load reads a CSV, TSV or XLSX file depending on its extension.
func Load(path string, opt ReadOptions) (*Table, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return ReadXLSX(path, opt)
	}
	return ReadCSV(path, opt)
}

// ReadCSV loads a delimited file into a Table.
func ReadCSV(path string, opt ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim

	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read %s row %d: %w", filepath.Base(path), len(records)+1, err)
		}
		records = append(records, rec)
	}
	t, err := FromRecords(filepath.Base(path), records, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// FromRecords builds a Table from raw rows according to the header options.
func FromRecords(name string, records [][]string, opt ReadOptions) (*Table, error) {
	nh := opt.HeaderRows
	if nh <= 0 {
		nh = 1
	}
	if opt.HeaderRow < 0 {
		return nil, fmt.Errorf("invalid header row %d", opt.HeaderRow)
	}
	if len(records) < opt.HeaderRow+nh {
		return nil, fmt.Errorf("expected %d header row(s) at row %d, file has %d rows: %w",
			nh, opt.HeaderRow+1, len(records), ErrEmptyTable)
	}
	headers := records[opt.HeaderRow : opt.HeaderRow+nh]
	body := records[opt.HeaderRow+nh:]

	ncol := 0
	for _, h := range headers {
		if len(h) > ncol {
			ncol = len(h)
		}
	}
	if len(headers) > 0 && len(headers[0]) > 0 {
		headers[0][0] = strings.TrimPrefix(headers[0][0], "\ufeff")
	}
	levels := make([][]string, ncol)
	for lvl, h := range headers {
		prev := ""
		for j := 0; j < ncol; j++ {
			v := ""
			if j < len(h) {
				v = strings.TrimSpace(h[j])
			}
			// Spreadsheet exports leave merged upper header cells blank.
			if v == "" && lvl < nh-1 {
				v = prev
			}
			prev = v
			levels[j] = append(levels[j], v)
		}
	}

	t := &Table{Name: name}
	seen := map[string]int{}
	for j := 0; j < ncol; j++ {
		colName := flattenHeader(levels[j], j)
		if n, dup := seen[colName]; dup {
			seen[colName] = n + 1
			colName = colName + "." + strconv.Itoa(n)
		} else {
			seen[colName] = 1
		}
		c := &Column{Name: colName, Cells: make([]string, len(body))}
		if nh > 1 {
			c.Levels = levels[j]
		}
		t.Columns = append(t.Columns, c)
	}
	localized := opt.Locale != (Locale{})
	for i, rec := range body {
		for j := 0; j < ncol; j++ {
			if j >= len(rec) {
				continue
			}
			v := strings.TrimSpace(rec[j])
			if localized && v != "" {
				if f, ok := opt.Locale.Parse(v); ok {
					v = FormatFloat(f)
				}
			}
			t.Columns[j].Cells[i] = v
		}
	}
	t.reindex()
	return t, nil
}

// flattenHeader joins multi-level header cells into a single column name.
// Levels that all carry the same label (the respondent id column of a
// three-row export) collapse to that label.
func flattenHeader(levels []string, idx int) string {
	if len(levels) == 1 {
		if levels[0] == "" {
			return "Unnamed: " + strconv.Itoa(idx)
		}
		return levels[0]
	}
	same := true
	for _, l := range levels[1:] {
		if l != levels[0] {
			same = false
			break
		}
	}
	if same && levels[0] != "" {
		return levels[0]
	}
	parts := make([]string, len(levels))
	for i, l := range levels {
		if l == "" {
			l = "Unnamed: " + strconv.Itoa(idx) + "_level_" + strconv.Itoa(i)
		}
		parts[i] = l
	}
	return strings.ReplaceAll(strings.Join(parts, "_"), " ", "_")
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// ParseDelimiter maps a user-facing delimiter name to a rune.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %s", s)
	}
}
