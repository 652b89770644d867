package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrColumnNotFound is returned when a requested column does not exist.
	ErrColumnNotFound = errors.New("column not found")
	// ErrEmptyTable is returned when a table has no rows to work with.
	ErrEmptyTable = errors.New("table has no rows")
)

// Column is a named column of raw cells. Numeric values are parsed lazily.
type Column struct {
	Name string
	// Levels holds the individual header levels when the column came from a
	// multi-row header. Nil for single-row headers.
	Levels []string
	Cells  []string

	nums []float64
}

// Table is an in-memory, column-oriented dataset.
type Table struct {
	Name    string
	Columns []*Column
	index   map[string]int
}

// New creates an empty table with the given column names.
func New(name string, cols ...string) *Table {
	t := &Table{Name: name}
	for _, c := range cols {
		t.Columns = append(t.Columns, &Column{Name: c})
	}
	t.reindex()
	return t
}

func (t *Table) ensureIndex() {
	if t.index == nil || len(t.index) > len(t.Columns) {
		t.reindex()
	}
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c.Name]; !dup {
			t.index[c.Name] = i
		}
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	t.ensureIndex()
	_, ok := t.index[name]
	return ok
}

// Col returns the named column.
func (t *Table) Col(name string) (*Column, error) {
	t.ensureIndex()
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", t.Name, name, ErrColumnNotFound)
	}
	return t.Columns[i], nil
}

// Numeric returns the parsed numeric values of the named column (NaN where
// a cell is empty or not a number).
func (t *Table) Numeric(name string) ([]float64, error) {
	c, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	return c.Numeric(), nil
}

// Strings returns the raw cells of the named column.
func (t *Table) Strings(name string) ([]string, error) {
	c, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	return c.Cells, nil
}

// Numeric parses the column cells once and caches the result.
func (c *Column) Numeric() []float64 {
	if c.nums != nil && len(c.nums) == len(c.Cells) {
		return c.nums
	}
	out := make([]float64, len(c.Cells))
	for i, s := range c.Cells {
		if v, ok := ParseNumber(s); ok {
			out[i] = v
		} else {
			out[i] = math.NaN()
		}
	}
	c.nums = out
	return out
}

// IsNumeric reports whether every non-empty cell parses as a number and at
// least one cell is present.
func (c *Column) IsNumeric() bool {
	seen := false
	for i, v := range c.Numeric() {
		if strings.TrimSpace(c.Cells[i]) == "" {
			continue
		}
		if math.IsNaN(v) {
			return false
		}
		seen = true
	}
	return seen
}

// IsBinary reports whether every non-missing value is 0 or 1.
func (c *Column) IsBinary() bool {
	seen := false
	for i, v := range c.Numeric() {
		if strings.TrimSpace(c.Cells[i]) == "" {
			continue
		}
		if v != 0 && v != 1 {
			return false
		}
		seen = true
	}
	return seen
}

// Append adds a row. Values are formatted with FormatValue.
func (t *Table) Append(values ...any) {
	for i, c := range t.Columns {
		var s string
		if i < len(values) {
			s = FormatValue(values[i])
		}
		c.Cells = append(c.Cells, s)
		c.nums = nil
	}
}

// AddColumn appends (or replaces) a column of raw cells.
func (t *Table) AddColumn(name string, cells []string) {
	t.ensureIndex()
	cp := make([]string, len(cells))
	copy(cp, cells)
	if i, ok := t.index[name]; ok {
		t.Columns[i] = &Column{Name: name, Cells: cp}
		return
	}
	t.Columns = append(t.Columns, &Column{Name: name, Cells: cp})
	t.index[name] = len(t.Columns) - 1
}

// AddNumeric appends (or replaces) a numeric column.
func (t *Table) AddNumeric(name string, vals []float64) {
	cells := make([]string, len(vals))
	for i, v := range vals {
		cells[i] = FormatFloat(v)
	}
	t.AddColumn(name, cells)
	c, _ := t.Col(name)
	c.nums = append([]float64(nil), vals...)
}

// InsertColumn inserts a column at position pos.
func (t *Table) InsertColumn(pos int, name string, cells []string) {
	if pos < 0 || pos > len(t.Columns) {
		pos = len(t.Columns)
	}
	cp := make([]string, len(cells))
	copy(cp, cells)
	col := &Column{Name: name, Cells: cp}
	t.Columns = append(t.Columns, nil)
	copy(t.Columns[pos+1:], t.Columns[pos:])
	t.Columns[pos] = col
	t.reindex()
}

// Rename renames columns according to the mapping.
func (t *Table) Rename(mapping map[string]string) {
	for _, c := range t.Columns {
		if to, ok := mapping[c.Name]; ok {
			c.Name = to
		}
	}
	t.reindex()
}

// Select returns a new table with only the named columns, in that order.
func (t *Table) Select(names ...string) (*Table, error) {
	out := &Table{Name: t.Name}
	for _, n := range names {
		c, err := t.Col(n)
		if err != nil {
			return nil, err
		}
		out.Columns = append(out.Columns, c.clone())
	}
	out.reindex()
	return out, nil
}

// Drop returns a new table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := &Table{Name: t.Name}
	for _, c := range t.Columns {
		if skip[c.Name] {
			continue
		}
		out.Columns = append(out.Columns, c.clone())
	}
	out.reindex()
	return out
}

// Rows returns a new table containing only the given row indices.
func (t *Table) Rows(idx []int) *Table {
	out := &Table{Name: t.Name}
	for _, c := range t.Columns {
		nc := &Column{Name: c.Name, Levels: c.Levels, Cells: make([]string, len(idx))}
		for i, r := range idx {
			nc.Cells[i] = c.Cells[r]
		}
		out.Columns = append(out.Columns, nc)
	}
	out.reindex()
	return out
}

// Row returns the raw cells of row i.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = c.Cells[i]
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name}
	for _, c := range t.Columns {
		out.Columns = append(out.Columns, c.clone())
	}
	out.reindex()
	return out
}

func (c *Column) clone() *Column {
	cells := make([]string, len(c.Cells))
	copy(cells, c.Cells)
	return &Column{Name: c.Name, Levels: c.Levels, Cells: cells}
}

// NumericMatrix returns the named columns as row-major float slices.
func (t *Table) NumericMatrix(names ...string) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for j, n := range names {
		v, err := t.Numeric(n)
		if err != nil {
			return nil, err
		}
		cols[j] = v
	}
	n := t.Len()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(names))
		for j := range names {
			row[j] = cols[j][i]
		}
		out[i] = row
	}
	return out, nil
}

// DropNA returns a table keeping only rows where every named column has a
// numeric value. With no names, all columns are checked.
func (t *Table) DropNA(names ...string) (*Table, error) {
	if len(names) == 0 {
		names = t.Names()
	}
	vals := make([][]float64, len(names))
	for j, n := range names {
		v, err := t.Numeric(n)
		if err != nil {
			return nil, err
		}
		vals[j] = v
	}
	var keep []int
	for i := 0; i < t.Len(); i++ {
		ok := true
		for j := range names {
			if math.IsNaN(vals[j][i]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	return t.Rows(keep), nil
}

// RowMean returns the per-row mean of the named columns, skipping NaN.
// Rows with no values yield NaN.
func (t *Table) RowMean(names ...string) ([]float64, error) {
	m, err := t.NumericMatrix(names...)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(m))
	for i, row := range m {
		var sum float64
		var n int
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out, nil
}

// Group is a set of row indices sharing the same label.
type Group struct {
	Label string
	Rows  []int
}

// GroupBy partitions rows by the raw value of the named column. Rows with an
// empty label are skipped. Groups are ordered numerically when every label is
// a number, lexically otherwise.
func (t *Table) GroupBy(name string) ([]Group, error) {
	c, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	byLabel := map[string]*Group{}
	var order []string
	for i, raw := range c.Cells {
		lbl := normalizeLabel(raw)
		if lbl == "" {
			continue
		}
		g, ok := byLabel[lbl]
		if !ok {
			g = &Group{Label: lbl}
			byLabel[lbl] = g
			order = append(order, lbl)
		}
		g.Rows = append(g.Rows, i)
	}
	SortLabels(order)
	out := make([]Group, 0, len(order))
	for _, l := range order {
		out = append(out, *byLabel[l])
	}
	return out, nil
}

// normalizeLabel turns "2.0" into "2" so that float-typed cluster ids group
// with integer ones.
func normalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return s
}

// SortLabels sorts labels numerically when all parse as numbers.
func SortLabels(labels []string) {
	allNum := true
	for _, l := range labels {
		if _, err := strconv.ParseFloat(l, 64); err != nil {
			allNum = false
			break
		}
	}
	if allNum {
		sort.SliceStable(labels, func(i, j int) bool {
			a, _ := strconv.ParseFloat(labels[i], 64)
			b, _ := strconv.ParseFloat(labels[j], 64)
			return a < b
		})
		return
	}
	sort.Strings(labels)
}

// Pick returns the values at the given indices.
func Pick(vals []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = vals[r]
	}
	return out
}

// DropNaN returns the values that are not NaN.
func DropNaN(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// PairwiseComplete returns the aligned values of x and y where neither is NaN.
func PairwiseComplete(x, y []float64) ([]float64, []float64) {
	var ox, oy []float64
	for i := range x {
		if i >= len(y) || math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		ox = append(ox, x[i])
		oy = append(oy, y[i])
	}
	return ox, oy
}
