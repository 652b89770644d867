package cluster

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
)

// SplitColumns partitions the table's columns into numeric and categorical
// ones. A column is categorical when all of its values are 0 or 1.
func SplitColumns(t *dataset.Table, exclude ...string) (numeric, categorical []string) {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	for _, c := range t.Columns {
		if skip[c.Name] {
			continue
		}
		if c.IsBinary() {
			categorical = append(categorical, c.Name)
		} else {
			numeric = append(numeric, c.Name)
		}
	}
	return numeric, categorical
}

// Matrices extracts row-major numeric and categorical matrices for
// KPrototypes. Categorical cells are normalised so that "1" and "1.0" match.
func Matrices(t *dataset.Table, numeric, categorical []string) ([][]float64, [][]string, error) {
	var num [][]float64
	if len(numeric) > 0 {
		m, err := t.NumericMatrix(numeric...)
		if err != nil {
			return nil, nil, err
		}
		num = m
	}
	var cat [][]string
	if len(categorical) > 0 {
		cols := make([][]float64, len(categorical))
		for j, name := range categorical {
			v, err := t.Numeric(name)
			if err != nil {
				return nil, nil, err
			}
			cols[j] = v
		}
		cat = make([][]string, t.Len())
		for i := range cat {
			row := make([]string, len(categorical))
			for j := range categorical {
				row[j] = dataset.FormatFloat(cols[j][i])
			}
			cat[i] = row
		}
	}
	return num, cat, nil
}

// Encoded is a purely numeric design matrix.
type Encoded struct {
	Names []string
	Rows  [][]float64
}

// OneHot keeps numeric columns as they are and expands every categorical
// column into one indicator per observed level (no level dropped), named
// "<column>_<level>".
func OneHot(numNames []string, num [][]float64, catNames []string, cat [][]string) (Encoded, error) {
	n := len(num)
	if len(cat) > n {
		n = len(cat)
	}
	if num != nil && len(num) != n || cat != nil && len(cat) != n {
		return Encoded{}, fmt.Errorf("one-hot: numeric rows %d, categorical rows %d", len(num), len(cat))
	}
	d := newData(num, cat, n)
	if d.p != len(numNames) && n > 0 || d.q != len(catNames) && n > 0 {
		return Encoded{}, fmt.Errorf("one-hot: column names do not match the data")
	}
	enc := Encoded{Names: append([]string(nil), numNames...)}
	for j, levels := range d.levels {
		for _, l := range levels {
			if l == "" {
				l = "nan"
			}
			enc.Names = append(enc.Names, catNames[j]+"_"+l)
		}
	}
	enc.Rows = make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 0, len(enc.Names))
		for j := 0; j < d.p; j++ {
			v := d.num[i][j]
			if math.IsNaN(v) {
				return Encoded{}, fmt.Errorf("one-hot: missing value in %s at row %d", numNames[j], i)
			}
			row = append(row, v)
		}
		for j, levels := range d.levels {
			for code := range levels {
				if d.cat[i][j] == code {
					row = append(row, 1)
				} else {
					row = append(row, 0)
				}
			}
		}
		enc.Rows[i] = row
	}
	return enc, nil
}
