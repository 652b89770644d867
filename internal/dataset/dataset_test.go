package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadCSVHeaderOffset(t *testing.T) {
	p := writeFile(t, "k.csv", strings.Join([]string{
		"Section A,,",
		"respondent_id,Q1,Q2",
		"1,1,0",
		"2,0,1",
		"3,1,",
	}, "\n"))
	tbl, err := ReadCSV(p, ReadOptions{HeaderRow: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"respondent_id", "Q1", "Q2"}, tbl.Names())
	assert.Equal(t, 3, tbl.Len())

	q2, err := tbl.Numeric("Q2")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(q2[2]))

	c, _ := tbl.Col("Q1")
	assert.True(t, c.IsBinary())
}

func TestReadCSVMultiLevelHeader(t *testing.T) {
	p := writeFile(t, "a.csv", strings.Join([]string{
		"respondent_id,Q6,,Q7",
		"respondent_id,How aware,How aware,Sources",
		"respondent_id,Response,Response 2,TV",
		"10,4,5,1",
	}, "\n"))
	tbl, err := ReadCSV(p, ReadOptions{HeaderRows: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"respondent_id",
		"Q6_How_aware_Response",
		"Q6_How_aware_Response_2",
		"Q7_Sources_TV",
	}, tbl.Names())
	c, err := tbl.Col("Q7_Sources_TV")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q7", "Sources", "TV"}, c.Levels)
}

func TestReadCSVLocaleAndDuplicates(t *testing.T) {
	p := writeFile(t, "l.tsv", "x\tx\ty\n1.234,5\t2\ta\n")
	tbl, err := ReadCSV(p, ReadOptions{Locale: Locale{DecimalSeparator: ',', ThousandsSeparator: '.'}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x.1", "y"}, tbl.Names())
	x, _ := tbl.Numeric("x")
	assert.InDelta(t, 1234.5, x[0], 1e-9)
}

func TestMissingHeaderRows(t *testing.T) {
	_, err := FromRecords("t", [][]string{{"a"}}, ReadOptions{HeaderRow: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyTable))
}

func TestColumnNotFound(t *testing.T) {
	tbl := New("t", "a")
	_, err := tbl.Numeric("b")
	assert.ErrorIs(t, err, ErrColumnNotFound)
	_, err = tbl.Select("a", "b")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestGroupByNormalisesLabels(t *testing.T) {
	tbl := New("t", "cluster", "v")
	tbl.Append("2.0", 1.0)
	tbl.Append("10", 2.0)
	tbl.Append("2", 3.0)
	tbl.Append("", 4.0)
	groups, err := tbl.GroupBy("cluster")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "2", groups[0].Label)
	assert.Equal(t, []int{0, 2}, groups[0].Rows)
	assert.Equal(t, "10", groups[1].Label)
}

func TestMerge(t *testing.T) {
	left := New("l", "respondent_id", "score")
	left.Append(1, 0.5)
	left.Append(2, 0.7)
	left.Append(3, 0.9)
	right := New("r", "respondent_id", "cluster", "score")
	right.Append("1.0", 0, 5)
	right.Append(3, 1, 6)

	inner, err := Merge(left, right, "respondent_id", InnerJoin)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.Len())
	assert.Equal(t, []string{"respondent_id", "score", "cluster", "score_y"}, inner.Names())

	lj, err := Merge(left, right, "respondent_id", LeftJoin)
	require.NoError(t, err)
	assert.Equal(t, 3, lj.Len())
	cl, _ := lj.Strings("cluster")
	assert.Equal(t, []string{"0", "", "1"}, cl)

	_, err = Merge(left, right, "missing", LeftJoin)
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestDropNAAndRowMean(t *testing.T) {
	tbl := New("t", "a", "b")
	tbl.Append(1, 3)
	tbl.Append(nil, 4)
	tbl.Append(2, "x")
	m, err := tbl.RowMean("a", "b")
	require.NoError(t, err)
	assert.Equal(t, 2.0, m[0])
	assert.Equal(t, 4.0, m[1])
	assert.Equal(t, 2.0, m[2])

	clean, err := tbl.DropNA()
	require.NoError(t, err)
	assert.Equal(t, 1, clean.Len())
}

func TestWriteCSVRoundTrip(t *testing.T) {
	tbl := New("t", "name", "value")
	tbl.Append("a", 1.5)
	tbl.Append("b", math.NaN())
	p := filepath.Join(t.TempDir(), "out", "t.csv")
	require.NoError(t, tbl.WriteCSV(p))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "name,value\na,1.5\nb,\n", string(b))
}

func TestReadXLSXSheetSelection(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Data", "A1", &[]any{"id", "v"}))
	require.NoError(t, f.SetSheetRow("Data", "A2", &[]any{1, 2.5}))
	p := filepath.Join(t.TempDir(), "w.xlsx")
	require.NoError(t, f.SaveAs(p))
	require.NoError(t, f.Close())

	tbl, err := Load(p, ReadOptions{SheetName: "data"})
	require.NoError(t, err)
	v, _ := tbl.Numeric("v")
	assert.Equal(t, []float64{2.5}, v)

	_, err = Load(p, ReadOptions{SheetName: "nope"})
	assert.Error(t, err)
	_, err = Load(p, ReadOptions{SheetIndex: 5})
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"1,5":       1.5,
		"1.234,5":   1234.5,
		"1,234.5":   1234.5,
		"45%":       45,
		"True":      1,
		"false":     0,
		"-2.5e-1":   -0.25,
		"1 000": 1000,
	}
	for in, want := range cases {
		got, ok := ParseNumber(in)
		require.True(t, ok, in)
		assert.InDelta(t, want, got, 1e-12, in)
	}
	for _, in := range []string{"", "NaN", "abc", "n/a"} {
		_, ok := ParseNumber(in)
		assert.False(t, ok, in)
	}
}
