package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"gonum.org/v1/gonum/stat/distuv"
)

// Contingency is a two-way frequency table.
type Contingency struct {
	RowLabels []string
	ColLabels []string
	Counts    [][]float64
}

// Crosstab counts co-occurrences of the labels in a and b. Pairs where either
// side is empty are skipped. Labels are sorted.
func Crosstab(a, b []string) Contingency {
	rowIdx, colIdx := map[string]int{}, map[string]int{}
	var rows, cols []string
	type pair struct{ r, c string }
	var pairs []pair
	for i := range a {
		if i >= len(b) {
			break
		}
		r, c := strings.TrimSpace(a[i]), strings.TrimSpace(b[i])
		if r == "" || c == "" {
			continue
		}
		if _, ok := rowIdx[r]; !ok {
			rowIdx[r] = 0
			rows = append(rows, r)
		}
		if _, ok := colIdx[c]; !ok {
			colIdx[c] = 0
			cols = append(cols, c)
		}
		pairs = append(pairs, pair{r, c})
	}
	dataset.SortLabels(rows)
	dataset.SortLabels(cols)
	for i, r := range rows {
		rowIdx[r] = i
	}
	for i, c := range cols {
		colIdx[c] = i
	}
	counts := make([][]float64, len(rows))
	for i := range counts {
		counts[i] = make([]float64, len(cols))
	}
	for _, p := range pairs {
		counts[rowIdx[p.r]][colIdx[p.c]]++
	}
	return Contingency{RowLabels: rows, ColLabels: cols, Counts: counts}
}

// ChiSquareResult is a chi-square test of independence.
type ChiSquareResult struct {
	Chi2     float64
	P        float64
	Dof      int
	N        float64
	CramersV float64
	Expected [][]float64
}

// ChiSquare tests independence of the rows and columns of a contingency
// table. Yates' continuity correction is applied when dof == 1.
func ChiSquare(t Contingency) (ChiSquareResult, error) {
	r := len(t.Counts)
	if r == 0 || len(t.Counts[0]) == 0 {
		return ChiSquareResult{}, fmt.Errorf("empty contingency table: %w", ErrInsufficientData)
	}
	k := len(t.Counts[0])
	rowSum := make([]float64, r)
	colSum := make([]float64, k)
	total := 0.0
	for i, row := range t.Counts {
		if len(row) != k {
			return ChiSquareResult{}, fmt.Errorf("ragged contingency table")
		}
		for j, v := range row {
			rowSum[i] += v
			colSum[j] += v
			total += v
		}
	}
	if total == 0 {
		return ChiSquareResult{}, fmt.Errorf("contingency table sums to zero: %w", ErrInsufficientData)
	}
	exp := make([][]float64, r)
	for i := range exp {
		exp[i] = make([]float64, k)
		for j := range exp[i] {
			exp[i][j] = rowSum[i] * colSum[j] / total
			if exp[i][j] == 0 {
				return ChiSquareResult{}, fmt.Errorf("cell (%d,%d): %w", i, j, ErrZeroExpected)
			}
		}
	}
	dof := (r - 1) * (k - 1)
	res := ChiSquareResult{Dof: dof, N: total, Expected: exp}
	if dof == 0 {
		res.Chi2, res.P = 0, 1
		res.CramersV = math.NaN()
		return res, nil
	}
	for i := 0; i < r; i++ {
		for j := 0; j < k; j++ {
			o := t.Counts[i][j]
			e := exp[i][j]
			if dof == 1 {
				diff := e - o
				adj := math.Min(0.5, math.Abs(diff))
				if diff < 0 {
					adj = -adj
				}
				o += adj
			}
			res.Chi2 += (o - e) * (o - e) / e
		}
	}
	res.P = distuv.ChiSquared{K: float64(dof)}.Survival(res.Chi2)
	minDim := math.Min(float64(r-1), float64(k-1))
	if minDim == 0 {
		res.CramersV = math.NaN()
	} else {
		res.CramersV = math.Sqrt(res.Chi2 / total / minDim)
	}
	return res, nil
}
