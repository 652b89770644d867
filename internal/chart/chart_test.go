package chart

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"
)

var small = Options{DPI: 30}

func requirePNG(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")), "%s is not a png", path)
}

func TestCharts(t *testing.T) {
	dir := t.TempDir()
	groups := []Series{
		{Label: "0", Values: []float64{1, 2, 3, 4, math.NaN()}},
		{Label: "1", Values: []float64{3, 4, 5, 6}},
		{Label: "2"},
	}
	cases := map[string]func(string) error{
		"box.png": func(p string) error {
			return Boxplot(p, "Knowledge Score Distribution per Cluster", "Cluster", "Knowledge_score", groups, true, small)
		},
		"heat.png": func(p string) error {
			return Heatmap(p, "Demographic Distribution per Cluster", []string{"gender_F", "gender_M"}, []string{"0", "1"},
				[][]float64{{0.2, 0.8}, {0.8, math.NaN()}}, HeatmapOptions{Options: small, Annotate: true})
		},
		"corr.png": func(p string) error {
			return Heatmap(p, "Correlation", []string{"a", "b"}, []string{"a", "b"},
				[][]float64{{1, -0.3}, {-0.3, 1}}, HeatmapOptions{Options: small, Palette: PaletteDiverging, Min: -1, Max: 1})
		},
		"bar.png": func(p string) error {
			return Bar(p, "Q6 by group", "Q32", "Mean", []string{"Urban", "Rural"}, []float64{3.2, 2.9}, small)
		},
		"grouped.png": func(p string) error {
			return GroupedBar(p, "Means", "", "", []string{"a", "b"}, []Series{{Label: "Q6", Values: []float64{1, 2}}, {Label: "Q15", Values: []float64{2, 1}}}, small)
		},
		"stacked.png": func(p string) error {
			return StackedBar(p, "Options", "", "%", []string{"a", "b"}, []Series{{Label: "yes", Values: []float64{60, 30}}, {Label: "no", Values: []float64{40, 70}}}, small)
		},
		"hbar.png": func(p string) error {
			return HBar(p, "Top combinations", "Support (%)", []string{"water_quality_Q1_Public_water_supply, bottle", "x"}, []float64{40, 20}, 45, small)
		},
		"scree.png": func(p string) error {
			return Scree(p, []float64{2.8, 1.7, 0.4, 0.3}, small)
		},
		"dist.png": func(p string) error {
			return Distributions(p, "Awareness", "Score", []Series{{Label: "a", Values: []float64{1, 2, 2, 3, 4}}, {Label: "b", Values: []float64{5, 5}}}, 6, small)
		},
		"matrix.png": func(p string) error {
			return ScatterMatrix(p, []string{"x", "y"}, [][]float64{{1, 2, 3, 4}, {2, 1, 4, 3}}, small)
		},
		"radar.png": func(p string) error {
			return Radar(p, "Cluster profiles", []string{"knowledge", "awareness", "attitude"}, []Series{{Label: "Cluster 0", Values: []float64{0.2, 0.5, 0.9}}}, small)
		},
	}
	for name, draw := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", name)
			require.NoError(t, draw(path))
			requirePNG(t, path)
		})
	}
}

func TestLinePlotWithMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silhouette_scores.png")
	p, err := LinePlot("Silhouette Scores vs Number of Clusters", "Number of Clusters (k)", "Silhouette Score",
		[]float64{2, 3, 4}, []float64{0.31, 0.42, 0.28})
	require.NoError(t, err)
	require.NoError(t, MarkPoint(p, 3, 0.42, "Best k = 3 (0.420)"))
	require.NoError(t, Save(p, path, small))
	requirePNG(t, path)

	assert.Equal(t, []float64{2, 3, 4}, tickValues(integerTicks{}.Ticks(1.6, 4.2)))
}

func TestChartErrors(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, Boxplot(filepath.Join(dir, "a.png"), "", "", "", nil, false, small))
	assert.Error(t, Heatmap(filepath.Join(dir, "b.png"), "", []string{"a"}, []string{"x", "y"}, [][]float64{{1}}, HeatmapOptions{}))
	assert.Error(t, Heatmap(filepath.Join(dir, "b.png"), "", []string{"a"}, []string{"x"}, [][]float64{{1}}, HeatmapOptions{Palette: "jet"}))
	assert.Error(t, Bar(filepath.Join(dir, "c.png"), "", "", "", []string{"a"}, []float64{1, 2}, small))
	assert.Error(t, Radar(filepath.Join(dir, "d.png"), "", []string{"a", "b"}, nil, small))
	_, err := LinePlot("", "", "", []float64{1}, []float64{math.NaN()})
	assert.Error(t, err)
}

func tickValues(ticks []plot.Tick) []float64 {
	out := make([]float64, len(ticks))
	for i, tk := range ticks {
		out[i] = tk.Value
	}
	return out
}
