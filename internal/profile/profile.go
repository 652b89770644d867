// Package profile summarises the columns of a survey export: inferred kind,
// numeric statistics, robust outliers, top categories, correlations and
// per-group means.
package profile

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/stats"
)

// Column kinds.
const (
	KindNumeric     = "numeric"
	KindBinary      = "binary"
	KindDatetime    = "datetime"
	KindCategorical = "categorical"
	KindText        = "text"
	KindEmpty       = "empty"
)

// Options controls the profile.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group means of numeric columns.
	GroupBy string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outliers counts values with a robust z-score (MAD) above OutlierThreshold.
	Outliers         bool
	OutlierThreshold float64
	// TopValues caps the categories listed per column.
	TopValues int
}

// DefaultOptions returns reasonable defaults.
func DefaultOptions() Options {
	return Options{SampleRows: 5, Outliers: true, OutlierThreshold: 3.5, TopValues: 8}
}

// Report is a Markdown-friendly profile of one table.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	GroupBy  string
	Groups   []GroupResult
	Corr     []PairCorr
}

// ColumnSummary captures the inferred kind and statistics of a column.
type ColumnSummary struct {
	Name    string
	Kind    string
	Unit    string
	NonNull int
	Missing int
	Unique  int
	// Numeric and binary columns
	Summary stats.Summary
	// Robust z-score outliers
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

// CategoryCount is one category and its frequency.
type CategoryCount struct {
	Value string
	Count int
}

// GroupResult holds numeric means for one group label.
type GroupResult struct {
	Key   string
	Size  int
	Means map[string]float64
}

// PairCorr is a correlation between two numeric columns.
type PairCorr struct {
	A, B string
	R    float64
	N    int
}

// Build profiles t.
func Build(t *dataset.Table, opt Options) (*Report, error) {
	if opt.TopValues <= 0 {
		opt.TopValues = 8
	}
	rep := &Report{Name: t.Name, Rows: t.Len()}
	var numNames []string
	var numCols [][]float64
	for _, c := range t.Columns {
		s := summarize(c, opt)
		rep.Cols = append(rep.Cols, s)
		if s.Kind == KindNumeric {
			numNames = append(numNames, c.Name)
			numCols = append(numCols, c.Numeric())
		}
	}
	for i := 0; i < t.Len() && i < opt.SampleRows; i++ {
		rep.Samples = append(rep.Samples, t.Row(i))
	}

	if opt.GroupBy != "" {
		groups, err := t.GroupBy(opt.GroupBy)
		if err != nil {
			return nil, fmt.Errorf("group by: %w", err)
		}
		rep.GroupBy = opt.GroupBy
		for _, g := range groups {
			gr := GroupResult{Key: g.Label, Size: len(g.Rows), Means: map[string]float64{}}
			for j, name := range numNames {
				if name == opt.GroupBy {
					continue
				}
				if m := stats.Mean(dataset.Pick(numCols[j], g.Rows)); !math.IsNaN(m) {
					gr.Means[name] = m
				}
			}
			rep.Groups = append(rep.Groups, gr)
		}
		if len(rep.Groups) > 20 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("showing 20 of %d groups of %s", len(rep.Groups), opt.GroupBy))
			sort.SliceStable(rep.Groups, func(i, j int) bool { return rep.Groups[i].Size > rep.Groups[j].Size })
			rep.Groups = rep.Groups[:20]
		}
	}

	if opt.Correlations && len(numNames) >= 2 {
		m := stats.CorrMatrix(numCols)
		for i := range numNames {
			for j := i + 1; j < len(numNames); j++ {
				r := m.At(i, j)
				if math.IsNaN(r) {
					continue
				}
				x, _ := dataset.PairwiseComplete(numCols[i], numCols[j])
				rep.Corr = append(rep.Corr, PairCorr{A: numNames[i], B: numNames[j], R: r, N: len(x)})
			}
		}
		sort.SliceStable(rep.Corr, func(i, j int) bool {
			return math.Abs(rep.Corr[i].R) > math.Abs(rep.Corr[j].R)
		})
	}
	return rep, nil
}

func summarize(c *dataset.Column, opt Options) ColumnSummary {
	name, unit := splitUnits(c.Name)
	s := ColumnSummary{Name: name, Unit: unit}
	counts := map[string]int{}
	dates := 0
	for _, cell := range c.Cells {
		v := strings.TrimSpace(cell)
		if v == "" {
			s.Missing++
			continue
		}
		s.NonNull++
		counts[v]++
		if _, ok := parseTimeMaybe(v); ok {
			dates++
		}
	}
	s.Unique = len(counts)
	switch {
	case s.NonNull == 0:
		s.Kind = KindEmpty
	case c.IsBinary():
		s.Kind = KindBinary
		s.Summary = stats.Describe(c.Numeric())
	case c.IsNumeric():
		s.Kind = KindNumeric
		vals := dataset.DropNaN(c.Numeric())
		s.Summary = stats.Describe(vals)
		if opt.Outliers && len(vals) >= 8 {
			s.OutlierThreshold = opt.OutlierThreshold
			if s.OutlierThreshold <= 0 {
				s.OutlierThreshold = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(vals, s.OutlierThreshold)
		}
	case dates == s.NonNull:
		s.Kind = KindDatetime
	case s.Unique*2 <= s.NonNull:
		s.Kind = KindCategorical
		tops := make([]CategoryCount, 0, len(counts))
		for k, v := range counts {
			tops = append(tops, CategoryCount{Value: k, Count: v})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		if len(tops) > opt.TopValues {
			tops = tops[:opt.TopValues]
		}
		s.TopValues = tops
	default:
		s.Kind = KindText
		for _, cell := range c.Cells {
			if v := strings.TrimSpace(cell); v != "" && len(s.ExampleTexts) < 3 {
				s.ExampleTexts = append(s.ExampleTexts, v)
			}
		}
	}
	return s
}

// robustOutliers counts |0.6745·(x−median)/MAD| above thr.
func robustOutliers(vals []float64, thr float64) (int, float64) {
	median := stats.Median(vals)
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - median)
	}
	mad := stats.Median(dev)
	if mad == 0 {
		return 0, 0
	}
	var cnt int
	var maxAbsZ float64
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			cnt++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return cnt, maxAbsZ
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`),  // Score (%)
	regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), // Age [years]
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, re := range unitPatterns {
		if m := re.FindStringSubmatch(s); len(m) == 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[2])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
