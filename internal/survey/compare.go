package survey

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/chart"
	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/stats"
)

// byGroup splits column col of t by the labels of groupCol.
type byGroup struct {
	Labels []string
	Values [][]float64
}

func splitBy(t *dataset.Table, groupCol, col string) (byGroup, error) {
	groups, err := t.GroupBy(groupCol)
	if err != nil {
		return byGroup{}, err
	}
	vals, err := t.Numeric(col)
	if err != nil {
		return byGroup{}, err
	}
	var b byGroup
	for _, g := range groups {
		b.Labels = append(b.Labels, g.Label)
		b.Values = append(b.Values, dataset.Pick(vals, g.Rows))
	}
	return b, nil
}

func (b byGroup) series() []chart.Series {
	out := make([]chart.Series, len(b.Labels))
	for i := range b.Labels {
		out[i] = chart.Series{Label: b.Labels[i], Values: b.Values[i]}
	}
	return out
}

func (b byGroup) anova() (stats.Anova, error) { return stats.OneWay(b.Values) }

func (b byGroup) tukey(alpha float64) (*dataset.Table, error) {
	pairs, err := stats.TukeyHSD(b.Labels, b.Values, alpha)
	if err != nil {
		return nil, err
	}
	out := dataset.New("tukey", "group1", "group2", "meandiff", "p-adj", "lower", "upper", "reject")
	for _, p := range pairs {
		out.Append(p.Group1, p.Group2, stats.Round(p.MeanDiff, 4), stats.Round(p.PAdj, 4),
			stats.Round(p.Lower, 4), stats.Round(p.Upper, 4), p.Reject)
	}
	return out, nil
}

// tukeyText renders a Tukey table the way it is printed to the console.
func tukeyText(title string, t *dataset.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "%s\n", strings.Join(t.Names(), "\t"))
	for i := 0; i < t.Len(); i++ {
		fmt.Fprintf(&b, "%s\n", strings.Join(t.Row(i), "\t"))
	}
	return b.String()
}

// pearson correlates two named columns on their pairwise-complete rows.
func pearson(t *dataset.Table, a, b string) (stats.Correlation, error) {
	x, err := t.Numeric(a)
	if err != nil {
		return stats.Correlation{}, err
	}
	y, err := t.Numeric(b)
	if err != nil {
		return stats.Correlation{}, err
	}
	return stats.Pearson(x, y)
}

// regress fits dep on the named predictors.
func regress(t *dataset.Table, dep string, predictors []string) (*stats.OLSResult, error) {
	y, err := t.Numeric(dep)
	if err != nil {
		return nil, err
	}
	cols := make([][]float64, len(predictors))
	for j, p := range predictors {
		if cols[j], err = t.Numeric(p); err != nil {
			return nil, err
		}
	}
	return stats.OLS(dep, y, predictors, cols)
}

// completeRows counts rows where every named column has a value.
func completeRows(t *dataset.Table, names ...string) int {
	sub, err := t.DropNA(names...)
	if err != nil {
		return 0
	}
	return sub.Len()
}
