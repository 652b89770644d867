package survey

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/assoc"
	"github.com/KaramelBytes/dkap-cli/internal/chart"
	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/stats"
	"go.uber.org/zap"
)

// Associate mines frequent response combinations from the binary survey
// columns (Likert items excluded) and derives association rules from them.
func (r *Runner) Associate() error {
	t, err := r.loadSurvey()
	if err != nil {
		return err
	}
	var items []string
	var cols [][]bool
	for _, c := range t.Columns {
		if c.Name == r.Cfg.IDColumn || len(c.Levels) > 1 && contains(r.Cfg.LikertQuestions, c.Levels[1]) {
			continue
		}
		vals := c.Numeric()
		b := make([]bool, len(vals))
		for i, v := range vals {
			b[i] = !math.IsNaN(v) && v != 0
		}
		items = append(items, c.Name)
		cols = append(cols, b)
	}
	tx, err := assoc.NewTransactions(items, cols)
	if err != nil {
		return err
	}
	ap := r.Cfg.Apriori
	r.printf("Running apriori on %d items x %d responses...\n", len(items), tx.Rows())
	all, err := assoc.Apriori(tx, ap.MinSupport, ap.MaxLen)
	if err != nil {
		return fmt.Errorf("apriori: %w", err)
	}
	if len(all) == 0 {
		r.warn("no frequent itemsets found with the current min_support and max_len; try lowering min_support",
			zap.Float64("min_support", ap.MinSupport), zap.Int("max_len", ap.MaxLen))
		return nil
	}
	r.printf("Apriori found %d frequent itemsets (support >= %g).\n", len(all), ap.MinSupport)

	multi := assoc.MinLen(all, 2)
	if len(multi) == 0 {
		r.warn("no multi-item (2+) frequent itemsets found; try lowering min_support or increasing max_len")
	} else {
		out := dataset.New("frequent_itemsets_2plus", "support", "itemsets", "itemset_str")
		for _, s := range multi {
			out.Append(s.Support, strings.Join(s.Items, " | "), s.String())
		}
		if err := r.writeCSV(out, "frequent_itemsets_2plus.csv", "Frequent itemsets with two or more items"); err != nil {
			return err
		}
		top := multi
		if ap.TopN > 0 && len(top) > ap.TopN {
			top = top[:ap.TopN]
		}
		labels := make([]string, len(top))
		values := make([]float64, len(top))
		for i, s := range top {
			labels[i] = s.String()
			values[i] = s.Support * 100
		}
		title := fmt.Sprintf("Top %d Frequent Response Combinations (2+ items)", len(top))
		err := r.plot("frequent_itemsets_top.png", title, func(p string) error {
			return chart.HBar(p, title, "Support (%)", labels, values, ap.WrapWidth, r.Chart)
		})
		if err != nil {
			return err
		}
	}

	rules, err := assoc.Rules(all, assoc.MetricLift, ap.MinLift)
	if err != nil {
		return fmt.Errorf("association rules: %w", err)
	}
	if len(rules) == 0 {
		r.warn("no rules generated, try lowering min_support")
		return nil
	}
	rules = assoc.SortBySupport(rules, ap.MaxRules)
	out := dataset.New("frequent_itemsets_rules", "Antecedent", "Consequent", "support", "confidence", "lift")
	for _, ru := range rules {
		out.Append(assoc.JoinItems(ru.Antecedent), assoc.JoinItems(ru.Consequent), ru.Support, ru.Confidence, ru.Lift)
	}
	return r.writeCSV(out, "frequent_itemsets_rules.csv", fmt.Sprintf("Top %d association rules by support", len(rules)))
}

// Relationships runs a chi-square test of independence for every
// antecedent/consequent pair listed in the comparisons file.
func (r *Runner) Relationships() error {
	t, err := r.load(r.Cfg.Files.SurveyBinary, dataset.ReadOptions{HeaderRow: 2})
	if err != nil {
		return err
	}
	comps, err := r.load(r.Cfg.Files.Comparisons, dataset.ReadOptions{})
	if err != nil {
		return err
	}
	if len(comps.Columns) == 0 {
		return fmt.Errorf("%s: %w", r.Cfg.Files.Comparisons, dataset.ErrEmptyTable)
	}
	anteCol := comps.Columns[0]
	if c, err := comps.Col("Antecedent"); err == nil {
		anteCol = c
	}

	out := dataset.New("relationship_tests", "Antecedent", "Consequent", "Test", "Chi2", "p-value", "CramersV", "Significant", "Note")
	nan := math.NaN()
	for i := 0; i < comps.Len(); i++ {
		ante := strings.TrimSpace(anteCol.Cells[i])
		for _, c := range comps.Columns {
			if c == anteCol {
				continue
			}
			cons := strings.TrimSpace(c.Cells[i])
			if cons == "" {
				continue
			}
			if !t.Has(ante) || !t.Has(cons) {
				out.Append(ante, cons, "Chi-square", nan, nan, nan, false, "Column missing")
				continue
			}
			a, _ := t.Strings(ante)
			b, _ := t.Strings(cons)
			res, err := stats.ChiSquare(stats.Crosstab(normalized(a), normalized(b)))
			if err != nil {
				r.Log.Debug("chi-square failed", zap.String("antecedent", ante), zap.String("consequent", cons), zap.Error(err))
				out.Append(ante, cons, "ERROR", nan, nan, nan, false, err.Error())
				continue
			}
			out.Append(ante, cons, "Chi-square", res.Chi2, res.P, res.CramersV, res.P < r.Cfg.Alpha, "OK")
		}
	}
	return r.writeCSV(out, "relationship_tests.csv", "Chi-square tests of the listed comparisons")
}

// normalized maps numeric cells to a canonical form so that "1" and "1.0"
// fall into the same crosstab level.
func normalized(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if v, ok := dataset.ParseNumber(c); ok {
			out[i] = dataset.FormatFloat(v)
		} else {
			out[i] = c
		}
	}
	return out
}
