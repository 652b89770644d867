package survey

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/chart"
	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/report"
	"github.com/KaramelBytes/dkap-cli/internal/stats"
	"go.uber.org/zap"
)

// Prefix of every file the awareness post-processing writes.
const postprocessPrefix = "awareness_analysis"

// AwarenessDescriptives summarises each awareness subscale and tests it
// for normality.
func (r *Runner) AwarenessDescriptives() error {
	t, err := r.load(r.Cfg.Files.AwarenessSubscales, dataset.ReadOptions{})
	if err != nil {
		return err
	}
	cols := t.Drop(r.Cfg.IDColumn).Names()
	out := dataset.New("awareness_descriptive_summary", "Awareness Group", "Mean", "Median", "Std. Dev",
		"Skewness", "Kurtosis", "Shapiro-Wilk p-value", "Normality")
	var series []chart.Series
	for _, c := range cols {
		vals, _ := t.Numeric(c)
		data := dataset.DropNaN(vals)
		p := math.NaN()
		if sw, err := stats.ShapiroWilk(data); err != nil {
			r.warn(fmt.Sprintf("Shapiro-Wilk for %s: %v", c, err), zap.String("column", c))
		} else {
			p = sw.P
		}
		normal := "No"
		if p > 0.05 {
			normal = "Yes"
		}
		out.Append(c, stats.Round(stats.Mean(data), 3), stats.Round(stats.Median(data), 3), stats.Round(stats.Std(data), 3),
			stats.Round(stats.Skew(data), 3), stats.Round(stats.Kurtosis(data), 3), stats.Round(p, 4), normal)
		series = append(series, chart.Series{Label: c, Values: data})
	}
	report.Print(r.Out, "Awareness Descriptive Statistics", out, 3)
	if err := r.writeCSV(out, "awareness_descriptive_summary.csv", "Awareness subscale descriptives and normality"); err != nil {
		return err
	}
	title := "Distribution of Awareness Scores"
	if err := r.plot("awareness_distributions.png", title, func(p string) error {
		return chart.Distributions(p, title, "Score (0–5)", series, 6, r.Chart)
	}); err != nil {
		return err
	}
	r.printf("\nInterpretation tip:\n")
	r.printf("- p > 0.05 in Shapiro-Wilk means approximately normal distribution.\n")
	r.printf("- High skewness means an asymmetric distribution; high kurtosis means heavy tails or peakedness.\n")
	return nil
}

// loadKnowledgeClusters reads the per-respondent knowledge score and cluster
// written by ClusterKnowledge.
func (r *Runner) loadKnowledgeClusters() (*dataset.Table, error) {
	return r.load(r.Cfg.Files.KnowledgeClusters, dataset.ReadOptions{})
}

// AwarenessClusters relates every normalised awareness question to the
// knowledge score and compares it across knowledge clusters.
func (r *Runner) AwarenessClusters() error {
	aw, err := r.load(r.Cfg.Files.AwarenessNorm, dataset.ReadOptions{})
	if err != nil {
		return err
	}
	know, err := r.loadKnowledgeClusters()
	if err != nil {
		return err
	}
	df, err := dataset.Merge(aw, know, r.Cfg.IDColumn, dataset.LeftJoin)
	if err != nil {
		return err
	}
	const clusterLabel = "cluster_label"
	df.Rename(map[string]string{colCluster: clusterLabel})
	if !df.Has(colKnowledge) || !df.Has(clusterLabel) {
		return fmt.Errorf("%s needs %s and %s: %w", r.Cfg.Files.KnowledgeClusters, colKnowledge, colCluster, dataset.ErrColumnNotFound)
	}
	r.printf("✓ Data merged successfully: %d respondents, %d columns\n", df.Len(), len(df.Columns))
	questions := questionColumns(df)

	corr := dataset.New("awareness_question_correlations", "Question", "Pearson_r", "p_value")
	for _, q := range questions {
		if completeRows(df, q, colKnowledge) <= 2 {
			continue
		}
		c, err := pearson(df, q, colKnowledge)
		if err != nil {
			r.warn(fmt.Sprintf("correlation for %s: %v", q, err), zap.String("question", q))
			continue
		}
		corr.Append(q, c.R, c.P)
	}
	if err := r.writeCSV(corr, "awareness_question_correlations.csv", "Awareness questions vs knowledge score"); err != nil {
		return err
	}
	report.Print(r.Out, "Correlation with knowledge score", corr, 3)

	var reg strings.Builder
	for _, q := range questions {
		fit, err := regress(df, q, []string{colKnowledge})
		if err != nil {
			r.warn(fmt.Sprintf("regression for %s: %v", q, err), zap.String("question", q))
			continue
		}
		fmt.Fprintf(&reg, "\n=== Regression for %s ===\n", q)
		reg.WriteString(fit.Summary())
		fmt.Fprintf(&reg, "\n%s\n", strings.Repeat("=", 80))
	}
	if err := r.writeText("awareness_question_regressions.txt", reg.String(), "OLS of each awareness question on knowledge score"); err != nil {
		return err
	}

	anova := dataset.New("awareness_anova_results", "Question", "F_statistic", "p_value")
	pvals := map[string]float64{}
	split := map[string]byGroup{}
	for _, q := range questions {
		b, err := splitBy(df, clusterLabel, q)
		if err != nil {
			return err
		}
		split[q] = b
		if len(b.Labels) < 2 {
			continue
		}
		a, err := b.anova()
		if err != nil {
			r.warn(fmt.Sprintf("ANOVA for %s: %v", q, err), zap.String("question", q))
			continue
		}
		anova.Append(q, a.F, a.P)
		pvals[q] = a.P
	}
	if err := r.writeCSV(anova, "awareness_anova_results.csv", "One-way ANOVA of awareness questions across clusters"); err != nil {
		return err
	}
	report.Print(r.Out, "ANOVA across knowledge clusters", anova, 3)

	for _, q := range questions {
		b := split[q]
		title := fmt.Sprintf("%s Awareness by Cluster", q)
		if err := r.plot(fmt.Sprintf("awareness_%s_by_cluster.png", q), title, func(p string) error {
			return chart.Boxplot(p, title, "Knowledge Cluster", "Normalized awareness (0–1)", b.series(), false, r.Chart)
		}); err != nil {
			return err
		}
		if p, ok := pvals[q]; !ok || !(p < r.Cfg.Alpha) {
			continue
		}
		tk, err := b.tukey(r.Cfg.Alpha)
		if err != nil {
			r.warn(fmt.Sprintf("Tukey for %s: %v", q, err), zap.String("question", q))
			continue
		}
		r.printf("\n%s", tukeyText(fmt.Sprintf("Post-hoc Tukey for %s:", q), tk))
		if err := r.writeCSV(tk, fmt.Sprintf("awareness_%s_tukey.csv", q), "Tukey HSD across clusters for "+q); err != nil {
			return err
		}
	}
	return nil
}

// factorColumns names the factor score columns factor1..factor3. Scores
// named otherwise are renamed in order.
func (r *Runner) factorColumns(t *dataset.Table) []string {
	want := []string{"factor1", "factor2", "factor3"}
	var cols []string
	for _, c := range t.Columns {
		if c.Name != r.Cfg.IDColumn {
			cols = append(cols, c.Name)
		}
	}
	have := append([]string(nil), cols...)
	sort.Strings(have)
	if strings.Join(have, ",") != strings.Join(want, ",") {
		var numeric []string
		for _, n := range cols {
			if c, _ := t.Col(n); c.IsNumeric() {
				numeric = append(numeric, n)
			}
		}
		if len(numeric) >= len(want) {
			mapping := map[string]string{}
			for i, w := range want {
				mapping[numeric[i]] = w
			}
			t.Rename(mapping)
			r.Log.Info("renamed factor columns", zap.Any("mapping", mapping))
		} else {
			r.printf("Using existing columns as factors: %s\n", strings.Join(cols, ", "))
		}
	}
	var out []string
	for _, w := range want {
		if t.Has(w) {
			out = append(out, w)
		}
	}
	return out
}

// AwarenessPostprocess normalises the EFA factor scores and relates them to
// knowledge, clusters and demographics.
func (r *Runner) AwarenessPostprocess() error {
	df, err := r.load(r.Cfg.Files.FactorScores, dataset.ReadOptions{})
	if err != nil {
		return err
	}
	factors := r.factorColumns(df)
	if len(factors) == 0 {
		return fmt.Errorf("no factor columns detected in %s: %w", r.Cfg.Files.FactorScores, dataset.ErrColumnNotFound)
	}
	var norm []string
	for _, f := range factors {
		vals, _ := df.Numeric(f)
		df.AddNumeric(f+"_norm", stats.MinMax(vals))
		norm = append(norm, f+"_norm")
	}
	if err := r.writeCSV(df, postprocessPrefix+"_normalized_scores.csv", "Min-max normalised factor scores"); err != nil {
		return err
	}

	merged := df
	for _, name := range []string{r.Cfg.Files.KnowledgeClusters, r.Cfg.Files.Demographic} {
		other, err := r.optional(name, dataset.ReadOptions{})
		if err != nil {
			return err
		}
		if other == nil {
			continue
		}
		if merged, err = dataset.Merge(merged, other, r.Cfg.IDColumn, dataset.LeftJoin); err != nil {
			return err
		}
		r.printf("Merged %s: %d rows\n", name, other.Len())
	}
	if err := r.writeCSV(merged, postprocessPrefix+"_merged.csv", "Factor scores merged with knowledge and demographics"); err != nil {
		return err
	}

	desc := dataset.New("descriptives", "mean", "median", "sd", "min", "max")
	var series []chart.Series
	for _, c := range norm {
		vals, _ := merged.Numeric(c)
		d := stats.Describe(vals)
		desc.Append(d.Mean, d.Median, d.Std, d.Min, d.Max)
		series = append(series, chart.Series{Label: c, Values: dataset.DropNaN(vals)})
	}
	report.Print(r.Out, "Descriptive statistics (normalized awareness factors)", desc, 3)
	if err := r.writeIndexedCSV(desc, postprocessPrefix+"_descriptives.csv", "", norm, "Descriptives of the normalised factors"); err != nil {
		return err
	}
	title := "Awareness factors distributions (normalized)"
	if err := r.plot(postprocessPrefix+"_distributions.png", title, func(p string) error {
		return chart.Distributions(p, title, "Normalized score (0-1)", series, 10, r.Chart)
	}); err != nil {
		return err
	}

	if merged.Has(colKnowledge) {
		corr := dataset.New("knowledge_correlations", "pearson_r")
		for _, c := range norm {
			res, err := pearson(merged, colKnowledge, c)
			if err != nil {
				r.warn(fmt.Sprintf("correlation for %s: %v", c, err), zap.String("factor", c))
				corr.Append(math.NaN())
				continue
			}
			corr.Append(stats.Round(res.R, 3))
		}
		if err := r.writeIndexedCSV(corr, postprocessPrefix+"_knowledge_correlations.csv", "", norm, "Knowledge vs awareness factor correlations"); err != nil {
			return err
		}
	} else {
		r.warn(colKnowledge + " column not found; skipping correlations with knowledge")
	}

	if merged.Has(colCluster) {
		for _, c := range norm {
			b, err := splitBy(merged, colCluster, c)
			if err != nil {
				return err
			}
			if len(b.Labels) == 0 {
				continue
			}
			title := fmt.Sprintf("%s by knowledge cluster", c)
			if err := r.plot(fmt.Sprintf("%s_%s_by_cluster.png", postprocessPrefix, c), title, func(p string) error {
				return chart.Boxplot(p, title, colCluster, c, b.series(), true, r.Chart)
			}); err != nil {
				return err
			}
		}
	} else {
		r.warn("no 'cluster' column found; skipping cluster comparisons")
	}

	if !merged.Has(colKnowledge) {
		r.warn(colKnowledge + " not found; skipping regression analyses")
		return nil
	}
	rhs := append([]string{colKnowledge}, prefixed(merged, r.Cfg.DemographicPrefixes)...)
	for _, c := range norm {
		n := completeRows(merged, append([]string{c}, rhs...)...)
		if n < 10 {
			r.warn(fmt.Sprintf("Skipping regression for %s due to small N=%d", c, n), zap.String("factor", c), zap.Int("n", n))
			continue
		}
		fit, err := regress(merged, c, rhs)
		if err != nil {
			r.warn(fmt.Sprintf("regression for %s: %v", c, err), zap.String("factor", c))
			continue
		}
		r.printf("\nRegression results for %s:\n%s", c, fit.CoefTable())
		if err := r.writeText(fmt.Sprintf("%s_%s_regression.txt", postprocessPrefix, c), fit.Summary(),
			"OLS of "+c+" on knowledge and demographics"); err != nil {
			return err
		}
	}
	return nil
}
