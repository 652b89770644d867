package survey

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/chart"
	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/report"
	"go.uber.org/zap"
)

const (
	colAwarenessMean      = "awareness_mean"
	colAttitudeComposite  = "attitude_composite"
	colAwarenessComposite = "awareness_composite"
)

// existing filters names to the columns t has, warning about the rest.
func (r *Runner) existing(t *dataset.Table, names []string) []string {
	var out []string
	for _, n := range names {
		if t.Has(n) {
			out = append(out, n)
		} else {
			r.Log.Warn("column not in data", zap.String("column", n), zap.String("table", t.Name))
		}
	}
	return out
}

// AttitudeAnalyze relates every attitude/practice item to knowledge and
// mean awareness and compares it across knowledge clusters.
func (r *Runner) AttitudeAnalyze() error {
	att, err := r.load(r.Cfg.Files.AttitudeNorm, dataset.ReadOptions{})
	if err != nil {
		return err
	}
	know, err := r.loadKnowledgeClusters()
	if err != nil {
		return err
	}
	aware, err := r.load(r.Cfg.Files.AwarenessNorm, dataset.ReadOptions{})
	if err != nil {
		return err
	}
	df, err := dataset.Merge(att, know, r.Cfg.IDColumn, dataset.LeftJoin)
	if err != nil {
		return err
	}
	if df, err = dataset.Merge(df, aware, r.Cfg.IDColumn, dataset.LeftJoin); err != nil {
		return err
	}
	r.printf("Merged dataset shape: (%d, %d)\n", df.Len(), len(df.Columns))

	attitude := r.existing(df, r.Cfg.AttitudeQuestions)
	awareness := r.existing(df, r.Cfg.AwarenessQuestions)
	if len(attitude) == 0 {
		return fmt.Errorf("no attitude questions in %s: %w", r.Cfg.Files.AttitudeNorm, dataset.ErrColumnNotFound)
	}
	if len(awareness) > 0 {
		mean, err := df.RowMean(awareness...)
		if err != nil {
			return err
		}
		df.AddNumeric(colAwarenessMean, mean)
	}

	corr := dataset.New("attitude_correlations", "Reference", "Question", "Pearson_r", "p_value")
	refs := [][2]string{{"Knowledge", colKnowledge}, {"Awareness", colAwarenessMean}}
	for _, q := range attitude {
		for _, ref := range refs {
			if !df.Has(ref[1]) {
				continue
			}
			c, err := pearson(df, q, ref[1])
			if err != nil {
				r.warn(fmt.Sprintf("correlation %s vs %s: %v", q, ref[0], err), zap.String("question", q))
				continue
			}
			corr.Append(ref[0], q, c.R, c.P)
		}
	}
	if err := r.writeCSV(corr, "attitude_correlations.csv", "Attitude items vs knowledge and awareness"); err != nil {
		return err
	}

	anova := dataset.New("attitude_anova_results", "Question", "F_statistic", "p_value")
	split := map[string]byGroup{}
	for _, q := range attitude {
		b, err := splitBy(df, colCluster, q)
		if err != nil {
			return err
		}
		split[q] = b
		a, err := b.anova()
		if err != nil {
			r.warn(fmt.Sprintf("ANOVA for %s: %v", q, err), zap.String("question", q))
			continue
		}
		anova.Append(q, a.F, a.P)
		if !(a.P < r.Cfg.Alpha) {
			continue
		}
		tk, err := b.tukey(r.Cfg.Alpha)
		if err != nil {
			r.warn(fmt.Sprintf("Tukey for %s: %v", q, err), zap.String("question", q))
			continue
		}
		r.printf("\n%s", tukeyText(fmt.Sprintf("Post-hoc Tukey for %s:", q), tk))
		if err := r.writeCSV(tk, fmt.Sprintf("attitude_%s_tukey.csv", q), "Tukey HSD across clusters for "+q); err != nil {
			return err
		}
	}
	if err := r.writeCSV(anova, "attitude_anova_results.csv", "One-way ANOVA of attitude items across clusters"); err != nil {
		return err
	}

	for _, q := range attitude {
		b := split[q]
		if len(b.Labels) == 0 {
			continue
		}
		title := fmt.Sprintf("Distribution of %s across clusters", q)
		if err := r.plot(fmt.Sprintf("attitude_%s_by_cluster.png", q), title, func(p string) error {
			return chart.Boxplot(p, title, "Cluster", "Normalised Attitude/Practice Score", b.series(), false, r.Chart)
		}); err != nil {
			return err
		}
	}
	r.printf("\n✓ Analysis complete. Correlations: %d rows, ANOVA: %d rows\n", corr.Len(), anova.Len())
	return nil
}

// withComposite adds the mean of the Q columns of t as a new column.
func withComposite(t *dataset.Table, name string) ([]string, error) {
	qs := questionColumns(t)
	if len(qs) == 0 {
		return nil, fmt.Errorf("%s: no question columns: %w", t.Name, dataset.ErrColumnNotFound)
	}
	mean, err := t.RowMean(qs...)
	if err != nil {
		return nil, err
	}
	t.AddNumeric(name, mean)
	return qs, nil
}

// AttitudeReport computes the attitude and awareness composites, relates
// them to knowledge and writes the attitude summary PDF.
func (r *Runner) AttitudeReport() error {
	att, err := r.load(r.Cfg.Files.AttitudeNorm, dataset.ReadOptions{})
	if err != nil {
		return err
	}
	know, err := r.loadKnowledgeClusters()
	if err != nil {
		return err
	}
	aware, err := r.load(r.Cfg.Files.AwarenessNorm, dataset.ReadOptions{})
	if err != nil {
		return err
	}
	attQs, err := withComposite(att, colAttitudeComposite)
	if err != nil {
		return err
	}
	if _, err := withComposite(aware, colAwarenessComposite); err != nil {
		return err
	}
	left, err := att.Select(r.Cfg.IDColumn, colAttitudeComposite)
	if err != nil {
		return err
	}
	right, err := aware.Select(r.Cfg.IDColumn, colAwarenessComposite)
	if err != nil {
		return err
	}
	merged, err := dataset.Merge(left, know, r.Cfg.IDColumn, dataset.InnerJoin)
	if err != nil {
		return err
	}
	if merged, err = dataset.Merge(merged, right, r.Cfg.IDColumn, dataset.InnerJoin); err != nil {
		return err
	}

	corr := dataset.New("attitude_correlation_results", "Reference", "Pearson_r", "p_value")
	for _, ref := range [][2]string{{"Knowledge", colKnowledge}, {"Awareness", colAwarenessComposite}} {
		c, err := pearson(merged, colAttitudeComposite, ref[1])
		if err != nil {
			return fmt.Errorf("attitude vs %s: %w", ref[0], err)
		}
		corr.Append(ref[0], c.R, c.P)
	}
	if err := r.writeCSV(corr, "attitude_correlation_results.csv", "Attitude composite vs knowledge and awareness"); err != nil {
		return err
	}

	names := []string{colKnowledge, colAwarenessComposite, colAttitudeComposite}
	cols := make([][]float64, len(names))
	for j, n := range names {
		cols[j], _ = merged.Numeric(n)
	}
	if err := r.plot("attitude_scatter_matrix.png", "Scatterplot Matrix: Knowledge, Awareness, Attitude", func(p string) error {
		return chart.ScatterMatrix(p, names, cols, r.Chart)
	}); err != nil {
		return err
	}

	full, err := dataset.Merge(merged, att.Drop(colAttitudeComposite), r.Cfg.IDColumn, dataset.InnerJoin)
	if err != nil {
		return err
	}
	groups, err := full.GroupBy(colCluster)
	if err != nil {
		return err
	}
	z, clusters, err := groupMeans(full, groups, attQs)
	if err != nil {
		return err
	}
	title := "Mean Attitude/Practice Scores by Cluster"
	if err := r.plot("attitude_cluster_heatmap.png", title, func(p string) error {
		return chart.Heatmap(p, title, clusters, attQs, transpose(z), chart.HeatmapOptions{
			Options: r.Chart, Palette: chart.PaletteDiverging, Annotate: true,
		})
	}); err != nil {
		return err
	}

	const name = "attitude_summary_report.pdf"
	doc := report.NewDocument(r.path(name), "DKAP Analytical Summary Report", "")
	doc.Paragraph("This report summarizes the analytical results for the Attitude/Practice component of the DKAP " +
		"(Demographics–Knowledge–Awareness–Practice) model. The analysis integrates respondent-level attitude, " +
		"knowledge, and awareness data.")
	doc.Heading("Composite Score Computation")
	doc.Paragraph(fmt.Sprintf("The Attitude/Practice composite score was computed as the mean of normalized items (%s). "+
		"Each respondent's score was then correlated against knowledge and awareness composites.", strings.Join(attQs, ", ")))
	doc.Heading("Correlation Results")
	refs, _ := corr.Strings("Reference")
	rs, _ := corr.Numeric("Pearson_r")
	ps, _ := corr.Numeric("p_value")
	for i := range refs {
		doc.Paragraph(fmt.Sprintf("%s: Pearson r = %.3f, p = %.3e", refs[i], rs[i], ps[i]))
	}
	doc.Heading("Interpretation")
	var notes []string
	for i := range refs {
		dir := "positively"
		if rs[i] < 0 {
			dir = "negatively"
		}
		sig := "significant"
		if ps[i] >= r.Cfg.Alpha {
			sig = "not significant"
		}
		notes = append(notes, fmt.Sprintf("Attitude/Practice is %s related to %s (%s, %s)", dir, refs[i], strength(rs[i]), sig))
	}
	doc.Paragraph(strings.Join(notes, ". ") + ".")
	doc.Heading("Visual Summaries")
	doc.Paragraph("Figure 1. Scatterplot Matrix: Knowledge, Awareness, Attitude.")
	doc.Image(r.path("attitude_scatter_matrix.png"), 140)
	doc.Paragraph("Figure 2. Mean Attitude/Practice Scores by Cluster.")
	doc.Image(r.path("attitude_cluster_heatmap.png"), 140)
	doc.Heading("Concluding Remarks")
	doc.Paragraph("This stage consolidates the Attitude/Practice component within the broader DKAP analytical approach.")
	if err := r.savePDF(doc, name, "Attitude/Practice summary report"); err != nil {
		return err
	}
	report.Print(r.Out, "Attitude composite correlations", corr, 3)
	return nil
}

func transpose(z [][]float64) [][]float64 {
	if len(z) == 0 {
		return nil
	}
	out := make([][]float64, len(z[0]))
	for j := range out {
		out[j] = make([]float64, len(z))
		for i := range z {
			out[j][i] = z[i][j]
		}
	}
	return out
}
