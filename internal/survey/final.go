package survey

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/chart"
	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/report"
	"github.com/KaramelBytes/dkap-cli/internal/stats"
	"go.uber.org/zap"
)

// dkapVars are the three composite scores compared by the final analyses.
var dkapVars = []string{colKnowledge, colAwarenessComposite, colAttitudeComposite}

const summaryReport = "DKAP_Summary_Report.pdf"

// compositeOf adds the row mean of every column but the id as name and
// returns the id and composite only.
func (r *Runner) compositeOf(t *dataset.Table, name string) (*dataset.Table, error) {
	items := t.Drop(r.Cfg.IDColumn).Names()
	mean, err := t.RowMean(items...)
	if err != nil {
		return nil, err
	}
	t.AddNumeric(name, mean)
	return t.Select(r.Cfg.IDColumn, name)
}

// dkapFrame joins knowledge clusters with the awareness and attitude
// composites, keeping respondents present in all three.
func (r *Runner) dkapFrame() (*dataset.Table, error) {
	know, err := r.loadKnowledgeClusters()
	if err != nil {
		return nil, err
	}
	aware, err := r.load(r.Cfg.Files.AwarenessNorm, dataset.ReadOptions{})
	if err != nil {
		return nil, err
	}
	att, err := r.load(r.Cfg.Files.AttitudeNorm, dataset.ReadOptions{})
	if err != nil {
		return nil, err
	}
	a, err := r.compositeOf(aware, colAwarenessComposite)
	if err != nil {
		return nil, err
	}
	p, err := r.compositeOf(att, colAttitudeComposite)
	if err != nil {
		return nil, err
	}
	df, err := dataset.Merge(know, a, r.Cfg.IDColumn, dataset.InnerJoin)
	if err != nil {
		return nil, err
	}
	if df, err = dataset.Merge(df, p, r.Cfg.IDColumn, dataset.InnerJoin); err != nil {
		return nil, err
	}
	if df.Len() == 0 {
		return nil, fmt.Errorf("no respondent in all of knowledge, awareness and attitude: %w", dataset.ErrEmptyTable)
	}
	r.Log.Info("dkap frame", zap.Int("rows", df.Len()))
	return df, nil
}

func (r *Runner) dkapColumns(df *dataset.Table) ([][]float64, error) {
	cols := make([][]float64, len(dkapVars))
	for j, v := range dkapVars {
		c, err := df.Numeric(v)
		if err != nil {
			return nil, err
		}
		cols[j] = c
	}
	return cols, nil
}

func corrTable(cols [][]float64) *dataset.Table {
	m := stats.CorrMatrix(cols)
	out := dataset.New("correlations", dkapVars...)
	for i := range dkapVars {
		row := make([]any, len(dkapVars))
		for j := range dkapVars {
			row[j] = m.At(i, j)
		}
		out.Append(row...)
	}
	return out
}

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// demographicPredictors loads the cleaned demographics, sanitises their
// names and returns them with the numeric predictor columns. A missing file
// yields a nil table.
func (r *Runner) demographicPredictors() (*dataset.Table, []string, error) {
	demo, err := r.optional(r.Cfg.Files.DemographicsClean, dataset.ReadOptions{})
	if err != nil || demo == nil {
		return nil, nil, err
	}
	mapping := map[string]string{}
	for _, c := range demo.Columns {
		if c.Name != r.Cfg.IDColumn {
			mapping[c.Name] = nonIdent.ReplaceAllString(c.Name, "_")
		}
	}
	demo.Rename(mapping)
	var preds []string
	for _, c := range demo.Columns {
		if c.Name == r.Cfg.IDColumn {
			continue
		}
		if !c.IsNumeric() {
			r.warn(fmt.Sprintf("demographic %s is not numeric, left out of the regressions", c.Name), zap.String("column", c.Name))
			continue
		}
		preds = append(preds, c.Name)
	}
	if len(preds) == 0 {
		r.warn("no numeric demographic predictors, skipping regressions")
		return nil, nil, nil
	}
	return demo, preds, nil
}

// Final integrates knowledge, awareness and attitude: descriptives,
// correlations, cluster differences, demographic regressions, figures and
// the summary PDF.
func (r *Runner) Final() error {
	df, err := r.dkapFrame()
	if err != nil {
		return err
	}
	cols, err := r.dkapColumns(df)
	if err != nil {
		return err
	}

	desc := dataset.New("dkap_descriptive_summary", dkapVars...)
	sums := make([]stats.Summary, len(cols))
	for j, c := range cols {
		sums[j] = stats.Describe(c)
	}
	statNames := []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	for k := range statNames {
		row := make([]any, len(cols))
		for j, s := range sums {
			row[j] = []float64{float64(s.Count), s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max}[k]
		}
		desc.Append(row...)
	}
	if err := r.writeIndexedCSV(desc, "dkap_descriptive_summary.csv", "", statNames, "DKAP composite descriptives"); err != nil {
		return err
	}
	corr := corrTable(cols)
	if err := r.writeIndexedCSV(corr, "dkap_correlations.csv", "", dkapVars, "Pearson correlation matrix of the DKAP composites"); err != nil {
		return err
	}

	anova := dataset.New("dkap_anova_results", "Variable", "Source", "sum_sq", "df", "F", "PR(>F)")
	anovaByVar := map[string]*dataset.Table{}
	for _, v := range dkapVars {
		b, err := splitBy(df, colCluster, v)
		if err != nil {
			return err
		}
		a, err := b.anova()
		if err != nil {
			r.warn(fmt.Sprintf("ANOVA for %s: %v", v, err), zap.String("variable", v))
			continue
		}
		tbl := dataset.New(v, "Source", "sum_sq", "df", "F", "PR(>F)")
		for _, row := range a.Table("C(cluster)") {
			anova.Append(v, row.Source, row.SumSq, row.Df, row.F, row.P)
			tbl.Append(row.Source, row.SumSq, row.Df, row.F, row.P)
		}
		anovaByVar[v] = tbl
		tk, err := b.tukey(0.05)
		if err != nil {
			r.warn(fmt.Sprintf("Tukey for %s: %v", v, err), zap.String("variable", v))
			continue
		}
		if err := r.writeCSV(tk, fmt.Sprintf("tukey_%s.csv", v), "Tukey HSD across clusters for "+v); err != nil {
			return err
		}
	}
	if err := r.writeCSV(anova, "dkap_anova_results.csv", "One-way ANOVA of the DKAP composites across clusters"); err != nil {
		return err
	}

	demo, preds, err := r.demographicPredictors()
	if err != nil {
		return err
	}
	if demo != nil {
		full, err := dataset.Merge(df, demo, r.Cfg.IDColumn, dataset.LeftJoin)
		if err != nil {
			return err
		}
		var txt strings.Builder
		for _, v := range dkapVars {
			fit, err := regress(full, v, preds)
			if err != nil {
				r.warn(fmt.Sprintf("regression on demographics for %s: %v", v, err), zap.String("variable", v))
				continue
			}
			r.printf("\nRegression on demographics for %s:\n%s", v, fit.CoefTable())
			fmt.Fprintf(&txt, "\n=== Regression on demographics for %s ===\n%s", v, fit.Summary())
		}
		if txt.Len() > 0 {
			if err := r.writeText("dkap_demographic_regressions.txt", txt.String(), "OLS of the DKAP composites on demographics"); err != nil {
				return err
			}
		}
	}

	if err := r.plot("dkap_scatter_matrix.png", "Scatterplot Matrix: Knowledge, Awareness, Attitude", func(p string) error {
		return chart.ScatterMatrix(p, dkapVars, cols, r.Chart)
	}); err != nil {
		return err
	}
	groups, err := df.GroupBy(colCluster)
	if err != nil {
		return err
	}
	z, clusters, err := groupMeans(df, groups, dkapVars)
	if err != nil {
		return err
	}
	title := "DKAP Cluster Profile (Mean Scores)"
	if err := r.plot("dkap_cluster_heatmap.png", title, func(p string) error {
		return chart.Heatmap(p, title, clusters, dkapVars, transpose(z), chart.HeatmapOptions{
			Options: r.Chart, Palette: chart.PalettePerceptual, Annotate: true,
		})
	}); err != nil {
		return err
	}

	doc := report.NewDocument(r.path(summaryReport), "DKAP Analysis Summary", "")
	doc.Heading("1. Descriptive Statistics")
	d := desc.Clone()
	d.InsertColumn(0, "", statNames)
	doc.TableFrom(d, 3)
	doc.Heading("2. Correlation Matrix")
	c := corr.Clone()
	c.InsertColumn(0, "", dkapVars)
	doc.TableFrom(c, 3)
	doc.Heading("3. Cluster Differences (ANOVA)")
	for _, v := range dkapVars {
		if tbl, ok := anovaByVar[v]; ok {
			doc.Bold(v)
			doc.TableFrom(tbl, 4)
		}
	}
	doc.Heading("4. Visualizations")
	doc.Image(r.path("dkap_scatter_matrix.png"), 150)
	doc.Image(r.path("dkap_cluster_heatmap.png"), 150)
	doc.Bold("End of DKAP Summary Report")
	if err := r.savePDF(doc, summaryReport, "DKAP summary report"); err != nil {
		return err
	}
	report.Print(r.Out, "DKAP correlations", c, 3)
	return nil
}

// Publication adds the publication figures and tables and merges the
// extension PDF with the summary report.
func (r *Runner) Publication() error {
	df, err := r.dkapFrame()
	if err != nil {
		return err
	}
	groups, err := df.GroupBy(colCluster)
	if err != nil {
		return err
	}
	z, clusters, err := groupMeans(df, groups, dkapVars)
	if err != nil {
		return err
	}
	// z is vars x clusters; normalise each var across clusters.
	series := make([]chart.Series, len(clusters))
	for j, c := range clusters {
		series[j] = chart.Series{Label: "Cluster " + c, Values: make([]float64, len(dkapVars))}
	}
	for i := range dkapVars {
		norm := stats.MinMax(z[i])
		for j := range clusters {
			series[j].Values[i] = norm[j]
		}
	}
	if err := r.plot("DKAP_cluster_profiles.png", "DKAP Cluster Profiles", func(p string) error {
		return chart.Radar(p, "DKAP Cluster Profiles", dkapVars, series, r.Chart)
	}); err != nil {
		return err
	}

	demo, preds, err := r.demographicPredictors()
	if err != nil {
		return err
	}
	if demo != nil {
		full, err := dataset.Merge(df, demo, r.Cfg.IDColumn, dataset.InnerJoin)
		if err != nil {
			return err
		}
		reg := dataset.New("dkap_regression_summary", "Variable", "Coef", "P>|t|", "R2", "Dependent")
		for _, v := range dkapVars {
			fit, err := regress(full, v, preds)
			if err != nil {
				r.warn(fmt.Sprintf("regression for %s: %v", v, err), zap.String("variable", v))
				continue
			}
			for k, name := range fit.Names {
				if name == "const" {
					name = "Intercept"
				}
				reg.Append(name, fit.Coef[k], fit.P[k], fit.R2, v)
			}
		}
		if err := r.writeCSV(reg, "dkap_regression_summary.csv", "Demographic regressions of the DKAP composites"); err != nil {
			return err
		}
	}

	cols, err := r.dkapColumns(df)
	if err != nil {
		return err
	}
	m := stats.CorrMatrix(cols)
	cz := make([][]float64, len(dkapVars))
	for i := range cz {
		cz[i] = make([]float64, len(dkapVars))
		for j := range cz[i] {
			cz[i][j] = m.At(i, j)
		}
	}
	title := "DKAP Correlation Heatmap"
	if err := r.plot("DKAP_Correlation_Heatmap.png", title, func(p string) error {
		return chart.Heatmap(p, title, dkapVars, dkapVars, cz, chart.HeatmapOptions{
			Options: r.Chart, Palette: chart.PaletteDiverging, Min: -1, Max: 1, Annotate: true,
		})
	}); err != nil {
		return err
	}

	const extension = "DKAP_Publication_Extension.pdf"
	doc := report.NewDocument(r.path(extension), "DKAP Publication Extension Summary", "")
	doc.Paragraph("This document complements the DKAP Summary Report with visual and analytical enhancements:\n" +
		"1. Cluster-based DKAP radar profiles.\n" +
		"2. Regression summary across demographic variables.\n" +
		"3. Correlation heatmap connecting the main DKAP composites.")
	doc.Image(r.path("DKAP_cluster_profiles.png"), 160)
	doc.Image(r.path("DKAP_Correlation_Heatmap.png"), 140)
	if err := r.savePDF(doc, extension, "DKAP publication extension"); err != nil {
		return err
	}

	if !r.exists(summaryReport) {
		r.warn(summaryReport + " not found; run `dkap final` first. The publication report holds the extension only")
	}
	const merged = "DKAP_Publication_Report.pdf"
	if _, err := report.MergePDF(r.path(merged), r.path(summaryReport), r.path(extension)); err != nil {
		return fmt.Errorf("merge publication report: %w", err)
	}
	return r.record(r.path(merged), "DKAP summary report followed by the publication extension")
}
