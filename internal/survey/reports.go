package survey

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/report"
	"go.uber.org/zap"
)

// strength describes the size of a correlation coefficient.
func strength(r float64) string {
	switch a := math.Abs(r); {
	case a >= 0.5:
		return "strong"
	case a >= 0.3:
		return "moderate"
	default:
		return "weak"
	}
}

// significant lists the labels whose p-value (column pCol) is below alpha.
func significant(t *dataset.Table, labelCol, pCol string, alpha float64) []string {
	labels, err := t.Strings(labelCol)
	if err != nil {
		return nil
	}
	p, err := t.Numeric(pCol)
	if err != nil {
		return nil
	}
	var out []string
	for i, l := range labels {
		if p[i] < alpha {
			out = append(out, l)
		}
	}
	return out
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// pdf finishes a document and records it.
func (r *Runner) savePDF(doc *report.Document, name, description string) error {
	if err := doc.Save(); err != nil {
		return err
	}
	return r.record(r.path(name), description)
}

// AwarenessReport builds the awareness summary PDF from the outputs of
// AwarenessClusters.
func (r *Runner) AwarenessReport() error {
	corr, err := r.load("awareness_question_correlations.csv", dataset.ReadOptions{})
	if err != nil {
		return err
	}
	anova, err := r.load("awareness_anova_results.csv", dataset.ReadOptions{})
	if err != nil {
		return err
	}
	const name = "awareness_summary_report.pdf"
	doc := report.NewDocument(r.path(name), "Awareness Analysis Summary Report", "")
	doc.Paragraph("Generated automatically from the DKAP awareness-knowledge dataset.")

	questions, _ := corr.Strings("Question")
	doc.Heading("1. Overview")
	doc.Paragraph(fmt.Sprintf("This report summarises the relationships between %d awareness items, knowledge scores "+
		"and the respondent clusters. The analyses include Pearson correlations, OLS regressions and one-way ANOVA "+
		"tests followed by post-hoc Tukey comparisons where applicable.", len(questions)))

	doc.Heading("2. Correlations between Awareness and Knowledge")
	doc.Paragraph("Pearson correlation coefficients between each awareness question and the knowledge score. " +
		"Higher r-values indicate stronger associations.")
	doc.TableFrom(renamed(corr, map[string]string{"Pearson_r": "Pearson r", "p_value": "p-value"}), 3)
	var strong, weak []string
	rs, _ := corr.Numeric("Pearson_r")
	ps, _ := corr.Numeric("p_value")
	for i, q := range questions {
		if math.Abs(rs[i]) > 0.4 && ps[i] < 0.001 {
			strong = append(strong, q)
		} else if strength(rs[i]) == "weak" {
			weak = append(weak, q)
		}
	}
	doc.Paragraph(fmt.Sprintf("Items with strong, significant correlations (|r| > 0.4, p < 0.001): %s. "+
		"Items with weak associations: %s.", listOrNone(strong), listOrNone(weak)))

	doc.Heading("3. Differences in Awareness Across Clusters")
	doc.Paragraph("A one-way ANOVA tested whether mean awareness scores differ across the knowledge-based clusters.")
	doc.TableFrom(renamed(anova, map[string]string{"F_statistic": "F-statistic", "p_value": "p-value"}), 3)
	sig := significant(anova, "Question", "p_value", 0.01)
	doc.Paragraph(fmt.Sprintf("Questions with significant between-cluster differences (p < 0.01): %s.", listOrNone(sig)))

	doc.Heading("4. Awareness by Cluster (Boxplots)")
	doc.Paragraph("Distribution of normalised awareness scores (0–1) across the knowledge clusters for each question.")
	for _, q := range questions {
		img := r.path(fmt.Sprintf("awareness_%s_by_cluster.png", q))
		if _, err := os.Stat(img); err == nil {
			doc.Image(img, 140)
		}
	}

	doc.Heading("5. Interpretation Summary")
	both := intersect(strong, sig)
	doc.Paragraph(fmt.Sprintf("Items that are both strongly related to knowledge and differ across clusters: %s. "+
		"These items are the most sensitive indicators of awareness disparities within the sample.", listOrNone(both)))
	return r.savePDF(doc, name, "Awareness summary report")
}

// AwarenessFactorReport builds the PDF for the post-processed factor scores.
func (r *Runner) AwarenessFactorReport() error {
	desc, err := r.load(postprocessPrefix+"_descriptives.csv", dataset.ReadOptions{})
	if err != nil {
		return err
	}
	const name = "awareness_analysis_report.pdf"
	doc := report.NewDocument(r.path(name), "Awareness Analysis Report", "DKAP Framework – Awareness Component")

	doc.Heading("1. Descriptive Statistics")
	doc.Paragraph("Central tendency and dispersion for each awareness factor (normalized between 0 and 1).")
	desc = indexNamed(desc, "factor")
	doc.TableFrom(desc, 3)
	factors, _ := desc.Strings("factor")
	sds, _ := desc.Numeric("sd")
	var parts []string
	for i, f := range factors {
		parts = append(parts, fmt.Sprintf("%s SD≈%.2f", f, sds[i]))
	}
	doc.Paragraph("Spread per factor: " + strings.Join(parts, "; ") + ".")

	doc.Heading("2. Distributions")
	doc.Image(r.path(postprocessPrefix+"_distributions.png"), 140)

	doc.Heading("3. Correlation with Knowledge Score")
	if corr, err := r.optional(postprocessPrefix+"_knowledge_correlations.csv", dataset.ReadOptions{}); err != nil {
		return err
	} else if corr != nil {
		corr = indexNamed(corr, "factor")
		doc.TableFrom(corr, 3)
		names, _ := corr.Strings("factor")
		rs, _ := corr.Numeric("pearson_r")
		var notes []string
		for i, n := range names {
			notes = append(notes, fmt.Sprintf("%s (r≈%.2f) shows a %s relationship with knowledge", n, rs[i], strength(rs[i])))
		}
		doc.Paragraph(strings.Join(notes, "; ") + ".")
	}

	doc.Heading("4. Regression Analyses")
	doc.Paragraph("Linear regressions with knowledge score (and demographics where available) as predictors " +
		"for each awareness factor.")
	for i, f := range factors {
		path := r.path(fmt.Sprintf("%s_%s_regression.txt", postprocessPrefix, f))
		b, err := os.ReadFile(path)
		if err != nil {
			r.Log.Debug("regression summary missing", zap.String("file", path))
			continue
		}
		lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
		if len(lines) > 6 {
			lines = lines[len(lines)-6:]
		}
		doc.Bold(fmt.Sprintf("Factor %d Regression Summary", i+1))
		doc.Preformatted(lines)
	}

	doc.Heading("5. Interpretation and Implications")
	doc.Paragraph("Factors with a strong association to knowledge indicate that participants with higher factual " +
		"knowledge report higher awareness in those domains; weaker associations point to perceptual components " +
		"that depend less on factual knowledge.")
	doc.Paragraph("End of Report.")
	return r.savePDF(doc, name, "Awareness factor analysis report")
}

// indexNamed gives the unnamed index column of a CSV written with an index
// a proper name.
func indexNamed(t *dataset.Table, name string) *dataset.Table {
	if len(t.Columns) > 0 && strings.HasPrefix(t.Columns[0].Name, "Unnamed") {
		t.Rename(map[string]string{t.Columns[0].Name: name})
	}
	return t
}

func renamed(t *dataset.Table, mapping map[string]string) *dataset.Table {
	c := t.Clone()
	c.Rename(mapping)
	return c
}

func intersect(a, b []string) []string {
	var out []string
	for _, x := range a {
		if contains(b, x) {
			out = append(out, x)
		}
	}
	return out
}
