package survey

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/chart"
	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/factor"
	"github.com/KaramelBytes/dkap-cli/internal/report"
	"go.uber.org/zap"
)

// awarenessItems loads the awareness questions and returns the item names
// (every column but the id) with their values.
func (r *Runner) awarenessItems() (*dataset.Table, []string, [][]float64, error) {
	t, err := r.load(r.Cfg.Files.AwarenessQuestions, dataset.ReadOptions{})
	if err != nil {
		return nil, nil, nil, err
	}
	items := t.Drop(r.Cfg.IDColumn).Names()
	cols := make([][]float64, len(items))
	for j, it := range items {
		cols[j], _ = t.Numeric(it)
	}
	return t, items, cols, nil
}

// EFA checks sampling adequacy, draws the scree plot and extracts the
// configured number of factors.
func (r *Runner) EFA(nFactors int) error {
	if nFactors <= 0 {
		nFactors = r.Cfg.EFA.NFactors
	}
	t, items, cols, err := r.awarenessItems()
	if err != nil {
		return err
	}
	complete, err := t.DropNA(items...)
	if err != nil {
		return err
	}
	cc := make([][]float64, len(items))
	for j, it := range items {
		cc[j], _ = complete.Numeric(it)
	}
	kmo, err := factor.KMO(cc)
	if err != nil {
		r.warn(fmt.Sprintf("KMO: %v", err))
	} else {
		r.printf("Kaiser-Meyer-Olkin (KMO) overall measure: %.3f\n", kmo.Overall)
		if kmo.Overall < 0.6 {
			r.warn("KMO is below 0.6, sample may not be adequate for factor analysis", zap.Float64("kmo", kmo.Overall))
		}
	}
	bart, err := factor.Bartlett(cc)
	if err != nil {
		r.warn(fmt.Sprintf("Bartlett: %v", err))
	} else {
		r.printf("Bartlett's test chi-square: %.2f, p-value: %.4f\n", bart.Chi2, bart.P)
		if bart.P >= 0.05 {
			r.warn("data may not be suitable for factor analysis (non-significant Bartlett test)", zap.Float64("p", bart.P))
		}
	}

	efa, err := factor.FitEFA(items, cols, factor.EFAOptions{NFactors: nFactors, Rotation: r.Cfg.EFA.Rotation})
	if err != nil {
		return err
	}
	if err := r.plot("scree_plot.png", "Scree plot of the awareness items", func(p string) error {
		return chart.Scree(p, efa.Eigenvalues, r.Chart)
	}); err != nil {
		return err
	}

	names := make([]string, nFactors)
	for k := range names {
		names[k] = fmt.Sprintf("Factor%d", k+1)
	}
	load := dataset.New("EFA_factor_loadings", names...)
	for i := range items {
		row := make([]any, nFactors)
		for k := range row {
			row[k] = efa.Loadings.At(i, k)
		}
		load.Append(row...)
	}
	shown := load.Clone()
	shown.InsertColumn(0, "Item", items)
	report.Print(r.Out, "Factor Loadings", shown, 3)
	if err := r.writeIndexedCSV(load, "EFA_factor_loadings.csv", "", items, "EFA factor loadings"); err != nil {
		return err
	}

	variance := dataset.New("EFA_variance_explained", "Factor", "Variance Explained (%)")
	for k, n := range names {
		variance.Append(n, efa.Proportion[k]*100)
	}
	report.Print(r.Out, "Variance Explained by Each Factor", variance, 2)
	if err := r.writeCSV(variance, "EFA_variance_explained.csv", "Variance explained per factor"); err != nil {
		return err
	}

	scores, err := efa.Scores(cols)
	if err != nil {
		return err
	}
	ids, err := t.Strings(r.Cfg.IDColumn)
	if err != nil {
		return fmt.Errorf("factor scores need %s: %w", r.Cfg.IDColumn, err)
	}
	out := dataset.New("factor_scores", append([]string{r.Cfg.IDColumn}, names...)...)
	for i, id := range ids {
		row := []any{id}
		for k := 0; k < nFactors; k++ {
			row = append(row, scores.At(i, k))
		}
		out.Append(row...)
	}
	return r.writeCSV(out, r.Cfg.Files.FactorScores, "Regression-method factor scores per respondent")
}

// CFA fits the configured measurement model to the awareness items.
func (r *Runner) CFA(modelDesc string) error {
	if strings.TrimSpace(modelDesc) == "" {
		modelDesc = r.Cfg.CFAModel
	}
	m, err := factor.ParseModel(modelDesc)
	if err != nil {
		return err
	}
	_, items, cols, err := r.awarenessItems()
	if err != nil {
		return err
	}
	data := make(map[string][]float64, len(items))
	for j, it := range items {
		data[it] = cols[j]
	}
	fit, err := factor.FitCFA(m, data)
	if err != nil {
		return err
	}
	s := fit.Stats
	st := dataset.New("cfa_fit_statistics", "DoF", "DoF Baseline", "chi2", "chi2 p-value", "chi2 Baseline",
		"CFI", "GFI", "AGFI", "NFI", "TLI", "RMSEA", "AIC", "BIC", "LogLik")
	st.Append(s.DoF, s.DoFBaseline, s.Chi2, s.Chi2P, s.Chi2Base, s.CFI, s.GFI, s.AGFI, s.NFI, s.TLI, s.RMSEA, s.AIC, s.BIC, s.LogLik)
	report.Print(r.Out, "CFA fit statistics", st, 3)
	if err := r.writeIndexedCSV(st, "awareness_cfa_fit.csv", "", []string{"Value"}, "CFA global fit statistics"); err != nil {
		return err
	}

	est := dataset.New("cfa_estimates", "lval", "op", "rval", "Estimate", "Std. Err", "z-value", "p-value")
	for _, e := range fit.Estimates {
		if e.Fixed {
			est.Append(e.LVal, e.Op, e.RVal, e.Value, "-", "-", "-")
			continue
		}
		est.Append(e.LVal, e.Op, e.RVal, e.Value, e.StdErr, e.Z, e.P)
	}
	if err := r.writeCSV(est, "awareness_cfa_estimates.csv", "CFA parameter estimates"); err != nil {
		return err
	}
	return r.writeText("awareness_cfa_model.dot", fit.Dot(), "CFA path diagram (Graphviz)")
}
