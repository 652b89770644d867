package survey

import (
	"fmt"

	"github.com/KaramelBytes/dkap-cli/internal/config"
	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/reliability"
	"github.com/KaramelBytes/dkap-cli/internal/report"
	"github.com/KaramelBytes/dkap-cli/internal/stats"
	"go.uber.org/zap"
)

// Alpha computes Cronbach's alpha over every knowledge question.
func (r *Runner) Alpha() error {
	t, err := r.load(r.Cfg.Files.KnowledgeQuestions, dataset.ReadOptions{})
	if err != nil {
		return err
	}
	items := t.Drop(r.Cfg.IDColumn).Names()
	a, err := reliability.CronbachAlpha(t, items...)
	if err != nil {
		return fmt.Errorf("knowledge alpha: %w", err)
	}
	r.printf("Cronbach's alpha: %.3f\n", a)
	out := dataset.New("knowledge_cronbach_alpha", "Scale", "N_Items", "Cronbach_Alpha")
	out.Append("Knowledge", len(items), stats.Round(a, 3))
	return r.writeCSV(out, "knowledge_cronbach_alpha.csv", "Cronbach's alpha of the knowledge questions")
}

// scales keeps the items of every group that exist in t. Groups left with
// fewer than two items are skipped with a warning.
func (r *Runner) scales(t *dataset.Table, groups []config.Scale) []reliability.Scale {
	var out []reliability.Scale
	for _, g := range groups {
		s := reliability.Scale{Name: g.Name, Items: g.Items}
		items := reliability.ExistingItems(t, s)
		if len(items) < 2 {
			r.warn(fmt.Sprintf("Skipping %s: needs ≥2 questions (found %d)", g.Name, len(items)),
				zap.String("group", g.Name), zap.Int("items", len(items)))
			continue
		}
		s.Items = items
		out = append(out, s)
	}
	return out
}

// AlphaGroups computes Cronbach's alpha for each configured awareness group.
func (r *Runner) AlphaGroups() error {
	t, err := r.load(r.Cfg.Files.AwarenessQuestions, dataset.ReadOptions{})
	if err != nil {
		return err
	}
	out := dataset.New("awareness_cronbach_alpha", "Group", "N_Items", "Cronbach_Alpha")
	for _, s := range r.scales(t, r.Cfg.ReliabilityGroups) {
		a, err := reliability.CronbachAlpha(t, s.Items...)
		if err != nil {
			r.warn(fmt.Sprintf("Skipping %s: %v", s.Name, err), zap.String("group", s.Name))
			continue
		}
		out.Append(s.Name, len(s.Items), stats.Round(a, 3))
	}
	report.Print(r.Out, "Cronbach's Alpha by Awareness Group", out, 3)
	return r.writeCSV(out, "awareness_cronbach_alpha.csv", "Cronbach's alpha per awareness group")
}

// Omega reports alpha, McDonald's omega and item-total correlations per
// omega group, with a per-item detail table.
func (r *Runner) Omega() error {
	t, err := r.load(r.Cfg.Files.AwarenessQuestions, dataset.ReadOptions{})
	if err != nil {
		return err
	}
	out := dataset.New("awareness_internal_consistency", "Group", "N_Items", "Cronbach_Alpha", "McDonald_Omega", "Mean_Item-Total_Corr")
	detail := dataset.New("awareness_item_total", "Group", "Item", "Item_Total_Corr")
	for _, s := range r.scales(t, r.Cfg.OmegaGroups) {
		res, err := reliability.Analyze(t, s)
		if err != nil {
			r.warn(fmt.Sprintf("Skipping %s: %v", s.Name, err), zap.String("group", s.Name))
			continue
		}
		out.Append(res.Scale, res.NItems, stats.Round(res.Alpha, 3), stats.Round(res.Omega, 3), stats.Round(res.MeanItemTotal, 3))
		for _, it := range res.ItemTotal {
			detail.Append(res.Scale, it.Item, stats.Round(it.R, 3))
		}
	}
	report.Print(r.Out, "Internal Consistency Results", out, 3)
	report.Print(r.Out, "Item-Total Correlations by Group", detail, 3)
	if err := r.writeCSV(out, "awareness_internal_consistency.csv", "Alpha, omega and mean item-total correlation per group"); err != nil {
		return err
	}
	return r.writeCSV(detail, "awareness_item_total.csv", "Corrected item-total correlations")
}
