package survey

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/chart"
	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/report"
	"github.com/KaramelBytes/dkap-cli/internal/stats"
	"go.uber.org/zap"
)

// demographicSection is the top header level of the demographic block.
const demographicSection = "demographic"

// question is one item of a three-row-header export: every option column
// sharing the second header level.
type question struct {
	Section string
	Code    string
	Cols    []*dataset.Column
}

func (q question) option(i int) string {
	c := q.Cols[i]
	if len(c.Levels) > 2 && c.Levels[2] != "" {
		return c.Levels[2]
	}
	return c.Name
}

// loadSurvey reads the three-row-header export.
func (r *Runner) loadSurvey() (*dataset.Table, error) {
	return r.load(r.Cfg.Files.Survey, dataset.ReadOptions{HeaderRows: 3})
}

// questions groups the survey columns by question code in order of first
// appearance. The respondent id column is left out.
func (r *Runner) questions(t *dataset.Table) []question {
	var out []question
	pos := map[string]int{}
	for _, c := range t.Columns {
		if c.Name == r.Cfg.IDColumn || len(c.Levels) < 2 {
			continue
		}
		code := c.Levels[1]
		i, ok := pos[code]
		if !ok {
			i = len(out)
			pos[code] = i
			out = append(out, question{Section: c.Levels[0], Code: code})
		}
		out[i].Cols = append(out[i].Cols, c)
	}
	return out
}

// Describe summarises every question: Likert items by mean, std, min and
// max, multiple-choice items by count and percentage per option.
func (r *Runner) Describe() error {
	t, err := r.loadSurvey()
	if err != nil {
		return err
	}
	n := float64(t.Len())
	out := dataset.New("descriptives", "Question", "Option", "Count", "Percentage", "Mean", "Std", "Min", "Max")
	for _, q := range r.questions(t) {
		if contains(r.Cfg.LikertQuestions, q.Code) {
			d := stats.Describe(q.Cols[0].Numeric())
			out.Append(q.Code, "", d.Count, math.NaN(), d.Mean, d.Std, d.Min, d.Max)
			continue
		}
		for i, c := range q.Cols {
			count := 0.0
			for _, v := range c.Numeric() {
				if !math.IsNaN(v) {
					count += v
				}
			}
			pct := math.NaN()
			if n > 0 {
				pct = stats.Round(count/n*100, 1)
			}
			out.Append(q.Code, q.option(i), count, pct, math.NaN(), math.NaN(), math.NaN(), math.NaN())
		}
	}
	report.Print(r.Out, "Descriptive statistics per question", out, 2)
	return r.writeCSV(out, "survey_descriptives.csv", "Per-question descriptive statistics")
}

// Demographics rebuilds the demographic variable whose question matches
// keyword from its one-hot columns and compares every other question across
// its groups.
func (r *Runner) Demographics(keyword string) error {
	if keyword == "" {
		keyword = r.Cfg.DemographicBy
	}
	t, err := r.loadSurvey()
	if err != nil {
		return err
	}
	var demo []*dataset.Column
	for _, c := range t.Columns {
		if len(c.Levels) > 2 && strings.EqualFold(c.Levels[0], demographicSection) &&
			strings.Contains(strings.ToLower(c.Levels[1]), strings.ToLower(keyword)) {
			demo = append(demo, c)
		}
	}
	if len(demo) == 0 {
		r.warn(fmt.Sprintf("no demographic columns found for keyword: %s", keyword), zap.String("keyword", keyword))
		return nil
	}
	labels := idxMax(demo, t.Len())
	counts := map[string]int{}
	var groups []string
	for _, l := range labels {
		if l == "" {
			continue
		}
		if counts[l] == 0 {
			groups = append(groups, l)
		}
		counts[l]++
	}
	dataset.SortLabels(groups)
	r.printf("Groups detected for %s:\n", keyword)
	for _, g := range groups {
		r.printf("  %s: %d\n", g, counts[g])
	}

	out := dataset.New("demographics", "Question", "Group", "Option", "Measure", "Value")
	tag := fileSafe(keyword)
	for _, q := range r.questions(t) {
		if contains(r.Cfg.LikertQuestions, q.Code) {
			vals := q.Cols[0].Numeric()
			means := make([]float64, len(groups))
			for gi, g := range groups {
				var sel []float64
				for i, l := range labels {
					if l == g {
						sel = append(sel, vals[i])
					}
				}
				means[gi] = stats.Mean(dataset.DropNaN(sel))
				out.Append(q.Code, g, "", "mean", means[gi])
			}
			name := fmt.Sprintf("demographics_%s_by_%s.png", fileSafe(q.Code), tag)
			title := fmt.Sprintf("%s (Mean Likert Score by %s)", q.Code, keyword)
			err := r.plot(name, title, func(p string) error {
				return chart.Bar(p, title, keyword, "Mean score", groups, means, r.Chart)
			})
			if err != nil {
				return err
			}
			continue
		}
		series := make([]chart.Series, len(q.Cols))
		totals := make([]float64, len(groups))
		for oi, c := range q.Cols {
			vals := c.Numeric()
			series[oi] = chart.Series{Label: q.option(oi), Values: make([]float64, len(groups))}
			for gi, g := range groups {
				for i, l := range labels {
					if l == g && !math.IsNaN(vals[i]) {
						series[oi].Values[gi] += vals[i]
					}
				}
				totals[gi] += series[oi].Values[gi]
			}
		}
		for oi := range series {
			for gi, g := range groups {
				pct := math.NaN()
				if totals[gi] > 0 {
					pct = stats.Round(series[oi].Values[gi]/totals[gi]*100, 1)
				}
				series[oi].Values[gi] = pct
				out.Append(q.Code, g, series[oi].Label, "percentage", pct)
			}
		}
		name := fmt.Sprintf("demographics_%s_by_%s.png", fileSafe(q.Code), tag)
		title := fmt.Sprintf("%s (Responses by %s)", q.Code, keyword)
		err := r.plot(name, title, func(p string) error {
			return chart.StackedBar(p, title, keyword, "% of respondents", groups, series, r.Chart)
		})
		if err != nil {
			return err
		}
	}
	return r.writeCSV(out, fmt.Sprintf("demographics_by_%s.csv", tag), "Questions compared across "+keyword+" groups")
}

// idxMax labels each row with the option (third header level) of its
// largest one-hot column. Rows without any value stay empty.
func idxMax(cols []*dataset.Column, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		best := math.Inf(-1)
		for _, c := range cols {
			v := c.Numeric()[i]
			if math.IsNaN(v) || v <= best {
				continue
			}
			best = v
			out[i] = c.Levels[2]
		}
	}
	return out
}

// fileSafe turns a label into a file name fragment.
func fileSafe(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(s))
	if s == "" {
		return "unnamed"
	}
	return s
}
