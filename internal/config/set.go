package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Keys lists the scalar and list keys accepted by Set.
var Keys = []string{
	"data_dir", "output_dir", "id_column",
	"files.survey", "files.survey_binary", "files.comparisons", "files.knowledge",
	"files.knowledge_questions", "files.knowledge_clusters", "files.awareness_questions",
	"files.awareness_norm", "files.awareness_subscales", "files.attitude_norm",
	"files.factor_scores", "files.demographic", "files.demographics_clean",
	"likert_questions", "attitude_questions", "awareness_questions",
	"demographic_prefixes", "demographic_by",
	"cluster.k", "cluster.k_range", "cluster.silhouette_range", "cluster.n_init",
	"cluster.max_iter", "cluster.seed",
	"apriori.min_support", "apriori.max_len", "apriori.min_lift", "apriori.top_n",
	"apriori.max_rules", "apriori.wrap_width",
	"alpha", "efa.n_factors", "efa.rotation", "cfa_model", "plot_dpi",
}

// Set assigns a value given as text. Lists are comma separated. Scale
// groups are edited in the YAML file directly.
func (c *Global) Set(key, val string) error {
	val = strings.TrimSpace(val)
	str := map[string]*string{
		"data_dir":                  &c.DataDir,
		"output_dir":                &c.OutputDir,
		"id_column":                 &c.IDColumn,
		"files.survey":              &c.Files.Survey,
		"files.survey_binary":       &c.Files.SurveyBinary,
		"files.comparisons":         &c.Files.Comparisons,
		"files.knowledge":           &c.Files.Knowledge,
		"files.knowledge_questions": &c.Files.KnowledgeQuestions,
		"files.knowledge_clusters":  &c.Files.KnowledgeClusters,
		"files.awareness_questions": &c.Files.AwarenessQuestions,
		"files.awareness_norm":      &c.Files.AwarenessNorm,
		"files.awareness_subscales": &c.Files.AwarenessSubscales,
		"files.attitude_norm":       &c.Files.AttitudeNorm,
		"files.factor_scores":       &c.Files.FactorScores,
		"files.demographic":         &c.Files.Demographic,
		"files.demographics_clean":  &c.Files.DemographicsClean,
		"demographic_by":            &c.DemographicBy,
		"cfa_model":                 &c.CFAModel,
	}
	if p, ok := str[key]; ok {
		*p = val
		return nil
	}
	lists := map[string]*[]string{
		"likert_questions":     &c.LikertQuestions,
		"attitude_questions":   &c.AttitudeQuestions,
		"awareness_questions":  &c.AwarenessQuestions,
		"demographic_prefixes": &c.DemographicPrefixes,
	}
	if p, ok := lists[key]; ok {
		*p = splitList(val)
		return nil
	}
	ints := map[string]*int{
		"cluster.k":          &c.Cluster.K,
		"cluster.n_init":     &c.Cluster.NInit,
		"cluster.max_iter":   &c.Cluster.MaxIter,
		"apriori.max_len":    &c.Apriori.MaxLen,
		"apriori.top_n":      &c.Apriori.TopN,
		"apriori.max_rules":  &c.Apriori.MaxRules,
		"apriori.wrap_width": &c.Apriori.WrapWidth,
		"efa.n_factors":      &c.EFA.NFactors,
		"plot_dpi":           &c.PlotDPI,
	}
	if p, ok := ints[key]; ok {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		*p = i
		return nil
	}
	floats := map[string]*float64{
		"apriori.min_support": &c.Apriori.MinSupport,
		"apriori.min_lift":    &c.Apriori.MinLift,
		"alpha":               &c.Alpha,
	}
	if p, ok := floats[key]; ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		*p = f
		return nil
	}
	switch key {
	case "cluster.seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", key, err)
		}
		c.Cluster.Seed = i
	case "cluster.k_range", "cluster.silhouette_range":
		ks, err := parseInts(val)
		if err != nil {
			return fmt.Errorf("invalid list for %s: %w", key, err)
		}
		if key == "cluster.k_range" {
			c.Cluster.KRange = ks
		} else {
			c.Cluster.SilhouetteRange = ks
		}
	case "efa.rotation":
		switch strings.ToLower(val) {
		case "varimax", "none":
			c.EFA.Rotation = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid efa.rotation: %s (use varimax or none)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseInts accepts "3,4,5" or a range "2-6".
func parseInts(s string) ([]int, error) {
	if lo, hi, ok := strings.Cut(s, "-"); ok && !strings.Contains(s, ",") {
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, err
		}
		b, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, err
		}
		if b < a {
			return nil, fmt.Errorf("empty range %s", s)
		}
		out := make([]int, 0, b-a+1)
		for k := a; k <= b; k++ {
			out = append(out, k)
		}
		return out, nil
	}
	var out []int
	for _, p := range splitList(s) {
		k, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}
