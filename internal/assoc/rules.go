package assoc

import (
	"fmt"
	"math"
	"sort"
)

// Rule metric names accepted by Rules.
const (
	MetricSupport    = "support"
	MetricConfidence = "confidence"
	MetricLift       = "lift"
	MetricLeverage   = "leverage"
	MetricConviction = "conviction"
)

// Rule is an association rule Antecedent -> Consequent.
type Rule struct {
	Antecedent        []string
	Consequent        []string
	AntecedentSupport float64
	ConsequentSupport float64
	Support           float64
	Confidence        float64
	Lift              float64
	Leverage          float64
	Conviction        float64 // +Inf when confidence is 1
}

func (r Rule) metric(name string) float64 {
	switch name {
	case MetricSupport:
		return r.Support
	case MetricConfidence:
		return r.Confidence
	case MetricLeverage:
		return r.Leverage
	case MetricConviction:
		return r.Conviction
	default:
		return r.Lift
	}
}

// Rules derives every rule from the frequent itemsets whose metric is at
// least minThreshold. Every non-empty proper subset of a frequent itemset is
// tried as antecedent, larger antecedents first.
func Rules(sets []Itemset, metric string, minThreshold float64) ([]Rule, error) {
	switch metric {
	case MetricSupport, MetricConfidence, MetricLift, MetricLeverage, MetricConviction:
	default:
		return nil, fmt.Errorf("association rules: unknown metric %q", metric)
	}
	support := make(map[string]float64, len(sets))
	names := map[int]string{}
	for _, s := range sets {
		support[key(s.idx)] = s.Support
		for i, j := range s.idx {
			names[j] = s.Items[i]
		}
	}
	var out []Rule
	for _, s := range sets {
		if len(s.idx) < 2 {
			continue
		}
		for size := len(s.idx) - 1; size >= 1; size-- {
			for _, ant := range combinations(s.idx, size) {
				cons := difference(s.idx, ant)
				sa, okA := support[key(ant)]
				sc, okC := support[key(cons)]
				if !okA || !okC {
					continue
				}
				r := Rule{
					Antecedent:        lookup(names, ant),
					Consequent:        lookup(names, cons),
					AntecedentSupport: sa,
					ConsequentSupport: sc,
					Support:           s.Support,
					Confidence:        s.Support / sa,
				}
				r.Lift = r.Confidence / sc
				r.Leverage = s.Support - sa*sc
				if r.Confidence >= 1 {
					r.Conviction = math.Inf(1)
				} else {
					r.Conviction = (1 - sc) / (1 - r.Confidence)
				}
				if r.metric(metric) >= minThreshold {
					out = append(out, r)
				}
			}
		}
	}
	return out, nil
}

// SortBySupport orders rules by support, highest first, and keeps at most
// limit of them (0 = all).
func SortBySupport(rules []Rule, limit int) []Rule {
	out := append([]Rule(nil), rules...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Support > out[j].Support })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func combinations(set []int, k int) [][]int {
	var out [][]int
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		c := make([]int, k)
		for i, p := range idx {
			c[i] = set[p]
		}
		out = append(out, c)
		i := k - 1
		for i >= 0 && idx[i] == len(set)-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

func difference(set, sub []int) []int {
	skip := make(map[int]bool, len(sub))
	for _, v := range sub {
		skip[v] = true
	}
	var out []int
	for _, v := range set {
		if !skip[v] {
			out = append(out, v)
		}
	}
	return out
}

func lookup(names map[int]string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = names[j]
	}
	return out
}
