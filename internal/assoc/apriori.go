// Package assoc mines frequent itemsets and association rules from boolean
// survey columns.
package assoc

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// Itemset is a frequent combination of items with its support.
type Itemset struct {
	Items   []string // sorted by column order
	Support float64
	Count   int

	idx []int
}

// Len returns the number of items.
func (s Itemset) Len() int { return len(s.Items) }

// String joins the item names, sorted alphabetically, with ", ".
func (s Itemset) String() string {
	return JoinItems(s.Items)
}

// JoinItems renders item names the way result files list them.
func JoinItems(items []string) string {
	cp := append([]string(nil), items...)
	sort.Strings(cp)
	return strings.Join(cp, ", ")
}

// Transactions is a boolean matrix stored as one bitset per item.
type Transactions struct {
	Items []string
	n     int
	bits  [][]uint64
}

// NewTransactions builds the matrix from item columns; cols[j][i] reports
// whether row i contains item j.
func NewTransactions(items []string, cols [][]bool) (*Transactions, error) {
	if len(items) != len(cols) {
		return nil, fmt.Errorf("apriori: %d names for %d columns", len(items), len(cols))
	}
	t := &Transactions{Items: items}
	if len(cols) > 0 {
		t.n = len(cols[0])
	}
	words := (t.n + 63) / 64
	for j, c := range cols {
		if len(c) != t.n {
			return nil, fmt.Errorf("apriori: column %s has %d rows, want %d", items[j], len(c), t.n)
		}
		b := make([]uint64, words)
		for i, v := range c {
			if v {
				b[i/64] |= 1 << (uint(i) % 64)
			}
		}
		t.bits = append(t.bits, b)
	}
	return t, nil
}

// Rows returns the number of transactions.
func (t *Transactions) Rows() int { return t.n }

func (t *Transactions) count(idx []int) int {
	if len(idx) == 0 {
		return t.n
	}
	total := 0
	for w := range t.bits[idx[0]] {
		word := t.bits[idx[0]][w]
		for _, j := range idx[1:] {
			word &= t.bits[j][w]
		}
		total += bits.OnesCount64(word)
	}
	return total
}

// Apriori returns every itemset whose support is at least minSupport and
// whose length is at most maxLen (0 = unlimited), ordered by length and then
// by column order.
func Apriori(t *Transactions, minSupport float64, maxLen int) ([]Itemset, error) {
	if minSupport <= 0 || minSupport > 1 {
		return nil, fmt.Errorf("apriori: min_support must be in (0, 1], got %g", minSupport)
	}
	if t.n == 0 {
		return nil, nil
	}
	var out []Itemset
	var level [][]int
	for j := range t.Items {
		if c := t.count([]int{j}); float64(c)/float64(t.n) >= minSupport {
			level = append(level, []int{j})
			out = append(out, t.itemset([]int{j}, c))
		}
	}
	for k := 2; len(level) > 0 && (maxLen <= 0 || k <= maxLen); k++ {
		frequent := make(map[string]bool, len(level))
		for _, s := range level {
			frequent[key(s)] = true
		}
		var next [][]int
		for a := 0; a < len(level); a++ {
			for b := a + 1; b < len(level); b++ {
				if !samePrefix(level[a], level[b]) {
					break
				}
				cand := append(append([]int(nil), level[a]...), level[b][k-2])
				if !allSubsetsFrequent(cand, frequent) {
					continue
				}
				if c := t.count(cand); float64(c)/float64(t.n) >= minSupport {
					next = append(next, cand)
					out = append(out, t.itemset(cand, c))
				}
			}
		}
		level = next
	}
	return out, nil
}

func (t *Transactions) itemset(idx []int, count int) Itemset {
	names := make([]string, len(idx))
	for i, j := range idx {
		names[i] = t.Items[j]
	}
	return Itemset{Items: names, Support: float64(count) / float64(t.n), Count: count, idx: idx}
}

// samePrefix reports whether two sorted k-1 itemsets share their first k-2 items.
func samePrefix(a, b []int) bool {
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allSubsetsFrequent(cand []int, frequent map[string]bool) bool {
	if len(cand) <= 2 {
		return true
	}
	sub := make([]int, 0, len(cand)-1)
	for skip := range cand {
		sub = sub[:0]
		for i, v := range cand {
			if i != skip {
				sub = append(sub, v)
			}
		}
		if !frequent[key(sub)] {
			return false
		}
	}
	return true
}

func key(idx []int) string {
	var b strings.Builder
	for i, v := range idx {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", v)
	}
	return b.String()
}

// MinLen returns the itemsets with at least n items sorted by support,
// highest first.
func MinLen(sets []Itemset, n int) []Itemset {
	var out []Itemset
	for _, s := range sets {
		if s.Len() >= n {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Support > out[j].Support })
	return out
}
