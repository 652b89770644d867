package assoc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T) *Transactions {
	t.Helper()
	tx, err := NewTransactions([]string{"plastic_bag", "bottle", "straw"}, [][]bool{
		{true, true, false, false, false},
		{true, true, false, false, true},
		{false, true, false, false, false},
	})
	require.NoError(t, err)
	return tx
}

func TestApriori(t *testing.T) {
	tx := fixture(t)
	sets, err := Apriori(tx, 0.4, 3)
	require.NoError(t, err)
	require.Len(t, sets, 3)
	assert.Equal(t, []string{"plastic_bag"}, sets[0].Items)
	assert.InDelta(t, 0.4, sets[0].Support, 1e-12)
	assert.Equal(t, []string{"bottle"}, sets[1].Items)
	assert.InDelta(t, 0.6, sets[1].Support, 1e-12)
	assert.Equal(t, []string{"plastic_bag", "bottle"}, sets[2].Items)
	assert.Equal(t, 2, sets[2].Count)
	assert.Equal(t, "bottle, plastic_bag", sets[2].String())

	multi := MinLen(sets, 2)
	require.Len(t, multi, 1)

	singles, err := Apriori(tx, 0.4, 1)
	require.NoError(t, err)
	assert.Len(t, singles, 2)

	all, err := Apriori(tx, 0.2, 0)
	require.NoError(t, err)
	assert.Len(t, all, 7)
	assert.Equal(t, 3, all[len(all)-1].Len())

	_, err = Apriori(tx, 0, 2)
	assert.Error(t, err)
}

func TestRules(t *testing.T) {
	sets, err := Apriori(fixture(t), 0.4, 2)
	require.NoError(t, err)
	rules, err := Rules(sets, MetricLift, 1.0)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	r := rules[0]
	assert.Equal(t, []string{"plastic_bag"}, r.Antecedent)
	assert.Equal(t, []string{"bottle"}, r.Consequent)
	assert.InDelta(t, 0.4, r.AntecedentSupport, 1e-12)
	assert.InDelta(t, 0.6, r.ConsequentSupport, 1e-12)
	assert.InDelta(t, 1.0, r.Confidence, 1e-12)
	assert.InDelta(t, 1/0.6, r.Lift, 1e-12)
	assert.InDelta(t, 0.16, r.Leverage, 1e-12)
	assert.True(t, math.IsInf(r.Conviction, 1))

	r = rules[1]
	assert.InDelta(t, 2.0/3, r.Confidence, 1e-12)
	assert.InDelta(t, 1.8, r.Conviction, 1e-9)

	strict, err := Rules(sets, MetricConfidence, 0.9)
	require.NoError(t, err)
	assert.Len(t, strict, 1)

	_, err = Rules(sets, "zhang", 0)
	assert.Error(t, err)
}

func TestSortBySupportAndCombinations(t *testing.T) {
	rules := []Rule{{Support: 0.1}, {Support: 0.5}, {Support: 0.3}}
	top := SortBySupport(rules, 2)
	require.Len(t, top, 2)
	assert.Equal(t, 0.5, top[0].Support)
	assert.Equal(t, 0.3, top[1].Support)

	assert.Equal(t, [][]int{{1, 2}, {1, 3}, {2, 3}}, combinations([]int{1, 2, 3}, 2))
}

func TestNewTransactionsMismatch(t *testing.T) {
	_, err := NewTransactions([]string{"a"}, [][]bool{{true}, {false}})
	assert.Error(t, err)
	_, err = NewTransactions([]string{"a", "b"}, [][]bool{{true}, {false, true}})
	assert.Error(t, err)
}
