package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timoklimmer/ambre/internal/trie"
)

func insertTxn(idx *trie.Index, consequents, antecedents []int32) {
	items := make([]trie.Item, 0, len(consequents)+len(antecedents))
	for _, c := range consequents {
		items = append(items, trie.Item{Symbol: c, IsConsequent: true})
	}
	for _, a := range antecedents {
		items = append(items, trie.Item{Symbol: a, IsConsequent: false})
	}
	idx.InsertPowerset(items, 0)
}

// groceryBasket builds the E1 scenario: bread=1 (consequent), milk=2, butter=3, beer=4, diapers=5.
func groceryBasket() *trie.Index {
	idx := trie.New()
	insertTxn(idx, []int32{1}, []int32{2})
	insertTxn(idx, nil, []int32{3})
	insertTxn(idx, nil, []int32{4, 5})
	insertTxn(idx, []int32{1}, []int32{2, 3})
	insertTxn(idx, []int32{1}, nil)
	return idx
}

func findRule(t *testing.T, rs []Rule, antecedents, consequents []int32) Rule {
	t.Helper()
	for _, r := range rs {
		if equalSet(r.Antecedents, antecedents) && equalSet(r.Consequents, consequents) {
			return r
		}
	}
	t.Fatalf("no rule found for %v => %v among %d rules", antecedents, consequents, len(rs))
	return Rule{}
}

func equalSet(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	seen := toSet(a)
	for _, x := range b {
		if !seen[x] {
			return false
		}
	}
	return true
}

func TestDerive_E1_GroceryBasket(t *testing.T) {
	idx := groceryBasket()
	rs, err := Derive(context.Background(), idx, nil, Options{})
	require.NoError(t, err)

	rule := findRule(t, rs, []int32{2}, []int32{1})
	assert.InDelta(t, 1.0, rule.Confidence, 1e-9)
	assert.InDelta(t, 2.0/5.0, rule.Support, 1e-9)
	assert.InDelta(t, 5.0/3.0, rule.Lift, 1e-9)
}

func TestDerive_E2_CommonSenseSuppression(t *testing.T) {
	// S=1 is the consequent (symbol 1); P=0 is the antecedent (symbol 2).
	idx := trie.New()
	for i := 0; i < 5; i++ {
		insertTxn(idx, []int32{1}, []int32{2})
	}
	for i := 0; i < 5; i++ {
		insertTxn(idx, nil, []int32{2}) // S=0 transactions: no consequent symbol at all
	}

	before, err := Derive(context.Background(), idx, nil, Options{})
	require.NoError(t, err)
	rule := findRule(t, before, []int32{2}, []int32{1})
	assert.InDelta(t, 0.5, rule.Confidence, 1e-9)

	after, err := Derive(context.Background(), idx, []CommonSenseRule{{Antecedents: []int32{2}, Consequents: []int32{1}}}, Options{})
	require.NoError(t, err)
	for _, r := range after {
		assert.False(t, equalSet(r.Antecedents, []int32{2}) && equalSet(r.Consequents, []int32{1}))
	}
}

func TestDerive_MinimalitySuppressesRedundantSupersets(t *testing.T) {
	idx := trie.New()
	// every transaction containing {milk=2, bread=1} also contains butter=3,
	// so {milk,butter} => {bread} never beats {milk} => {bread} on confidence.
	for i := 0; i < 4; i++ {
		insertTxn(idx, []int32{1}, []int32{2, 3})
	}

	rs, err := Derive(context.Background(), idx, nil, Options{})
	require.NoError(t, err)

	for _, r := range rs {
		assert.False(t, equalSet(r.Antecedents, []int32{2, 3}) && equalSet(r.Consequents, []int32{1}),
			"superset rule with no confidence gain must be suppressed")
	}
	findRule(t, rs, []int32{2}, []int32{1})
}

func TestDerive_MinimalityKeepsSupersetWithConfidenceGain(t *testing.T) {
	idx := trie.New()
	for i := 0; i < 3; i++ {
		insertTxn(idx, []int32{1}, []int32{2, 3}) // milk, butter => bread, confidence 1 for the pair
	}
	insertTxn(idx, nil, []int32{2}) // a milk-only transaction without bread, confidence(milk=>bread) < 1
	insertTxn(idx, nil, []int32{3}) // a butter-only transaction without bread, confidence(butter=>bread) < 1

	rs, err := Derive(context.Background(), idx, nil, Options{})
	require.NoError(t, err)

	pair := findRule(t, rs, []int32{2, 3}, []int32{1})
	assert.InDelta(t, 1.0, pair.Confidence, 1e-9)
}

func TestDerive_NonAntecedentRulesEmitsConsequentOnlyRule(t *testing.T) {
	idx := groceryBasket()

	without, err := Derive(context.Background(), idx, nil, Options{})
	require.NoError(t, err)
	for _, r := range without {
		assert.NotEmpty(t, r.Antecedents)
	}

	with, err := Derive(context.Background(), idx, nil, Options{NonAntecedentRules: true})
	require.NoError(t, err)
	found := false
	for _, r := range with {
		if len(r.Antecedents) == 0 && equalSet(r.Consequents, []int32{1}) {
			found = true
			assert.InDelta(t, 3.0/5.0, r.Support, 1e-9)
		}
	}
	assert.True(t, found)
}

func TestDerive_ConfidenceToleranceSuppressesNearTiedSuperset(t *testing.T) {
	idx := trie.New()
	for i := 0; i < 14; i++ {
		insertTxn(idx, []int32{1}, []int32{2}) // bread, milk
	}
	insertTxn(idx, nil, []int32{2}) // milk only, no bread
	for i := 0; i < 5; i++ {
		insertTxn(idx, []int32{1}, []int32{2, 3}) // bread, milk, butter
	}
	// milk => bread: confidence 19/20 = 0.95
	// milk,butter => bread: confidence 5/5 = 1.0 (gain of 0.05)

	strict, err := Derive(context.Background(), idx, nil, Options{})
	require.NoError(t, err)
	findRule(t, strict, []int32{2, 3}, []int32{1})

	tolerant, err := Derive(context.Background(), idx, nil, Options{ConfidenceTolerance: 0.05})
	require.NoError(t, err)
	for _, r := range tolerant {
		assert.False(t, equalSet(r.Antecedents, []int32{2, 3}) && equalSet(r.Consequents, []int32{1}),
			"a 0.05 confidence gain must be suppressed under a 0.05 tolerance")
	}
	findRule(t, tolerant, []int32{2}, []int32{1})
}

func TestDerive_MinConfidenceFilter(t *testing.T) {
	idx := groceryBasket()
	rs, err := Derive(context.Background(), idx, nil, Options{MinConfidence: 0.9})
	require.NoError(t, err)
	for _, r := range rs {
		assert.GreaterOrEqual(t, r.Confidence, 0.9)
	}
}
