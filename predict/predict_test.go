package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timoklimmer/ambre/internal/alphabet"
	"github.com/timoklimmer/ambre/internal/normalize"
	"github.com/timoklimmer/ambre/internal/trie"
)

type fixture struct {
	normalizer  *normalize.Normalizer
	consequents *normalize.ConsequentSet
	idx         *trie.Index
}

func newFixture(t *testing.T, consequentItems ...string) *fixture {
	t.Helper()
	codec, err := alphabet.New("")
	require.NoError(t, err)
	table := normalize.NewTable()
	normalizer := normalize.New(normalize.Config{CaseInsensitive: true, NormalizeWhitespace: true}, codec, table)

	ids := make([]int32, len(consequentItems))
	for i, item := range consequentItems {
		id, err := normalizer.Normalize(item)
		require.NoError(t, err)
		ids[i] = id
	}
	return &fixture{normalizer: normalizer, consequents: normalize.NewConsequentSet(ids), idx: trie.New()}
}

func (f *fixture) insert(t *testing.T, items []string) {
	t.Helper()
	seen := make(map[int32]bool)
	var trieItems []trie.Item
	var antecedentIDs []int32
	for _, raw := range items {
		id, err := f.normalizer.Normalize(raw)
		require.NoError(t, err)
		if seen[id] {
			continue
		}
		seen[id] = true
		if !f.consequents.Contains(id) {
			antecedentIDs = append(antecedentIDs, id)
		}
	}
	for _, c := range f.consequents.Ordered() {
		if seen[c] {
			trieItems = append(trieItems, trie.Item{Symbol: c, IsConsequent: true})
		}
	}
	for _, a := range antecedentIDs {
		trieItems = append(trieItems, trie.Item{Symbol: a, IsConsequent: false})
	}
	f.idx.InsertPowerset(trieItems, 0)
}

func TestPredict_ScoresConsequentByCoOccurrence(t *testing.T) {
	f := newFixture(t, "bread", "eggs")
	f.insert(t, []string{"milk", "bread"})
	f.insert(t, []string{"milk", "bread"})
	f.insert(t, []string{"milk", "eggs"})
	f.insert(t, []string{"milk"})

	p := New(f.normalizer, f.consequents)
	scores, err := p.Predict(f.idx, []string{"milk"}, false)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	breadID, _, _ := f.normalizer.Lookup("bread")
	eggsID, _, _ := f.normalizer.Lookup("eggs")

	byConsequent := make(map[int32]float64, len(scores))
	for _, s := range scores {
		byConsequent[s.Consequent] = s.Score
	}
	assert.InDelta(t, 2.0/4.0, byConsequent[breadID], 1e-9)
	assert.InDelta(t, 1.0/4.0, byConsequent[eggsID], 1e-9)

	// descending order: bread (0.5) before eggs (0.25).
	assert.Equal(t, breadID, scores[0].Consequent)
	assert.Equal(t, eggsID, scores[1].Consequent)
}

func TestPredict_UnknownAntecedentFailsByDefault(t *testing.T) {
	f := newFixture(t, "bread")
	f.insert(t, []string{"milk", "bread"})

	p := New(f.normalizer, f.consequents)
	_, err := p.Predict(f.idx, []string{"nutella"}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAntecedent)
}

func TestPredict_SkipUnknownDropsItemInsteadOfFailing(t *testing.T) {
	f := newFixture(t, "bread")
	f.insert(t, []string{"milk", "bread"})
	f.insert(t, []string{"milk"})

	p := New(f.normalizer, f.consequents)
	scores, err := p.Predict(f.idx, []string{"milk", "nutella"}, true)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.InDelta(t, 1.0/2.0, scores[0].Score, 1e-9)
}

func TestPredict_NeverStoredQueryScoresZero(t *testing.T) {
	f := newFixture(t, "bread")
	f.insert(t, []string{"milk", "bread"})
	f.insert(t, []string{"butter"})

	p := New(f.normalizer, f.consequents)
	scores, err := p.Predict(f.idx, []string{"milk", "butter"}, false)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 0.0, scores[0].Score, "milk and butter never co-occurred as a stored path")
}

func TestPredict_EmptyQueryUsesTotalTransactionsAsBase(t *testing.T) {
	f := newFixture(t, "bread")
	f.insert(t, []string{"milk", "bread"})
	f.insert(t, []string{"butter"})
	f.insert(t, []string{"bread"})

	p := New(f.normalizer, f.consequents)
	scores, err := p.Predict(f.idx, nil, false)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.InDelta(t, 2.0/3.0, scores[0].Score, 1e-9)
}
