package trie

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_HasOnlyRoot(t *testing.T) {
	idx := New()
	assert.Equal(t, 1, idx.NumNodes())
	assert.Equal(t, uint64(0), idx.NumTransactions)
}

func TestGetOrCreateChild_SortsConsequentsBeforeAntecedents(t *testing.T) {
	idx := New()

	antecedentID, created := idx.GetOrCreateChild(Root, 10, false)
	require.True(t, created)
	_ = antecedentID

	consequentID, created := idx.GetOrCreateChild(Root, 20, true)
	require.True(t, created)

	children := idx.Children(Root)
	require.Len(t, children, 2)
	assert.Equal(t, consequentID, children[0], "consequent child must sort before the antecedent child")
}

func TestGetOrCreateChild_IsIdempotent(t *testing.T) {
	idx := New()
	id1, created1 := idx.GetOrCreateChild(Root, 5, true)
	id2, created2 := idx.GetOrCreateChild(Root, 5, true)
	assert.True(t, created1)
	assert.False(t, created2)
	assert.Equal(t, id1, id2)
	assert.Equal(t, 2, idx.NumNodes())
}

func TestGetOrCreateChild_TracksDepthAndConsequentsCount(t *testing.T) {
	idx := New()
	c1, _ := idx.GetOrCreateChild(Root, 1, true)
	c2, _ := idx.GetOrCreateChild(c1, 2, true)
	c3, _ := idx.GetOrCreateChild(c2, 3, false)

	assert.Equal(t, int32(1), idx.Node(c1).Depth)
	assert.Equal(t, int32(2), idx.Node(c2).Depth)
	assert.Equal(t, int32(3), idx.Node(c3).Depth)

	assert.Equal(t, int32(1), idx.Node(c1).ConsequentsCount)
	assert.Equal(t, int32(2), idx.Node(c2).ConsequentsCount)
	assert.Equal(t, int32(2), idx.Node(c3).ConsequentsCount, "antecedent node inherits parent's consequents count")
}

func TestInsertPowerset_GeneratesFullPowersetOccurrences(t *testing.T) {
	idx := New()
	items := []Item{
		{Symbol: 1, IsConsequent: true},
		{Symbol: 2, IsConsequent: false},
		{Symbol: 3, IsConsequent: false},
	}
	idx.InsertPowerset(items, 0)

	// 2^3 - 1 = 7 non-empty subsets that preserve order.
	assert.Equal(t, 8, idx.NumNodes()) // root + 7
	assert.Equal(t, uint64(1), idx.NumTransactions)

	id, ok := idx.Find([]int32{1})
	require.True(t, ok)
	assert.Equal(t, uint64(1), idx.Node(id).Occurrences)

	id, ok = idx.Find([]int32{1, 2, 3})
	require.True(t, ok)
	assert.Equal(t, uint64(1), idx.Node(id).Occurrences)

	_, ok = idx.Find([]int32{2, 1})
	assert.False(t, ok, "subsets that violate trie order were never inserted")
}

func TestInsertPowerset_AccumulatesOccurrencesAcrossTransactions(t *testing.T) {
	idx := New()
	items := []Item{{Symbol: 1, IsConsequent: true}, {Symbol: 2, IsConsequent: false}}
	idx.InsertPowerset(items, 0)
	idx.InsertPowerset(items, 0)

	id, ok := idx.Find([]int32{1, 2})
	require.True(t, ok)
	assert.Equal(t, uint64(2), idx.Node(id).Occurrences)
	assert.Equal(t, uint64(2), idx.NumTransactions)
}

func TestInsertPowerset_MaxAntecedentsLengthCapsAntecedentCombinatorics(t *testing.T) {
	idx := New()
	items := []Item{
		{Symbol: 1, IsConsequent: true},
		{Symbol: 2, IsConsequent: false},
		{Symbol: 3, IsConsequent: false},
		{Symbol: 4, IsConsequent: false},
	}
	idx.InsertPowerset(items, 2)

	// the boundary itemset (exactly 2 antecedents) is still created...
	_, ok := idx.Find([]int32{1, 2, 3})
	assert.True(t, ok, "an itemset with exactly max antecedents is still created")

	// ...but it is never extended into a 3-antecedent itemset.
	_, ok = idx.Find([]int32{1, 2, 3, 4})
	assert.False(t, ok, "a three-antecedent path must be pruned when max is 2")

	_, ok = idx.Find([]int32{1, 2})
	assert.True(t, ok)
	_, ok = idx.Find([]int32{2, 3})
	assert.True(t, ok)
}

func TestPathConsequentsAntecedents(t *testing.T) {
	idx := New()
	items := []Item{
		{Symbol: 1, IsConsequent: true},
		{Symbol: 2, IsConsequent: true},
		{Symbol: 3, IsConsequent: false},
	}
	idx.InsertPowerset(items, 0)

	id, ok := idx.Find([]int32{1, 2, 3})
	require.True(t, ok)
	consequents, antecedents := idx.PathConsequentsAntecedents(id)
	assert.Equal(t, []int32{1, 2}, consequents)
	assert.Equal(t, []int32{3}, antecedents)
}

func TestSupport(t *testing.T) {
	idx := New()
	idx.InsertPowerset([]Item{{Symbol: 1, IsConsequent: true}}, 0)
	idx.InsertPowerset([]Item{{Symbol: 1, IsConsequent: true}}, 0)
	idx.InsertPowerset([]Item{{Symbol: 2, IsConsequent: false}}, 0)

	id, _ := idx.Find([]int32{1})
	assert.InDelta(t, 2.0/3.0, idx.Support(id), 1e-9)
}

func TestDepthFirst_OnlyConsequentBranchesSkipsPureAntecedentSubtrees(t *testing.T) {
	idx := New()
	idx.InsertPowerset([]Item{{Symbol: 1, IsConsequent: true}, {Symbol: 2, IsConsequent: false}}, 0)
	idx.InsertPowerset([]Item{{Symbol: 5, IsConsequent: false}}, 0)

	var visited []int32
	idx.DepthFirst(true, func(id NodeID) VisitAction {
		visited = append(visited, idx.Node(id).Symbol)
		return Continue
	})
	assert.Equal(t, []int32{1, 2}, visited)
}

func TestDepthFirstOrdered_ReSortsChildrenViewWithoutMutatingStorage(t *testing.T) {
	idx := New()
	idx.GetOrCreateChild(Root, 1, false)
	idx.GetOrCreateChild(Root, 2, false)
	idx.GetOrCreateChild(Root, 3, false)

	descending := func(a, b int32) bool { return a > b }

	var visited []int32
	idx.DepthFirstOrdered(false, descending, func(id NodeID) VisitAction {
		visited = append(visited, idx.Node(id).Symbol)
		return Continue
	})
	assert.Equal(t, []int32{3, 2, 1}, visited)

	// storage itself keeps the stable surrogate (ascending) order.
	assert.Equal(t, []int32{1, 2, 3}, idx.ChildSymbols(Root))
}

func TestDepthFirstOrdered_NilLessFallsBackToDepthFirst(t *testing.T) {
	idx := New()
	idx.GetOrCreateChild(Root, 1, false)
	idx.GetOrCreateChild(Root, 2, false)

	var orderedVisit, plainVisit []int32
	idx.DepthFirstOrdered(false, nil, func(id NodeID) VisitAction {
		orderedVisit = append(orderedVisit, idx.Node(id).Symbol)
		return Continue
	})
	idx.DepthFirst(false, func(id NodeID) VisitAction {
		plainVisit = append(plainVisit, idx.Node(id).Symbol)
		return Continue
	})
	assert.Equal(t, plainVisit, orderedVisit)
}

func TestBreadthFirst_VisitsLevelByLevel(t *testing.T) {
	idx := New()
	idx.InsertPowerset([]Item{{Symbol: 1, IsConsequent: true}, {Symbol: 2, IsConsequent: false}}, 0)

	var visited []int32
	idx.BreadthFirst(false, func(id NodeID) VisitAction {
		visited = append(visited, idx.Node(id).Symbol)
		return Continue
	})
	assert.Equal(t, []int32{1, 2}, visited)
}

func TestMergeFrom_SumsOccurrencesAndTransactions(t *testing.T) {
	a := New()
	a.InsertPowerset([]Item{{Symbol: 1, IsConsequent: true}, {Symbol: 2, IsConsequent: false}}, 0)

	b := New()
	b.InsertPowerset([]Item{{Symbol: 1, IsConsequent: true}, {Symbol: 2, IsConsequent: false}}, 0)
	b.InsertPowerset([]Item{{Symbol: 3, IsConsequent: false}}, 0)

	a.MergeFrom(b, func(s int32) int32 { return s })

	id, ok := a.Find([]int32{1, 2})
	require.True(t, ok)
	assert.Equal(t, uint64(2), a.Node(id).Occurrences)

	_, ok = a.Find([]int32{3})
	assert.True(t, ok)

	assert.Equal(t, uint64(3), a.NumTransactions)
}

func TestClone_IsIndependent(t *testing.T) {
	a := New()
	a.InsertPowerset([]Item{{Symbol: 1, IsConsequent: true}}, 0)

	b := a.Clone()
	b.InsertPowerset([]Item{{Symbol: 2, IsConsequent: false}}, 0)

	assert.Equal(t, 2, a.NumNodes())
	assert.Equal(t, 3, b.NumNodes())
}

func TestString_RendersOneLinePerNode(t *testing.T) {
	idx := New()
	idx.InsertPowerset([]Item{{Symbol: 1, IsConsequent: true}, {Symbol: 2, IsConsequent: false}}, 0)

	out := idx.String()
	assert.Contains(t, out, "[C] 1 (occ=1)")
	assert.Contains(t, out, "[A] 2 (occ=1)")
}

func TestDebugPrint_ResolvesSymbolNames(t *testing.T) {
	idx := New()
	idx.InsertPowerset([]Item{{Symbol: 1, IsConsequent: true}}, 0)

	names := map[int32]string{1: "bread"}
	var buf bytes.Buffer
	require.NoError(t, idx.DebugPrint(&buf, func(s int32) string { return names[s] }))
	assert.Contains(t, buf.String(), "[C] bread (occ=1)")
}
