// Package enumerate implements the Itemset Enumerator: a lazy, prunable walk
// over the Trie Store producing every (path, occurrences, depth) triple that
// matches a set of node-level filters.
package enumerate

import (
	"context"

	"github.com/timoklimmer/ambre/internal/normalize"
	"github.com/timoklimmer/ambre/internal/trie"
)

// Itemset is one emitted result: the full path to a trie node, split into
// its consequent and antecedent symbols, plus the node's counters.
type Itemset struct {
	Consequents []int32
	Antecedents []int32
	Occurrences uint64
	Depth       int32
	Support     float64
	node        trie.NodeID
}

// Node returns the underlying trie node id, for callers (the rule deriver)
// that need to look up a sibling itemset's node directly.
func (i Itemset) Node() trie.NodeID { return i.node }

// Filters bounds an enumeration. A zero-valued Filters matches every node.
type Filters struct {
	// MinOccurrences drops nodes (and, since occurrences are non-increasing
	// along a path, their entire subtree) below this threshold.
	MinOccurrences uint64

	// MaxOccurrences excludes nodes above this threshold from output. Zero
	// means unbounded. Unlike MinOccurrences this cannot prune a subtree: a
	// descendant's occurrences only ever decrease, so a node over the
	// ceiling may still have descendants under it.
	MaxOccurrences uint64

	// MinSupport, like MinOccurrences, is monotone along a path (support is
	// occurrences/root_occurrences) and so prunes whole subtrees. Zero
	// means unbounded.
	MinSupport float64

	// MaxSupport excludes nodes above this threshold from output, without
	// pruning, for the same reason as MaxOccurrences. Zero means unbounded.
	MaxSupport float64

	// MinLength, MaxLength bound itemset cardinality (trie depth). Zero
	// means unbounded on that side.
	MinLength, MaxLength int32

	// MaxAntecedentsLength bounds depth - consequents_count. Zero means
	// unbounded.
	MaxAntecedentsLength int32

	// FilterToConsequents, if non-nil, keeps only paths whose consequent
	// set equals exactly this set (by symbol id, order-independent).
	FilterToConsequents []int32

	// Order, if non-nil, re-sorts each node's children view by the total
	// order ≺ before recursing into them, rather than the trie's stable
	// surrogate order. It affects only the order itemsets are yielded in,
	// never which itemsets match. A nil Order walks in surrogate order.
	Order *normalize.Ordering
}

// Enumerate walks idx depth-first, yielding every node matching filters via
// yield. Walking stops early if yield returns false, or if ctx is done.
// MinOccurrences, MinSupport, MaxLength and MaxAntecedentsLength skip a
// node's whole subtree; MinLength, MaxOccurrences, MaxSupport and
// FilterToConsequents only exclude the node itself from output, and its
// descendants are still visited. When filters.Order is set, children are visited in ≺ order
// rather than the trie's stable surrogate order.
func Enumerate(ctx context.Context, idx *trie.Index, filters Filters, yield func(Itemset) bool) error {
	var targetConsequents map[int32]bool
	if filters.FilterToConsequents != nil {
		targetConsequents = make(map[int32]bool, len(filters.FilterToConsequents))
		for _, s := range filters.FilterToConsequents {
			targetConsequents[s] = true
		}
	}

	var less trie.Less
	if filters.Order != nil {
		less = filters.Order.Less
	}

	var walkErr error
	idx.DepthFirstOrdered(false, less, func(id trie.NodeID) trie.VisitAction {
		if err := ctx.Err(); err != nil {
			walkErr = err
			return trie.Stop
		}

		node := idx.Node(id)

		if node.Occurrences < filters.MinOccurrences {
			return trie.SkipChildren
		}
		support := idx.Support(id)
		if filters.MinSupport > 0 && support < filters.MinSupport {
			return trie.SkipChildren
		}
		if filters.MaxLength > 0 && node.Depth > filters.MaxLength {
			return trie.SkipChildren
		}
		antecedentsLength := node.Depth - node.ConsequentsCount
		if filters.MaxAntecedentsLength > 0 && antecedentsLength > filters.MaxAntecedentsLength {
			return trie.SkipChildren
		}

		belowMinLength := filters.MinLength > 0 && node.Depth < filters.MinLength
		aboveMaxOccurrences := filters.MaxOccurrences > 0 && node.Occurrences > filters.MaxOccurrences
		aboveMaxSupport := filters.MaxSupport > 0 && support > filters.MaxSupport
		matchesConsequents := targetConsequents == nil || consequentsMatch(idx, id, targetConsequents)

		if !belowMinLength && !aboveMaxOccurrences && !aboveMaxSupport && matchesConsequents {
			consequents, antecedents := idx.PathConsequentsAntecedents(id)
			item := Itemset{
				Consequents: consequents,
				Antecedents: antecedents,
				Occurrences: node.Occurrences,
				Depth:       node.Depth,
				Support:     support,
				node:        id,
			}
			if !yield(item) {
				return trie.Stop
			}
		}
		return trie.Continue
	})
	return walkErr
}

// consequentsMatch reports whether id's full consequent set equals target
// exactly.
func consequentsMatch(idx *trie.Index, id trie.NodeID, target map[int32]bool) bool {
	consequents, _ := idx.PathConsequentsAntecedents(id)
	if len(consequents) != len(target) {
		return false
	}
	for _, c := range consequents {
		if !target[c] {
			return false
		}
	}
	return true
}

// Collect runs Enumerate and returns every matching itemset as a slice.
func Collect(ctx context.Context, idx *trie.Index, filters Filters) ([]Itemset, error) {
	var out []Itemset
	err := Enumerate(ctx, idx, filters, func(item Itemset) bool {
		out = append(out, item)
		return true
	})
	return out, err
}
