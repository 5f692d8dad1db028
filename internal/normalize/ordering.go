package normalize

import "sort"

// Ordering is the total order ≺ over symbols for one derivation call: every
// item in the declared consequent set C strictly precedes every item not in
// C; within C the declared order is preserved; within the complement, items
// are ordered by descending occurrence count, ties broken by ascending
// canonical string (spec §3, §9 Open Questions).
//
// An Ordering is a pure function of the trie's depth-1 counters and the
// declared consequent set at the moment it is computed. Per spec §9's
// "never a cached side value" guidance, callers must recompute it on every
// derivation rather than reuse one across ingestions.
type Ordering struct {
	rank map[int32]int
}

// ComputeOrdering builds the ≺ order given the declared consequents and the
// depth-1 occurrence counts observed so far (symbol id -> occurrences),
// using table to break frequency ties lexicographically by canonical string.
func ComputeOrdering(consequents *ConsequentSet, depth1Occurrences map[int32]uint64, table *Table) *Ordering {
	rank := make(map[int32]int, len(depth1Occurrences)+consequents.Len())

	next := 0
	for _, c := range consequents.Ordered() {
		rank[c] = next
		next++
	}

	nonConsequents := make([]int32, 0, len(depth1Occurrences))
	for id := range depth1Occurrences {
		if !consequents.Contains(id) {
			nonConsequents = append(nonConsequents, id)
		}
	}
	sort.Slice(nonConsequents, func(i, j int) bool {
		a, b := nonConsequents[i], nonConsequents[j]
		occA, occB := depth1Occurrences[a], depth1Occurrences[b]
		if occA != occB {
			return occA > occB // descending frequency
		}
		return table.String(a) < table.String(b) // lexicographic tie-break
	})
	for _, id := range nonConsequents {
		rank[id] = next
		next++
	}

	return &Ordering{rank: rank}
}

// Less reports whether a strictly precedes b under ≺. A symbol with no
// known rank (never observed as a depth-1 node, and not a declared
// consequent) sorts after every ranked symbol; between two such symbols,
// raw id order is used as a last-resort, deterministic tiebreak.
func (o *Ordering) Less(a, b int32) bool {
	ra, aok := o.rank[a]
	rb, bok := o.rank[b]
	switch {
	case aok && bok:
		return ra < rb
	case aok:
		return true
	case bok:
		return false
	default:
		return a < b
	}
}

// SortSymbols sorts ids in place according to ≺.
func (o *Ordering) SortSymbols(ids []int32) {
	sort.Slice(ids, func(i, j int) bool { return o.Less(ids[i], ids[j]) })
}
