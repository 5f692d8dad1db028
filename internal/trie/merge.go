package trie

// MergeFrom structurally unions source into idx: every path present in
// source is created in idx if missing, and occurrence counters are summed
// along the way. NumTransactions is summed too.
//
// translate maps a symbol id from source's symbol space into idx's. Callers
// merging two indexes built over independent symbol tables (the Merger,
// spec §4.8) pass a translation built by interning every source symbol's
// canonical string into the target table; callers merging within one shared
// symbol table pass the identity function.
func (idx *Index) MergeFrom(source *Index, translate func(int32) int32) {
	type pair struct {
		sourceID NodeID
		targetID NodeID
	}
	stack := []pair{{sourceID: Root, targetID: Root}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, c := range source.nodes[p.sourceID].children {
			sourceChild := &source.nodes[c.id]
			targetSymbol := translate(sourceChild.Symbol)
			targetChildID, _ := idx.GetOrCreateChild(p.targetID, targetSymbol, sourceChild.IsConsequent)
			idx.nodes[targetChildID].Occurrences += sourceChild.Occurrences
			stack = append(stack, pair{sourceID: c.id, targetID: targetChildID})
		}
	}

	idx.NumTransactions += source.NumTransactions
}
