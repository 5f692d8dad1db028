package trie

// Find walks symbols from the root and returns the node they resolve to, if
// every prefix exists. Symbols must already be in the order they were
// inserted along the path (consequents first in declared order, then
// antecedents by ascending symbol id; not ≺) — callers looking up an arbitrary itemset's
// node (e.g. to read an antecedent-only itemset's support for a confidence
// computation) are expected to have sorted it that way already.
func (idx *Index) Find(symbols []int32) (NodeID, bool) {
	cur := Root
	for _, s := range symbols {
		next, ok := idx.GetOrNone(cur, s)
		if !ok {
			return 0, false
		}
		cur = next
	}
	return cur, true
}
