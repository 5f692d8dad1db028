// Package trie implements the Trie Store: the arena-backed prefix tree that
// holds every itemset inserted into a database, one node per distinct
// (consequent-prefix, antecedent-suffix) path. Within a node's children,
// consequents always sort before antecedents; within a group, children are
// stored in a stable surrogate order (ascending symbol id) fixed at node
// creation, independent of the frequency-based total order ≺. ≺ is never
// baked into node identity; DepthFirstOrdered applies it to a derivation
// walk's children view on the fly, computed fresh by internal/normalize and
// passed in by the enumerate and rules packages.
//
// Nodes are stored in a single growable slice (an arena) and referenced by
// NodeID, a dense int32 index, rather than by pointer — the same discipline
// the rest of this module's graph ancestor used for its adjacency storage,
// adapted here so Clone and Merge can copy or walk a trie without chasing
// pointers across two independent object graphs.
package trie

import "errors"

// ErrNotFound indicates a requested path has no corresponding node.
var ErrNotFound = errors.New("trie: path not found")

// NodeID identifies a node within an Index's arena. The zero value, Root,
// always refers to the trie's root node.
type NodeID int32

// Root is the NodeID of the always-present root node.
const Root NodeID = 0

// child is one entry in a node's children list: the symbol leading to it,
// alongside the NodeID it leads to. Children are stored as a slice, in
// stable surrogate order, rather than a map, so derivation can cheaply
// produce a frequency-sorted view without mutating storage order.
type child struct {
	symbol int32
	id     NodeID
}

// Node is one itemset within the trie: the path from the root to a Node is
// the itemset it represents, with Symbol holding the item appended at this
// node and Parent pointing back to the prefix.
type Node struct {
	// Symbol is the item (consequent or antecedent) appended at this node.
	// Unused (zero) at the root.
	Symbol int32

	// Parent is the NodeID of this node's prefix, i.e. the itemset with
	// Symbol removed. Root is its own parent.
	Parent NodeID

	// Occurrences counts the transactions whose powerset included this
	// node's itemset. Monotonically non-decreasing over the trie's
	// lifetime (spec invariant: occurrences never decrease).
	Occurrences uint64

	// Depth is the itemset's length: the number of edges from the root.
	Depth int32

	// ConsequentsCount is the number of consequent symbols among this
	// node's ancestors (inclusive of this node). It is prefix-monotone:
	// a node's ConsequentsCount never exceeds its parent's plus one, and
	// equals its parent's once antecedents begin.
	ConsequentsCount int32

	// IsConsequent marks this node's own Symbol as a declared consequent,
	// as opposed to an antecedent.
	IsConsequent bool

	children []child
}

// Index is the trie itself: an arena of Nodes plus the running transaction
// count needed to compute support.
type Index struct {
	nodes           []Node
	NumTransactions uint64
}

// New returns an empty Index containing only the root node.
func New() *Index {
	return &Index{nodes: []Node{{Parent: Root}}}
}

// NumNodes returns the number of nodes in the trie, including the root.
func (idx *Index) NumNodes() int {
	return len(idx.nodes)
}

// Node returns a pointer into the arena for id. The pointer is invalidated
// by any subsequent call that grows the arena (GetOrCreateChild); callers
// that hold a Node across such a call must re-fetch it.
func (idx *Index) Node(id NodeID) *Node {
	return &idx.nodes[id]
}

// ChildSymbols returns the symbols of id's children, in their stored
// surrogate order (not ≺; see DepthFirstOrdered for a ≺-ordered view).
func (idx *Index) ChildSymbols(id NodeID) []int32 {
	children := idx.nodes[id].children
	out := make([]int32, len(children))
	for i, c := range children {
		out[i] = c.symbol
	}
	return out
}

// Children returns the NodeIDs of id's children, in their stored order.
func (idx *Index) Children(id NodeID) []NodeID {
	children := idx.nodes[id].children
	out := make([]NodeID, len(children))
	for i, c := range children {
		out[i] = c.id
	}
	return out
}

// GetOrNone returns the child of parent reached by symbol, and whether it
// exists.
func (idx *Index) GetOrNone(parent NodeID, symbol int32) (NodeID, bool) {
	for _, c := range idx.nodes[parent].children {
		if c.symbol == symbol {
			return c.id, true
		}
	}
	return 0, false
}

// GetOrCreateChild returns the child of parent reached by symbol, creating
// it (as a consequent or antecedent node per isConsequent) if it doesn't
// already exist.
//
// New children are inserted at a position fixed by (consequent-before-
// antecedent, then symbol id ascending) — the stable surrogate order the
// spec calls for at ingestion time (consequent declared order is handled by
// the caller presenting consequent symbols in that order; ascending symbol
// id is a total order that never changes for two already-interned symbols,
// so the same itemset always resolves to the same node no matter how many
// times, or in what input order, it is ingested). This is deliberately NOT
// the frequency-based total order ≺: that order is a lazily recomputed view
// used only at derivation time, never baked into node identity.
func (idx *Index) GetOrCreateChild(parent NodeID, symbol int32, isConsequent bool) (NodeID, bool) {
	siblings := idx.nodes[parent].children
	for _, c := range siblings {
		if c.symbol == symbol {
			return c.id, false
		}
	}

	parentNode := &idx.nodes[parent]
	id := NodeID(len(idx.nodes))
	newNode := Node{
		Symbol:           symbol,
		Parent:           parent,
		Depth:            parentNode.Depth + 1,
		ConsequentsCount: parentNode.ConsequentsCount,
		IsConsequent:     isConsequent,
	}
	if isConsequent {
		newNode.ConsequentsCount++
	}
	idx.nodes = append(idx.nodes, newNode)

	// re-fetch: append may have reallocated the backing array.
	parentNode = &idx.nodes[parent]
	insertAt := len(parentNode.children)
	for i, c := range parentNode.children {
		if stableLess(symbol, isConsequent, c.symbol, idx.nodes[c.id].IsConsequent) {
			insertAt = i
			break
		}
	}
	parentNode.children = append(parentNode.children, child{})
	copy(parentNode.children[insertAt+1:], parentNode.children[insertAt:])
	parentNode.children[insertAt] = child{symbol: symbol, id: id}

	return id, true
}

// stableLess orders two candidate children: consequents first, then
// ascending symbol id within a group.
func stableLess(aSymbol int32, aConsequent bool, bSymbol int32, bConsequent bool) bool {
	if aConsequent != bConsequent {
		return aConsequent
	}
	return aSymbol < bSymbol
}

// Path reconstructs the itemset (root-to-id) as a slice of symbols in trie
// order (consequents first, each group in stored surrogate order).
func (idx *Index) Path(id NodeID) []int32 {
	depth := idx.nodes[id].Depth
	path := make([]int32, depth)
	for cur := id; cur != Root; cur = idx.nodes[cur].Parent {
		depth--
		path[depth] = idx.nodes[cur].Symbol
	}
	return path
}

// PathConsequentsAntecedents splits id's itemset into its consequent and
// antecedent symbols, each in trie order.
func (idx *Index) PathConsequentsAntecedents(id NodeID) (consequents, antecedents []int32) {
	for cur := id; cur != Root; cur = idx.nodes[cur].Parent {
		n := &idx.nodes[cur]
		if n.IsConsequent {
			consequents = append(consequents, n.Symbol)
		} else {
			antecedents = append(antecedents, n.Symbol)
		}
	}
	reverse(consequents)
	reverse(antecedents)
	return consequents, antecedents
}

func reverse(s []int32) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// Support returns id's occurrences as a fraction of NumTransactions. It
// returns 0 when no transactions have been inserted yet.
func (idx *Index) Support(id NodeID) float64 {
	if idx.NumTransactions == 0 {
		return 0
	}
	return float64(idx.nodes[id].Occurrences) / float64(idx.NumTransactions)
}

// Clone returns a deep copy of the Index, independent of the original.
func (idx *Index) Clone() *Index {
	nodes := make([]Node, len(idx.nodes))
	for i, n := range idx.nodes {
		nodes[i] = n
		nodes[i].children = append([]child(nil), n.children...)
	}
	return &Index{nodes: nodes, NumTransactions: idx.NumTransactions}
}
