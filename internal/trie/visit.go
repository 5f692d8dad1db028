package trie

import "sort"

// VisitAction controls how DepthFirst proceeds after visiting a node.
type VisitAction int

const (
	// Continue visits the node's children next (if any), then siblings.
	Continue VisitAction = iota
	// SkipChildren skips straight to the next sibling, pruning this node's subtree.
	SkipChildren
	// Stop ends the walk immediately.
	Stop
)

// VisitFunc is called once per non-root node during a walk.
type VisitFunc func(id NodeID) VisitAction

// Less is a strict less-than over symbol ids, used to re-sort a node's
// children view for a walk without touching stored node identity. Callers
// typically pass normalize.Ordering.Less.
type Less func(a, b int32) bool

// DepthFirst walks every node except the root, depth-first, left to right,
// in the stable surrogate order fixed at node creation (consequents before
// antecedents, ascending symbol id within a group — see GetOrCreateChild).
// onlyConsequentBranches, when true, stops a branch as soon as its
// root-level ancestor is an antecedent — used to restrict a walk to
// itemsets that contain at least one consequent, since consequents always
// sort before antecedents at the root.
func (idx *Index) DepthFirst(onlyConsequentBranches bool, visit VisitFunc) {
	idx.DepthFirstOrdered(onlyConsequentBranches, nil, visit)
}

// DepthFirstOrdered is DepthFirst, except each node's children are visited
// sorted by less rather than in stored surrogate order. less is nil-safe:
// a nil less falls back to DepthFirst's stable order. This is how the
// frequency-based total order ≺ (internal/normalize.Ordering) gets applied
// to a derivation walk without ever being baked into the trie itself.
func (idx *Index) DepthFirstOrdered(onlyConsequentBranches bool, less Less, visit VisitFunc) {
	children := func(id NodeID) []child {
		c := idx.nodes[id].children
		if less == nil {
			return c
		}
		sorted := append([]child(nil), c...)
		sort.Slice(sorted, func(i, j int) bool { return less(sorted[i].symbol, sorted[j].symbol) })
		return sorted
	}

	var walk func(id NodeID) VisitAction
	walk = func(id NodeID) VisitAction {
		action := visit(id)
		if action == Stop {
			return Stop
		}
		if action == SkipChildren {
			return Continue
		}
		for _, c := range children(id) {
			if childAction := walk(c.id); childAction == Stop {
				return Stop
			}
		}
		return Continue
	}

	for _, c := range children(Root) {
		if onlyConsequentBranches && !idx.nodes[c.id].IsConsequent {
			continue
		}
		if walk(c.id) == Stop {
			return
		}
	}
}

// BreadthFirst walks every node except the root, level by level, in the
// same stable surrogate order as DepthFirst within a level.
// onlyConsequentBranches has the same meaning as in DepthFirst.
func (idx *Index) BreadthFirst(onlyConsequentBranches bool, visit VisitFunc) {
	level := make([]NodeID, 0, len(idx.nodes[Root].children))
	for _, c := range idx.nodes[Root].children {
		if onlyConsequentBranches && !idx.nodes[c.id].IsConsequent {
			continue
		}
		level = append(level, c.id)
	}

	for len(level) > 0 {
		next := make([]NodeID, 0)
		for _, id := range level {
			switch visit(id) {
			case Stop:
				return
			default:
				next = append(next, idx.Children(id)...)
			}
		}
		level = next
	}
}

// ConsequentRootNodes returns the root's children that are consequents —
// the starting points for every itemset that contains at least one
// consequent.
func (idx *Index) ConsequentRootNodes() []NodeID {
	var result []NodeID
	for _, c := range idx.nodes[Root].children {
		if idx.nodes[c.id].IsConsequent {
			result = append(result, c.id)
		}
	}
	return result
}

// FirstAntecedentNodes returns, for every consequent-only path from the
// root, the node where its first antecedent appears — the boundary nodes
// where a pure-consequent itemset starts picking up antecedents.
func (idx *Index) FirstAntecedentNodes() []NodeID {
	var result []NodeID
	idx.DepthFirst(true, func(id NodeID) VisitAction {
		if !idx.nodes[id].IsConsequent {
			result = append(result, id)
			return SkipChildren
		}
		return Continue
	})
	return result
}
