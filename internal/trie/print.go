package trie

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// String renders the whole trie as an indented outline, one line per node,
// in stored child order. Symbols are printed as their raw int32 ids: callers
// that need item names should use DebugPrint with a symbol lookup instead.
func (idx *Index) String() string {
	var b strings.Builder
	idx.writeSubtree(&b, Root, 0, func(id int32) string { return strconv.Itoa(int(id)) })
	return b.String()
}

// DebugPrint writes the same indented outline as String to w, resolving
// each symbol id through symbolName (typically a normalize.Table lookup)
// instead of printing raw ids — the trie analogue of the original Python
// package's ItemsetsTrie.print/with_consequents_highlighted.
func (idx *Index) DebugPrint(w io.Writer, symbolName func(int32) string) error {
	var b strings.Builder
	idx.writeSubtree(&b, Root, 0, symbolName)
	_, err := io.WriteString(w, b.String())
	return err
}

func (idx *Index) writeSubtree(b *strings.Builder, id NodeID, depth int, name func(int32) string) {
	node := &idx.nodes[id]
	if id != Root {
		b.WriteString(strings.Repeat("  ", depth-1))
		kind := "A"
		if node.IsConsequent {
			kind = "C"
		}
		fmt.Fprintf(b, "- [%s] %s (occ=%d)\n", kind, name(node.Symbol), node.Occurrences)
	}
	for _, c := range node.children {
		idx.writeSubtree(b, c.id, depth+1, name)
	}
}
