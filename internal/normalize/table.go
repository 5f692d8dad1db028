// Package normalize implements the Normalizer and Item Ordering components:
// canonicalizing raw items into interned symbol ids, and computing the total
// order ≺ that places consequents first and orders the remaining items by
// descending global frequency.
package normalize

// Table interns canonical item strings into monotone, dense int32 ids, the
// symbol ids every other component operates on. It never forgets or reuses
// an id: nodes are created on first occurrence and never deleted, matching
// the trie's own append-only lifecycle (spec §3 Lifecycle).
type Table struct {
	strings []string
	ids     map[string]int32
}

// NewTable returns an empty symbol table.
func NewTable() *Table {
	return &Table{ids: make(map[string]int32)}
}

// Intern returns the symbol id for canonical, allocating a new one on first
// occurrence. canonical must already be normalized (case-folded, whitespace
// collapsed, alphabet-encoded as applicable) — Table itself does no
// normalization.
func (t *Table) Intern(canonical string) int32 {
	if id, ok := t.ids[canonical]; ok {
		return id
	}
	id := int32(len(t.strings))
	t.strings = append(t.strings, canonical)
	t.ids[canonical] = id
	return id
}

// Lookup returns the symbol id for canonical without allocating one, and
// whether it was found.
func (t *Table) Lookup(canonical string) (int32, bool) {
	id, ok := t.ids[canonical]
	return id, ok
}

// String returns the canonical string interned under id.
func (t *Table) String(id int32) string {
	return t.strings[id]
}

// Len returns the number of distinct interned symbols.
func (t *Table) Len() int {
	return len(t.strings)
}

// All returns every interned canonical string, indexed by symbol id. The
// returned slice is owned by the caller but aliases Table's backing array;
// callers must not mutate it.
func (t *Table) All() []string {
	return t.strings
}

// Clone returns a deep copy of the table, suitable for Database.Clone.
func (t *Table) Clone() *Table {
	strings := make([]string, len(t.strings))
	copy(strings, t.strings)
	ids := make(map[string]int32, len(t.ids))
	for k, v := range t.ids {
		ids[k] = v
	}
	return &Table{strings: strings, ids: ids}
}
