// Package persist implements the Serializer: it turns a database's trie,
// symbol table, declared consequents, configuration, and common-sense rules
// into an opaque, versioned byte sequence, and reconstructs an observationally
// equal set of components from one (spec §4.10).
package persist

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/timoklimmer/ambre/internal/normalize"
	"github.com/timoklimmer/ambre/internal/trie"
	"github.com/timoklimmer/ambre/rules"
)

// magic identifies an ambre blob. It is the first four bytes of every
// serialized database, the way the teacher's formats lead with a fixed tag
// before any version-dependent content.
var magic = [4]byte{'A', 'M', 'B', 'R'}

// schemaVersion is the current wire format version. Loading a blob stamped
// with a different version fails with ErrSchemaMismatch rather than
// attempting a best-effort decode.
const schemaVersion uint32 = 1

// ErrSchemaMismatch indicates a blob's magic or schema version didn't match
// what this package can read.
var ErrSchemaMismatch = errors.New("persist: schema mismatch")

// Config is the subset of database configuration that must be preserved
// byte-for-byte across a save/load round trip so the reconstructed
// Normalizer behaves identically to the one that produced the saved symbol
// table.
type Config struct {
	CaseInsensitive     bool
	NormalizeWhitespace bool
	ReservedSeparator   string
	Alphabet            string
	MaxLen              int
	Strict              bool
}

// Snapshot is everything persist needs from a database to save it, and
// everything it hands back on load.
type Snapshot struct {
	// InstanceID identifies the database this snapshot was taken from, for
	// audit trails across save/load/merge (spec §1.4 identity). The zero
	// UUID is written and read like any other value; callers that don't
	// track an instance id simply leave it unset.
	InstanceID uuid.UUID

	Config      Config
	Symbols     []string // indexed by symbol id, in Table.All order
	Consequents []int32  // symbol ids, in declared order
	CommonSense []rules.CommonSenseRule
	Trie        *trie.Index
}

type commonSenseDTO struct {
	Antecedents []int32
	Consequents []int32
}

type nodeDTO struct {
	Symbol       int32
	IsConsequent bool
	Occurrences  uint64
	NumChildren  int32
}

type payload struct {
	InstanceID      uuid.UUID
	Config          Config
	Symbols         []string
	Consequents     []int32
	CommonSense     []commonSenseDTO
	NumTransactions uint64
	RootChildCount  int32
	Nodes           []nodeDTO
}

// Save encodes snap into w: a 4-byte magic, a 4-byte big-endian schema
// version, then a gob-encoded payload built from snap's components. The
// trie is flattened into a preorder traversal of (symbol, is_consequent,
// occurrences, child_count) tuples, which Load replays against a fresh
// trie.Index via GetOrCreateChild to reconstruct an equal trie: the same
// paths, counters, and child order, since GetOrCreateChild's placement rule
// is a pure function of (symbol id, is_consequent). Arena NodeIDs are
// assigned in preorder on load, so they can differ from the saved trie's.
func Save(w io.Writer, snap Snapshot) error {
	if _, err := w.Write(magic[:]); err != nil {
		return fmt.Errorf("persist: write magic: %w", err)
	}
	var versionBuf [4]byte
	binary.BigEndian.PutUint32(versionBuf[:], schemaVersion)
	if _, err := w.Write(versionBuf[:]); err != nil {
		return fmt.Errorf("persist: write schema version: %w", err)
	}

	nodes := make([]nodeDTO, 0, snap.Trie.NumNodes()-1)
	encodeChildren(snap.Trie, trie.Root, &nodes)

	commonSense := make([]commonSenseDTO, len(snap.CommonSense))
	for i, r := range snap.CommonSense {
		commonSense[i] = commonSenseDTO{Antecedents: r.Antecedents, Consequents: r.Consequents}
	}

	p := payload{
		InstanceID:      snap.InstanceID,
		Config:          snap.Config,
		Symbols:         snap.Symbols,
		Consequents:     snap.Consequents,
		CommonSense:     commonSense,
		NumTransactions: snap.Trie.NumTransactions,
		RootChildCount:  int32(len(snap.Trie.Children(trie.Root))),
		Nodes:           nodes,
	}
	if err := gob.NewEncoder(w).Encode(&p); err != nil {
		return fmt.Errorf("persist: encode payload: %w", err)
	}
	return nil
}

// Load decodes a blob produced by Save back into a Snapshot. It fails with
// ErrSchemaMismatch if the magic or schema version don't match what this
// package writes.
func Load(r io.Reader) (*Snapshot, error) {
	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("%w: not an ambre blob", ErrSchemaMismatch)
	}

	var versionBuf [4]byte
	if _, err := io.ReadFull(r, versionBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	version := binary.BigEndian.Uint32(versionBuf[:])
	if version != schemaVersion {
		return nil, fmt.Errorf("%w: got schema version %d, want %d", ErrSchemaMismatch, version, schemaVersion)
	}

	var p payload
	if err := gob.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("persist: decode payload: %w", err)
	}

	idx := trie.New()
	idx.NumTransactions = p.NumTransactions
	cursor := 0
	decodeChildren(idx, trie.Root, p.RootChildCount, p.Nodes, &cursor)

	commonSense := make([]rules.CommonSenseRule, len(p.CommonSense))
	for i, c := range p.CommonSense {
		commonSense[i] = rules.CommonSenseRule{Antecedents: c.Antecedents, Consequents: c.Consequents}
	}

	return &Snapshot{
		InstanceID:  p.InstanceID,
		Config:      p.Config,
		Symbols:     p.Symbols,
		Consequents: p.Consequents,
		CommonSense: commonSense,
		Trie:        idx,
	}, nil
}

func encodeChildren(idx *trie.Index, parent trie.NodeID, out *[]nodeDTO) {
	for _, childID := range idx.Children(parent) {
		n := idx.Node(childID)
		*out = append(*out, nodeDTO{
			Symbol:       n.Symbol,
			IsConsequent: n.IsConsequent,
			Occurrences:  n.Occurrences,
			NumChildren:  int32(len(idx.Children(childID))),
		})
		encodeChildren(idx, childID, out)
	}
}

func decodeChildren(idx *trie.Index, parent trie.NodeID, count int32, nodes []nodeDTO, cursor *int) {
	for i := int32(0); i < count; i++ {
		dto := nodes[*cursor]
		*cursor++
		childID, _ := idx.GetOrCreateChild(parent, dto.Symbol, dto.IsConsequent)
		idx.Node(childID).Occurrences = dto.Occurrences
		decodeChildren(idx, childID, dto.NumChildren, nodes, cursor)
	}
}

// SymbolTable rebuilds a *normalize.Table from a loaded Snapshot's Symbols,
// preserving symbol ids exactly (insertion order equals id order).
func SymbolTable(snap *Snapshot) *normalize.Table {
	table := normalize.NewTable()
	for _, s := range snap.Symbols {
		table.Intern(s)
	}
	return table
}

// DescribeYAML renders a human-readable summary of snap's metadata — the
// configuration, symbol count, consequent count, common-sense rule count,
// and node count — without touching the binary trie encoding. It is a
// diagnostic companion view, not an alternate save format: Load only ever
// reads the gob payload written by Save.
func DescribeYAML(snap Snapshot) ([]byte, error) {
	type summary struct {
		Config               Config `yaml:"config"`
		SymbolCount          int    `yaml:"symbol_count"`
		ConsequentCount      int    `yaml:"consequent_count"`
		CommonSenseRuleCount int    `yaml:"common_sense_rule_count"`
		NodeCount            int    `yaml:"node_count"`
		NumTransactions      uint64 `yaml:"num_transactions"`
	}
	s := summary{
		Config:               snap.Config,
		SymbolCount:          len(snap.Symbols),
		ConsequentCount:      len(snap.Consequents),
		CommonSenseRuleCount: len(snap.CommonSense),
		NodeCount:            snap.Trie.NumNodes(),
		NumTransactions:      snap.Trie.NumTransactions,
	}
	return marshalYAML(s)
}

// marshalYAML isolates the yaml.v3 dependency behind a narrow seam so the
// rest of the package stays testable without pulling the encoder into every
// call site's imports.
func marshalYAML(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := newYAMLEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("persist: marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("persist: close yaml encoder: %w", err)
	}
	return buf.Bytes(), nil
}
