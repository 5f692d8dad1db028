package normalize

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/timoklimmer/ambre/internal/alphabet"
)

// foldCase applies the Unicode Default Case Folding algorithm.
// strings.ToLower is locale-naive and diverges from proper folding for
// characters like Turkish İ/ı.
var foldCase = cases.Fold().String

// ErrEmptyItem indicates an item was empty after normalization (or to begin
// with). An item is, by data-model definition, a non-empty string.
var ErrEmptyItem = errors.New("normalize: item is empty")

// ErrReservedSeparator indicates an item contains the separator reserved for
// building "column<sep>value" items in the tabular adapter (spec §6); such
// an item would be ambiguous to split back into column and value.
var ErrReservedSeparator = errors.New("normalize: item contains the reserved column/value separator")

// Config controls how raw items are canonicalized before interning.
type Config struct {
	// CaseInsensitive folds item case via Unicode default case folding
	// (golang.org/x/text/cases.Fold), not a locale-sensitive lowercase.
	CaseInsensitive bool

	// NormalizeWhitespace trims and collapses runs of whitespace.
	NormalizeWhitespace bool

	// ReservedSeparator, if non-empty, is rejected inside any item (it is
	// reserved for the tabular adapter's "column<sep>value" item shape).
	ReservedSeparator string
}

// Normalizer canonicalizes raw items and interns them into symbol ids.
type Normalizer struct {
	cfg   Config
	codec *alphabet.Codec
	table *Table
}

// New builds a Normalizer over the given symbol table. codec may be the
// identity codec (alphabet.New("")) when no alphabet compression is
// configured.
func New(cfg Config, codec *alphabet.Codec, table *Table) *Normalizer {
	return &Normalizer{cfg: cfg, codec: codec, table: table}
}

// Canonicalize applies case-folding and whitespace normalization to raw,
// without interning or alphabet-encoding it. Exposed so callers that only
// need to compare items (e.g. matching declared consequents) can do so
// without touching the symbol table.
func (n *Normalizer) Canonicalize(raw string) (string, error) {
	s := raw
	if n.cfg.NormalizeWhitespace {
		s = collapseWhitespace(s)
	}
	if n.cfg.CaseInsensitive {
		s = foldCase(s)
	}
	if s == "" {
		return "", ErrEmptyItem
	}
	if n.cfg.ReservedSeparator != "" && strings.Contains(s, n.cfg.ReservedSeparator) {
		return "", fmt.Errorf("item %q: %w", raw, ErrReservedSeparator)
	}
	return s, nil
}

// Normalize canonicalizes raw, alphabet-encodes it if a codec is configured,
// and interns the result, returning its symbol id. First occurrence of a
// canonical form allocates a new monotone id.
func (n *Normalizer) Normalize(raw string) (int32, error) {
	canonical, err := n.Canonicalize(raw)
	if err != nil {
		return 0, err
	}
	encoded, err := n.codec.Encode(canonical)
	if err != nil {
		return 0, fmt.Errorf("item %q: %w", raw, err)
	}
	return n.table.Intern(encoded), nil
}

// Lookup canonicalizes and encodes raw the same way Normalize does, but only
// looks up an existing symbol id without interning a new one. Used by the
// predictor, which must distinguish "never seen" from "seen" antecedents.
func (n *Normalizer) Lookup(raw string) (id int32, found bool, err error) {
	canonical, err := n.Canonicalize(raw)
	if err != nil {
		return 0, false, err
	}
	encoded, err := n.codec.Encode(canonical)
	if err != nil {
		return 0, false, fmt.Errorf("item %q: %w", raw, err)
	}
	id, found = n.table.Lookup(encoded)
	return id, found, nil
}

// Decode returns the display string for a symbol id: the alphabet-decoded
// canonical form.
func (n *Normalizer) Decode(id int32) (string, error) {
	encoded := n.table.String(id)
	return n.codec.Decode(encoded)
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
