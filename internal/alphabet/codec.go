// Package alphabet implements the bijective string↔bytes compression codec
// described for the item alphabet: a user-declared character set Σ lets each
// item be packed into a byte buffer using ⌈log2 k⌉ bits per position instead
// of a full byte, while remaining perfectly reversible.
//
// The codec is a pure memory optimization. Its output is only ever used as a
// map key and for serialization; every other component operates on interned
// symbol ids, never on codec output directly.
package alphabet

import (
	"errors"
	"strings"
)

// ErrCharacterNotInAlphabet indicates that a string to encode contains a
// character outside the declared alphabet.
// Classification: validation error (caller input).
// Usage: if errors.Is(err, ErrCharacterNotInAlphabet) { /* reject item */ }.
var ErrCharacterNotInAlphabet = errors.New("alphabet: character not in declared alphabet")

// ErrSentinelInAlphabet indicates that the declared alphabet contains the
// codec's internal sentinel rune (U+00FF), which must stay reserved.
var ErrSentinelInAlphabet = errors.New("alphabet: alphabet must not contain the reserved sentinel rune")

// sentinel is prepended to the alphabet so every legal input character maps
// to a position >= 1, which keeps leading characters from being lost during
// positional packing (mirrors the reference implementation's chr(255) guard
// character, at position 0 of the combined alphabet).
const sentinel = rune(0xFF)

// Codec compresses and decompresses strings against a fixed character
// alphabet. The zero value is the identity codec (no alphabet declared).
type Codec struct {
	alphabet []rune        // sentinel + declared characters, in declared order
	index    map[rune]int  // alphabet rune -> its position, for O(1) encode lookups
	enabled  bool
}

// New builds a Codec for the given alphabet. An empty alphabet disables
// compression entirely (Encode/Decode become the identity function), mirroring
// item_alphabet=None in the reference implementation.
func New(declaredAlphabet string) (*Codec, error) {
	if declaredAlphabet == "" {
		return &Codec{enabled: false}, nil
	}
	for _, r := range declaredAlphabet {
		if r == sentinel {
			return nil, ErrSentinelInAlphabet
		}
	}
	runes := []rune(declaredAlphabet)
	full := make([]rune, 0, len(runes)+1)
	full = append(full, sentinel)
	full = append(full, runes...)

	index := make(map[rune]int, len(full))
	for i, r := range full {
		// First occurrence wins; duplicate characters in a declared alphabet
		// are accepted (harmless) but do not get a second position.
		if _, exists := index[r]; !exists {
			index[r] = i
		}
	}
	return &Codec{alphabet: full, index: index, enabled: true}, nil
}

// Enabled reports whether this codec applies real compression (true) or acts
// as the identity function (false, when no alphabet was declared).
func (c *Codec) Enabled() bool {
	return c != nil && c.enabled
}

// Encode compresses s into its packed byte form. With no alphabet declared,
// it returns s unchanged. Returns ErrCharacterNotInAlphabet if s contains a
// character outside the declared alphabet.
//
// s is treated as a base-len(alphabet) number, most significant digit first,
// where each digit is a character's position in the sentinel-prefixed
// alphabet. Because the sentinel occupies position 0 and is never itself a
// legal input character, every digit of a non-empty s is >= 1, so the
// leading digit can never be zero and no padding bookkeeping is needed.
func (c *Codec) Encode(s string) (string, error) {
	if !c.Enabled() || s == "" {
		return s, nil
	}
	base := uint64(len(c.alphabet))
	var cumulative uint64
	for _, r := range s {
		pos, ok := c.index[r]
		if !ok {
			return "", errFor(r, s)
		}
		cumulative = cumulative*base + uint64(pos)
	}

	const outputBase = 256
	var buf []byte
	for cumulative > 0 {
		buf = append([]byte{byte(cumulative % outputBase)}, buf...)
		cumulative /= outputBase
	}
	return string(buf), nil
}

// Decode reverses Encode. With no alphabet declared, it returns the input
// unchanged.
func (c *Codec) Decode(compressed string) (string, error) {
	if !c.Enabled() || compressed == "" {
		return compressed, nil
	}
	const inputBase = 256
	var cumulative uint64
	for i := 0; i < len(compressed); i++ {
		cumulative = cumulative*inputBase + uint64(compressed[i])
	}

	base := uint64(len(c.alphabet))
	var out []rune
	for cumulative > 0 {
		out = append([]rune{c.alphabet[cumulative%base]}, out...)
		cumulative /= base
	}
	return string(out), nil
}

func errFor(r rune, s string) error {
	return &charError{r: r, s: s}
}

type charError struct {
	r rune
	s string
}

func (e *charError) Error() string {
	var b strings.Builder
	b.WriteString("alphabet: character '")
	b.WriteRune(e.r)
	b.WriteString("' not in declared alphabet (string: ")
	b.WriteString(e.s)
	b.WriteString(")")
	return b.String()
}

func (e *charError) Unwrap() error { return ErrCharacterNotInAlphabet }
