// Package merge implements the Merger: it unions two independently-built
// symbol tables and tries into a single trie whose occurrence counters are
// observationally equal to the trie that would result from ingesting the
// concatenation of both input transaction streams (spec §4.8).
package merge

import (
	"errors"
	"fmt"
	"sort"

	"github.com/timoklimmer/ambre/internal/normalize"
	"github.com/timoklimmer/ambre/internal/trie"
	"github.com/timoklimmer/ambre/rules"
)

// ErrIncompatibleMerge indicates two inputs cannot be merged because their
// configuration or declared consequent sets differ (spec §4.8, §7).
var ErrIncompatibleMerge = errors.New("merge: inputs are incompatible")

// Config is the subset of database configuration that must match between two
// inputs before they can be merged: the consequent set, case-folding,
// alphabet, and max_len all shape how raw items become symbol ids and trie
// paths, so a mismatch would make the union meaningless.
type Config struct {
	CaseInsensitive bool
	Alphabet        string
	MaxLen          int
}

// Input bundles everything merge needs from one side of a merge: its
// configuration, symbol table, declared consequents (as ids in this input's
// own table; Merge compares them by canonical string, since symbol ids are
// per-table and not comparable across inputs), trie, and common-sense rules.
type Input struct {
	Config      Config
	Table       *normalize.Table
	Consequents *normalize.ConsequentSet
	Trie        *trie.Index
	CommonSense []rules.CommonSenseRule
}

// Result is the union produced by Merge: a freshly assigned symbol table,
// consequent set, trie, and common-sense rule list.
type Result struct {
	Table       *normalize.Table
	Consequents *normalize.ConsequentSet
	Trie        *trie.Index
	CommonSense []rules.CommonSenseRule
}

// Merge unions a and b into a fresh Result, per spec §4.8. Symbol ids in the
// result are freshly assigned: every canonical string from both inputs is
// interned into a new table, and both input tries are translated and
// structurally unioned into a new one via trie.MergeFrom.
func Merge(a, b Input) (*Result, error) {
	if err := checkCompatible(a, b); err != nil {
		return nil, err
	}

	target := normalize.NewTable()
	translateA := buildTranslation(a.Table, target)
	translateB := buildTranslation(b.Table, target)

	consequentIDs := make([]int32, a.Consequents.Len())
	for i, id := range a.Consequents.Ordered() {
		consequentIDs[i] = translateA(id)
	}

	out := trie.New()
	out.MergeFrom(a.Trie, translateA)
	out.MergeFrom(b.Trie, translateB)

	commonSense := dedupCommonSense(append(
		translateCommonSense(a.CommonSense, translateA),
		translateCommonSense(b.CommonSense, translateB)...,
	))

	return &Result{
		Table:       target,
		Consequents: normalize.NewConsequentSet(consequentIDs),
		Trie:        out,
		CommonSense: commonSense,
	}, nil
}

// MergeAll folds an arbitrary number of inputs into one, per the original
// implementation's "merge_databases": inputs are sorted by ascending trie
// size, and, starting from the smallest, the running result is merged
// pairwise with each next input in that order. Every step goes through
// Merge, so each produces a fresh table and trie into which both sides are
// translated; no input is modified. The distilled spec only requires the pairwise
// case (§4.8); this is a supplement grounded on the original's
// merge_databases/merge_database_pair.
func MergeAll(inputs ...Input) (*Result, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs given", ErrIncompatibleMerge)
	}

	ordered := append([]Input(nil), inputs...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Trie.NumNodes() < ordered[j].Trie.NumNodes()
	})

	acc := ordered[0]
	for _, next := range ordered[1:] {
		merged, err := Merge(acc, next)
		if err != nil {
			return nil, err
		}
		acc = Input{
			Config:      acc.Config,
			Table:       merged.Table,
			Consequents: merged.Consequents,
			Trie:        merged.Trie,
			CommonSense: merged.CommonSense,
		}
	}

	return &Result{Table: acc.Table, Consequents: acc.Consequents, Trie: acc.Trie, CommonSense: acc.CommonSense}, nil
}

func checkCompatible(a, b Input) error {
	if a.Config != b.Config {
		return fmt.Errorf("%w: configuration differs (case_insensitive/alphabet/max_len)", ErrIncompatibleMerge)
	}
	if !sameConsequentStrings(a, b) {
		return fmt.Errorf("%w: declared consequent sets differ", ErrIncompatibleMerge)
	}
	return nil
}

func sameConsequentStrings(a, b Input) bool {
	aOrdered := a.Consequents.Ordered()
	bOrdered := b.Consequents.Ordered()
	if len(aOrdered) != len(bOrdered) {
		return false
	}
	for i, id := range aOrdered {
		if a.Table.String(id) != b.Table.String(bOrdered[i]) {
			return false
		}
	}
	return true
}

// buildTranslation eagerly interns every symbol from source into target and
// returns a lookup closure from source's symbol space into target's. Built
// eagerly (rather than lazily during the trie walk) so the result is
// independent of walk order and every symbol — including ones that never
// appear past the trie root, such as a declared consequent no transaction
// ever carried — gets a translated id.
func buildTranslation(source *normalize.Table, target *normalize.Table) func(int32) int32 {
	translated := make([]int32, source.Len())
	for id := 0; id < source.Len(); id++ {
		translated[id] = target.Intern(source.String(int32(id)))
	}
	return func(id int32) int32 { return translated[id] }
}

func translateCommonSense(in []rules.CommonSenseRule, translate func(int32) int32) []rules.CommonSenseRule {
	out := make([]rules.CommonSenseRule, len(in))
	for i, r := range in {
		out[i] = rules.CommonSenseRule{
			Antecedents: translateIDs(r.Antecedents, translate),
			Consequents: translateIDs(r.Consequents, translate),
		}
	}
	return out
}

func translateIDs(ids []int32, translate func(int32) int32) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = translate(id)
	}
	return out
}

// dedupCommonSense drops exact duplicates (same antecedent set and same
// consequent set), preserving the first occurrence's order.
func dedupCommonSense(in []rules.CommonSenseRule) []rules.CommonSenseRule {
	seen := make(map[string]bool, len(in))
	out := make([]rules.CommonSenseRule, 0, len(in))
	for _, r := range in {
		key := setKey(r.Antecedents) + "|" + setKey(r.Consequents)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func setKey(ids []int32) string {
	sorted := append([]int32(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	buf := make([]byte, 0, len(sorted)*4)
	for _, id := range sorted {
		buf = append(buf, byte(id), byte(id>>8), byte(id>>16), byte(id>>24), ',')
	}
	return string(buf)
}
