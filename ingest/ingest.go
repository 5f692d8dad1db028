// Package ingest implements the Ingestor: it turns a raw transaction into a
// ≺-ordered sequence of symbols, enumerates its order-preserving powerset,
// and inserts every member into the Trie Store, incrementing each visited
// node's occurrence counter exactly once.
package ingest

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/timoklimmer/ambre/internal/normalize"
	"github.com/timoklimmer/ambre/internal/trie"
)

// ErrMaxLenExceeded indicates a transaction exceeded max_len while strict
// mode was requested.
var ErrMaxLenExceeded = errors.New("ingest: transaction length exceeds the configured maximum")

// ErrInvalidSamplingRatio indicates a sampling_ratio outside (0, 1].
var ErrInvalidSamplingRatio = errors.New("ingest: sampling_ratio must be in (0, 1]")

// Ingestor owns the pipeline from raw items to trie mutation. It holds no
// state of its own beyond references to its collaborators: the normalizer
// that turns raw strings into symbols, the declared consequent set, and a
// rand source used for sampling.
type Ingestor struct {
	normalizer  *normalize.Normalizer
	consequents *normalize.ConsequentSet
	maxLen      int // 0 means unbounded
	strict      bool
	rng         *rand.Rand
}

// Option configures an Ingestor at construction time.
type Option func(*Ingestor)

// WithMaxLen bounds the number of antecedent symbols an inserted subset may
// carry (max_antecedents_length in the spec's terms, applied on top of the
// full consequent set). Zero means unbounded.
func WithMaxLen(maxLen int) Option {
	return func(ing *Ingestor) { ing.maxLen = maxLen }
}

// WithStrict rejects (rather than truncates) transactions whose antecedent
// count exceeds maxLen.
func WithStrict(strict bool) Option {
	return func(ing *Ingestor) { ing.strict = strict }
}

// WithRand overrides the Ingestor's random source, letting tests make
// sampling deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(ing *Ingestor) { ing.rng = rng }
}

// New builds an Ingestor over normalizer and the declared consequents.
func New(normalizer *normalize.Normalizer, consequents *normalize.ConsequentSet, opts ...Option) *Ingestor {
	ing := &Ingestor{normalizer: normalizer, consequents: consequents, rng: rand.New(rand.NewSource(1))}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Insert normalizes items, deduplicates them, and inserts their full
// order-preserving powerset into idx.
//
// Non-consequent items are laid out by ascending symbol id — a stable
// surrogate for the frequency-based total order ≺ (spec §4.5 step 3). Using
// symbol id here, rather than the mutable frequency order, guarantees the
// same itemset always resolves to the same trie node no matter how many
// other transactions have been ingested in between; the true ≺ order is
// reserved for derivation-time traversal (see the enumerate package).
//
// Insertion is atomic: on any failure (InvalidItem via the normalizer, or
// MaxLenExceeded in strict mode) idx is left exactly as it was before the
// call — achieved by building the candidate item list and validating it in
// full before any node is touched in idx.
func (ing *Ingestor) Insert(idx *trie.Index, items []string) error {
	return ing.InsertSampled(idx, items, 1)
}

// InsertSampled is Insert with an additional sampling_ratio ∈ (0, 1]: each
// enumerated subset whose prefix was kept is itself kept with probability
// sampling_ratio; a skipped subset is not extended, so the larger subsets
// built on it are skipped with it. A ratio of 1 always keeps every subset
// (the exact, non-sampling path).
func (ing *Ingestor) InsertSampled(idx *trie.Index, items []string, samplingRatio float64) error {
	if samplingRatio <= 0 || samplingRatio > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidSamplingRatio, samplingRatio)
	}

	trieItems, err := ing.prepare(items)
	if err != nil {
		return err
	}

	if samplingRatio == 1 {
		idx.InsertPowerset(trieItems, ing.maxLen)
		return nil
	}
	ing.insertPowersetSampled(idx, trieItems, samplingRatio)
	return nil
}

// prepare normalizes and deduplicates items, splits them into consequents
// and non-consequents, and lays them out in trie order (declared consequent
// order first, then non-consequents by ascending symbol id). It performs no
// trie mutation, so a failure here never touches idx.
func (ing *Ingestor) prepare(items []string) ([]trie.Item, error) {
	seen := make(map[int32]bool, len(items))
	var consequentIDs []int32
	var antecedentIDs []int32

	for _, raw := range items {
		id, err := ing.normalizer.Normalize(raw)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if ing.consequents.Contains(id) {
			consequentIDs = append(consequentIDs, id)
		} else {
			antecedentIDs = append(antecedentIDs, id)
		}
	}

	total := len(consequentIDs) + len(antecedentIDs)
	if ing.strict && ing.maxLenExceeded(len(consequentIDs), len(antecedentIDs)) {
		return nil, fmt.Errorf("%w: %d items, consequents=%d antecedents=%d", ErrMaxLenExceeded, total, len(consequentIDs), len(antecedentIDs))
	}

	// consequents in their declared order, regardless of the order they
	// appeared in the raw transaction.
	declaredOrder := ing.consequents.Ordered()
	ordered := make([]trie.Item, 0, total)
	for _, c := range declaredOrder {
		if seen[c] {
			ordered = append(ordered, trie.Item{Symbol: c, IsConsequent: true})
		}
	}
	sort.Slice(antecedentIDs, func(i, j int) bool { return antecedentIDs[i] < antecedentIDs[j] })
	for _, a := range antecedentIDs {
		ordered = append(ordered, trie.Item{Symbol: a, IsConsequent: false})
	}
	return ordered, nil
}

func (ing *Ingestor) maxLenExceeded(numConsequents, numAntecedents int) bool {
	if ing.maxLen == 0 {
		return false
	}
	return numAntecedents > ing.maxLen && numConsequents+numAntecedents > 0
}

// insertPowersetSampled mirrors trie.Index.InsertPowerset's enumeration but
// flips a biased coin per subset before inserting it, trading exactness for
// the ability to ingest wider transactions at bounded cost (spec §4.5 step
// 6). The root counter (the empty-antecedent, all-consequent transaction
// count) is still incremented unconditionally via NumTransactions.
func (ing *Ingestor) insertPowersetSampled(idx *trie.Index, items []trie.Item, ratio float64) {
	type frame struct {
		node             trie.NodeID
		start            int
		antecedentsCount int
	}
	stack := []frame{{node: trie.Root, start: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := f.start; i < len(items); i++ {
			if ing.rng.Float64() >= ratio {
				continue
			}
			item := items[i]
			childID, _ := idx.GetOrCreateChild(f.node, item.Symbol, item.IsConsequent)
			idx.Node(childID).Occurrences++

			newAntecedentsCount := f.antecedentsCount
			if !item.IsConsequent {
				newAntecedentsCount++
			}
			if ing.maxLen == 0 || newAntecedentsCount < ing.maxLen {
				stack = append(stack, frame{node: childID, start: i + 1, antecedentsCount: newAntecedentsCount})
			}
		}
	}
	idx.NumTransactions++
}
