// Package predict implements the Predictor: given a partial set of
// antecedent items, it scores every declared consequent by how often it
// co-occurred with that set in ingested transactions (spec §4.9).
package predict

import (
	"errors"
	"fmt"
	"sort"

	"github.com/timoklimmer/ambre/internal/normalize"
	"github.com/timoklimmer/ambre/internal/trie"
)

// ErrUnknownAntecedent indicates a query item was never observed by the
// normalizer's symbol table. Predict fails with it unless skipUnknown is set,
// in which case the item is silently dropped from the query.
var ErrUnknownAntecedent = errors.New("predict: antecedent item was never observed")

// Score is one consequent's predicted likelihood given the query antecedents.
type Score struct {
	Consequent int32
	Score      float64
}

// Predictor scores candidate consequents for a partial transaction.
type Predictor struct {
	normalizer  *normalize.Normalizer
	consequents *normalize.ConsequentSet
}

// New builds a Predictor over normalizer and the declared consequents.
func New(normalizer *normalize.Normalizer, consequents *normalize.ConsequentSet) *Predictor {
	return &Predictor{normalizer: normalizer, consequents: consequents}
}

// Predict normalizes items into symbol ids, looks up occurrences(A_query)
// and occurrences(A_query ∪ {k}) for every declared consequent k, and
// returns (k, score) pairs sorted by descending score. Both lookups are
// exact trie lookups (no partial-match fallback): a query that was never
// ingested as a path scores 0 for every consequent.
//
// An item not present in the symbol table fails with ErrUnknownAntecedent
// unless skipUnknown is true, in which case it is dropped from the query
// instead of aborting it.
func (p *Predictor) Predict(idx *trie.Index, items []string, skipUnknown bool) ([]Score, error) {
	antecedentIDs, err := p.resolve(items, skipUnknown)
	if err != nil {
		return nil, err
	}
	sort.Slice(antecedentIDs, func(i, j int) bool { return antecedentIDs[i] < antecedentIDs[j] })

	var occBase uint64
	if len(antecedentIDs) == 0 {
		occBase = idx.NumTransactions
	} else if id, ok := idx.Find(antecedentIDs); ok {
		occBase = idx.Node(id).Occurrences
	}

	declared := p.consequents.Ordered()
	scores := make([]Score, 0, len(declared))
	for _, k := range declared {
		var occWithK uint64
		if occBase > 0 {
			path := make([]int32, 0, len(antecedentIDs)+1)
			path = append(path, k)
			path = append(path, antecedentIDs...)
			if id, ok := idx.Find(path); ok {
				occWithK = idx.Node(id).Occurrences
			}
		}
		var score float64
		if occBase > 0 {
			score = float64(occWithK) / float64(occBase)
		}
		scores = append(scores, Score{Consequent: k, Score: score})
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores, nil
}

func (p *Predictor) resolve(items []string, skipUnknown bool) ([]int32, error) {
	seen := make(map[int32]bool, len(items))
	ids := make([]int32, 0, len(items))
	for _, raw := range items {
		id, found, err := p.normalizer.Lookup(raw)
		if err != nil {
			return nil, err
		}
		if !found {
			if skipUnknown {
				continue
			}
			return nil, fmt.Errorf("%w: %q", ErrUnknownAntecedent, raw)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
