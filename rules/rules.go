// Package rules implements the Rule Deriver: it turns enumerated itemsets
// into association rules, computes their support/confidence/lift, and
// applies the minimality and common-sense suppression filters.
package rules

import (
	"context"
	"sort"

	"github.com/timoklimmer/ambre/enumerate"
	"github.com/timoklimmer/ambre/internal/normalize"
	"github.com/timoklimmer/ambre/internal/trie"
)

// Rule is one emitted association rule antecedents ⇒ consequents, with its
// supporting statistics.
type Rule struct {
	Antecedents            []int32
	Consequents            []int32
	OccurrencesRule        uint64
	OccurrencesAntecedents uint64
	OccurrencesConsequents uint64
	Support                float64
	Confidence             float64
	Lift                   float64
}

// RuleLength returns |A| + |K|, matching the spec's "rule_length" field.
func (r Rule) RuleLength() int { return len(r.Antecedents) + len(r.Consequents) }

// CommonSenseRule is a pre-declared (antecedents, consequents) pair used to
// suppress derived rules it already "explains".
type CommonSenseRule struct {
	Antecedents []int32
	Consequents []int32
}

// Options configures rule derivation (spec §4.7).
type Options struct {
	// NonAntecedentRules, if true, also emits rules with an empty
	// antecedent set (raw consequent frequencies).
	NonAntecedentRules bool

	MinOccurrences       uint64
	MinConfidence        float64
	MinLift              float64
	MinSupport           float64
	MaxOccurrences       uint64
	MaxSupport           float64
	MaxAntecedentsLength int32
	FilterToConsequents  []int32

	// ShowGeneralizations disables the minimality filter when true.
	ShowGeneralizations bool

	// ConfidenceTolerance widens the minimality filter: a more specific rule
	// is still treated as redundant against a kept generalization whose
	// confidence is within this tolerance, not just strictly ≥. Guards
	// against near-tied confidences (e.g. 0.801 vs 0.80) surviving as
	// spurious, noise-driven "more specific" rules. Zero reproduces the
	// strict ≥ comparison.
	ConfidenceTolerance float64

	// Order, if non-nil, drives the underlying enumeration's child-view
	// ordering by ≺ instead of the trie's stable surrogate order. It has
	// no effect on which rules are derived, only the order candidates are
	// built and emitted in.
	Order *normalize.Ordering
}

// Derive enumerates idx under opts, computes each candidate rule's
// statistics, applies the minimality filter (unless ShowGeneralizations)
// and the common-sense filter, and returns the surviving rules in no
// particular order (the spec leaves output ordering unspecified).
func Derive(ctx context.Context, idx *trie.Index, commonSense []CommonSenseRule, opts Options) ([]Rule, error) {
	filters := enumerate.Filters{
		MinOccurrences:       opts.MinOccurrences,
		MaxOccurrences:       opts.MaxOccurrences,
		MinSupport:           opts.MinSupport,
		MaxSupport:           opts.MaxSupport,
		MaxAntecedentsLength: opts.MaxAntecedentsLength,
		FilterToConsequents:  opts.FilterToConsequents,
		Order:                opts.Order,
	}
	if !opts.NonAntecedentRules {
		filters.MinLength = 1
	}

	itemsets, err := enumerate.Collect(ctx, idx, filters)
	if err != nil {
		return nil, err
	}

	candidates := make([]Rule, 0, len(itemsets))
	for _, item := range itemsets {
		if len(item.Antecedents) == 0 && !opts.NonAntecedentRules {
			continue
		}
		rule := buildRule(idx, item)
		if rule.Confidence < opts.MinConfidence {
			continue
		}
		if opts.MinLift > 0 && rule.Lift < opts.MinLift {
			continue
		}
		if opts.MinSupport > 0 && rule.Support < opts.MinSupport {
			continue
		}
		candidates = append(candidates, rule)
	}

	if !opts.ShowGeneralizations {
		candidates = suppressGeneralizations(candidates, opts.ConfidenceTolerance)
	}
	candidates = suppressCommonSense(candidates, commonSense)
	return candidates, nil
}

// buildRule computes a Rule's statistics from an enumerated itemset,
// looking up the antecedent-only and consequent-only nodes directly in idx
// (spec §4.7).
func buildRule(idx *trie.Index, item enumerate.Itemset) Rule {
	occRule := item.Occurrences

	var occAnt uint64
	if len(item.Antecedents) > 0 {
		if id, ok := idx.Find(item.Antecedents); ok {
			occAnt = idx.Node(id).Occurrences
		}
	} else {
		occAnt = idx.NumTransactions
	}

	var occCons uint64
	if len(item.Consequents) > 0 {
		if id, ok := idx.Find(item.Consequents); ok {
			occCons = idx.Node(id).Occurrences
		}
	} else {
		occCons = idx.NumTransactions
	}

	var confidence float64
	if occAnt > 0 {
		confidence = float64(occRule) / float64(occAnt)
	}

	support := item.Support
	supportAnt := divOrZero(occAnt, idx.NumTransactions)
	supportCons := divOrZero(occCons, idx.NumTransactions)

	var lift float64
	if supportAnt > 0 && supportCons > 0 {
		lift = support / (supportAnt * supportCons)
	}

	return Rule{
		Antecedents:            item.Antecedents,
		Consequents:            item.Consequents,
		OccurrencesRule:        occRule,
		OccurrencesAntecedents: occAnt,
		OccurrencesConsequents: occCons,
		Support:                support,
		Confidence:             confidence,
		Lift:                   lift,
	}
}

func divOrZero(num, den uint64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// suppressGeneralizations drops any rule A ⇒ K for which another surviving
// rule A' ⇒ K exists with A' ⊊ A and confidence(A' ⇒ K) ≥ confidence(A ⇒ K).
//
// Candidates are grouped by consequent set K and walked in ascending |A|
// order, maintaining the minimal A's already kept for that K — the
// practical O(R log R + R·k) alternative to the naive O(R²) pairwise
// comparison the spec's design notes call out.
func suppressGeneralizations(candidates []Rule, confidenceTolerance float64) []Rule {
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].Antecedents) < len(candidates[j].Antecedents)
	})

	type kept struct {
		antecedents map[int32]bool
		confidence  float64
	}
	byConsequentKey := make(map[string][]kept)

	result := make([]Rule, 0, len(candidates))
	for _, rule := range candidates {
		key := symbolSetKey(rule.Consequents)
		antecedentSet := toSet(rule.Antecedents)

		redundant := false
		for _, k := range byConsequentKey[key] {
			if isSubset(k.antecedents, antecedentSet) && len(k.antecedents) < len(antecedentSet) && k.confidence+confidenceTolerance >= rule.Confidence {
				redundant = true
				break
			}
		}
		if redundant {
			continue
		}
		byConsequentKey[key] = append(byConsequentKey[key], kept{antecedents: antecedentSet, confidence: rule.Confidence})
		result = append(result, rule)
	}
	return result
}

// suppressCommonSense drops any rule A ⇒ K for which a common-sense entry
// (A_cs, K_cs) exists with A_cs ⊆ A and K_cs ⊆ K.
func suppressCommonSense(candidates []Rule, commonSense []CommonSenseRule) []Rule {
	if len(commonSense) == 0 {
		return candidates
	}
	result := make([]Rule, 0, len(candidates))
	for _, rule := range candidates {
		antecedentSet := toSet(rule.Antecedents)
		consequentSet := toSet(rule.Consequents)

		suppressed := false
		for _, cs := range commonSense {
			if isSubset(toSet(cs.Antecedents), antecedentSet) && isSubset(toSet(cs.Consequents), consequentSet) {
				suppressed = true
				break
			}
		}
		if !suppressed {
			result = append(result, rule)
		}
	}
	return result
}

func toSet(ids []int32) map[int32]bool {
	set := make(map[int32]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func isSubset(small, big map[int32]bool) bool {
	for id := range small {
		if !big[id] {
			return false
		}
	}
	return true
}

func symbolSetKey(ids []int32) string {
	sorted := append([]int32(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	key := make([]byte, 0, len(sorted)*5)
	for _, id := range sorted {
		key = appendVarint(key, id)
	}
	return string(key)
}

func appendVarint(buf []byte, v int32) []byte {
	u := uint32(v)
	for u >= 0x80 {
		buf = append(buf, byte(u)|0x80)
		u >>= 7
	}
	return append(buf, byte(u))
}
