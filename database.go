// Package ambre implements an in-memory association-rule mining engine: a
// prefix trie over the powerset of every ingested transaction, from which
// frequent itemsets, association rules, and consequent predictions can be
// derived without ever touching disk.
//
// Database is the facade tying together the Normalizer, Trie Store,
// Ingestor, Itemset Enumerator, Rule Deriver, Merger, Predictor, and
// Serializer. Every other package in this module is a focused collaborator;
// Database is the only exported entry point most callers need.
package ambre

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timoklimmer/ambre/enumerate"
	"github.com/timoklimmer/ambre/ingest"
	"github.com/timoklimmer/ambre/internal/alphabet"
	"github.com/timoklimmer/ambre/internal/normalize"
	"github.com/timoklimmer/ambre/internal/trie"
	"github.com/timoklimmer/ambre/merge"
	"github.com/timoklimmer/ambre/persist"
	"github.com/timoklimmer/ambre/predict"
	"github.com/timoklimmer/ambre/rules"
	"github.com/timoklimmer/ambre/tabular"
)

// InstrumentationHooks lets a caller observe ingestion and derivation
// without Database ever calling a logger itself, mirroring
// algorithms.BFS/dfs.DFS's OnVisit/OnEnqueue/OnExit convention. Every field
// is optional; a nil field is simply never called. InstanceID rides along
// on every callback so a caller running several Databases can tell them
// apart in logs or metrics.
type InstrumentationHooks struct {
	// OnTransactionIngested fires once per successful Insert/InsertSampled
	// call (not once per enumerated subset), after the transaction has been
	// inserted into the trie. InsertRow, InsertRows and InsertRowsSampled do
	// not fire it.
	OnTransactionIngested func(instanceID uuid.UUID, items []string)

	// OnNodeCreated fires at most once per successful Insert/InsertSampled
	// call: once if that call allocated at least one new trie node. Its
	// antecedents and consequents arguments are always nil; the new
	// itemsets are not reported individually.
	OnNodeCreated func(instanceID uuid.UUID, antecedents, consequents []string)

	// OnRuleEmitted fires once per rule surviving DeriveRules' minimality
	// and common-sense filters.
	OnRuleEmitted func(instanceID uuid.UUID, rule rules.Rule)

	// OnPhaseElapsed reports the wall-clock duration of one named phase of
	// an Insert or Derive* call ("ingest", "enumerate", "derive"),
	// generalizing the original implementation's codetimer.py into the
	// hook convention this module uses everywhere else.
	OnPhaseElapsed func(instanceID uuid.UUID, phase string, d time.Duration)
}

// Database is an in-memory association-rule mining index. The zero value is
// not usable; construct one with New. A Database is safe for concurrent use:
// reads (Predict, DeriveFrequentItemsets, DeriveRules, Save) take a read
// lock, and writes (Insert*, ClearCommonSenseRules) take a write lock.
type Database struct {
	// InstanceID identifies this Database across its lifetime, including
	// through Save/Load/Merge, for audit trails and to disambiguate
	// instrumentation callbacks from multiple concurrently-running indexes.
	InstanceID uuid.UUID

	mu sync.RWMutex

	cfg    config
	codec  *alphabet.Codec
	table  *normalize.Table
	normal *normalize.Normalizer
	cons   *normalize.ConsequentSet

	idx *trie.Index

	ingestor *ingest.Ingestor
	tabAdp   *tabular.Adapter
	pred     *predict.Predictor

	commonSense []rules.CommonSenseRule
}

// New builds an empty Database over the declared consequents, applying
// opts (spec §3: a Database is defined by its declared consequent set C,
// fixed at construction). consequents must be non-empty, with no empty or
// duplicate entries — a construction-time ConfigError rather than the
// original's disable_string_consequent_warning footgun.
func New(consequents []string, opts ...Option) (*Database, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	if len(consequents) == 0 {
		return nil, fmt.Errorf("%w: at least one consequent must be declared", ErrConfigError)
	}

	codec, err := alphabet.New(cfg.Alphabet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigError, err)
	}

	table := normalize.NewTable()
	normal := normalize.New(normalize.Config{
		CaseInsensitive:     cfg.CaseInsensitive,
		NormalizeWhitespace: cfg.NormalizeWhitespace,
		ReservedSeparator:   cfg.ColumnValueSeparator,
	}, codec, table)

	consequentIDs := make([]int32, 0, len(consequents))
	seen := make(map[int32]bool, len(consequents))
	for _, raw := range consequents {
		id, err := normal.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: consequent %q: %v", ErrConfigError, raw, err)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate consequent %q", ErrConfigError, raw)
		}
		seen[id] = true
		consequentIDs = append(consequentIDs, id)
	}
	cons := normalize.NewConsequentSet(consequentIDs)

	ingestor := ingest.New(normal, cons, ingest.WithMaxLen(cfg.MaxLen), ingest.WithStrict(cfg.Strict))
	tabAdp := tabular.New(ingestor, cfg.ColumnValueSeparator, tabular.WithOmitColumnNames(cfg.OmitColumnNames))
	pred := predict.New(normal, cons)

	return &Database{
		InstanceID: uuid.New(),
		cfg:        cfg,
		codec:      codec,
		table:      table,
		normal:     normal,
		cons:       cons,
		idx:        trie.New(),
		ingestor:   ingestor,
		tabAdp:     tabAdp,
		pred:       pred,
	}, nil
}

func (db *Database) hooks() *InstrumentationHooks { return db.cfg.hooks }

func (db *Database) timePhase(phase string, fn func()) {
	start := time.Now()
	fn()
	elapsed := time.Since(start)
	if phase == "enumerate" || phase == "derive" {
		db.metrics().observeDerivation(elapsed.Seconds())
	}
	if h := db.hooks(); h != nil && h.OnPhaseElapsed != nil {
		h.OnPhaseElapsed(db.InstanceID, phase, elapsed)
	}
}

// Insert normalizes items, deduplicates them, and inserts their full
// order-preserving powerset into the trie (spec §4.5). Insertion is atomic:
// on any error the Database is left exactly as it was before the call.
func (db *Database) Insert(items []string) error {
	return db.InsertSampled(items, 1)
}

// InsertSampled is Insert with a sampling_ratio ∈ (0, 1]: each enumerated
// subset whose prefix was kept is itself kept with that probability, and a
// skipped subset is not extended further (spec §4.5 step 6).
func (db *Database) InsertSampled(items []string, samplingRatio float64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	var err error
	before := db.idx.NumNodes()
	db.timePhase("ingest", func() {
		err = db.ingestor.InsertSampled(db.idx, items, samplingRatio)
	})
	if err != nil {
		return db.wrapIngestErr(err)
	}
	db.metrics().setTrieNodes(db.idx.NumNodes())
	db.metrics().observeTransaction()
	if h := db.hooks(); h != nil {
		if h.OnTransactionIngested != nil {
			h.OnTransactionIngested(db.InstanceID, items)
		}
		if h.OnNodeCreated != nil && db.idx.NumNodes() > before {
			h.OnNodeCreated(db.InstanceID, nil, nil)
		}
	}
	return nil
}

// InsertTransactions inserts every transaction in txns, stopping at the
// first error; the Database may hold a prefix of txns already inserted
// when this returns an error (each individual Insert is atomic, the batch
// is not).
func (db *Database) InsertTransactions(txns [][]string) error {
	for _, items := range txns {
		if err := db.Insert(items); err != nil {
			return err
		}
	}
	return nil
}

// InsertRow builds one transaction from row, restricted to inputColumns,
// and inserts it via the tabular adapter (spec §6).
func (db *Database) InsertRow(row tabular.Row, inputColumns []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.tabAdp.InsertRow(db.idx, row, inputColumns); err != nil {
		return db.wrapIngestErr(err)
	}
	db.metrics().setTrieNodes(db.idx.NumNodes())
	db.metrics().observeTransaction()
	return nil
}

// InsertRows inserts every row in rows as its own transaction, stopping at
// the first error.
func (db *Database) InsertRows(rows []tabular.Row, inputColumns []string) error {
	for _, row := range rows {
		if err := db.InsertRow(row, inputColumns); err != nil {
			return err
		}
	}
	return nil
}

// InsertRowsSampled is InsertRows with a sampling_ratio passed through to
// the underlying ingestor.
func (db *Database) InsertRowsSampled(rows []tabular.Row, inputColumns []string, samplingRatio float64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.tabAdp.InsertRowsSampled(db.idx, rows, inputColumns, samplingRatio); err != nil {
		return db.wrapIngestErr(err)
	}
	db.metrics().setTrieNodes(db.idx.NumNodes())
	return nil
}

func (db *Database) wrapIngestErr(err error) error {
	switch {
	case errors.Is(err, ingest.ErrMaxLenExceeded):
		return fmt.Errorf("%w: %v", ErrMaxLenExceeded, err)
	case errors.Is(err, ingest.ErrInvalidSamplingRatio):
		return fmt.Errorf("%w: %v", ErrConfigError, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
}

// CommonSenseEntry is one pre-declared (antecedents, consequents) pair
// passed to InsertCommonSenseRules.
type CommonSenseEntry struct {
	Antecedents []string
	Consequents []string
}

// InsertCommonSenseRule declares a (antecedents, consequents) pair used to
// suppress derived rules it already "explains" (spec §4.7 common-sense
// suppression; get_common_sense_rules/clear_common_sense_rules supplement).
func (db *Database) InsertCommonSenseRule(antecedents, consequents []string) error {
	return db.InsertCommonSenseRules([]CommonSenseEntry{{Antecedents: antecedents, Consequents: consequents}})
}

// InsertCommonSenseRules declares several common-sense rules at once.
func (db *Database) InsertCommonSenseRules(entries []CommonSenseEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	parsed := make([]rules.CommonSenseRule, 0, len(entries))
	for _, e := range entries {
		antecedentIDs, err := db.lookupOrIntern(e.Antecedents)
		if err != nil {
			return err
		}
		consequentIDs, err := db.lookupOrIntern(e.Consequents)
		if err != nil {
			return err
		}
		parsed = append(parsed, rules.CommonSenseRule{Antecedents: antecedentIDs, Consequents: consequentIDs})
	}
	db.commonSense = append(db.commonSense, parsed...)
	return nil
}

func (db *Database) lookupOrIntern(items []string) ([]int32, error) {
	ids := make([]int32, 0, len(items))
	for _, raw := range items {
		id, err := db.normal.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidItem, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CommonSenseRules returns a copy of every declared common-sense rule, with
// items as interned symbol ids (not resolved back to display strings).
func (db *Database) CommonSenseRules() []rules.CommonSenseRule {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]rules.CommonSenseRule, len(db.commonSense))
	copy(out, db.commonSense)
	return out
}

// ClearCommonSenseRules discards every declared common-sense rule.
func (db *Database) ClearCommonSenseRules() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.commonSense = nil
}

// computeOrdering builds the total order ≺ (spec §4.3) fresh from this
// Database's current depth-1 occurrence counts and declared consequents. ≺
// is never cached: it is recomputed on every DeriveFrequentItemsets and
// DeriveRules call, per spec §9's guidance, since ingestion between calls
// can change which non-consequent items are most frequent.
func (db *Database) computeOrdering() *normalize.Ordering {
	depth1 := make(map[int32]uint64, len(db.idx.Children(trie.Root)))
	for _, id := range db.idx.Children(trie.Root) {
		node := db.idx.Node(id)
		depth1[node.Symbol] = node.Occurrences
	}
	return normalize.ComputeOrdering(db.cons, depth1, db.table)
}

// DeriveFrequentItemsets enumerates the trie under filters and returns every
// matching itemset (spec §4.6). A cancelled ctx returns ErrCancelled and
// leaves the Database unchanged.
func (db *Database) DeriveFrequentItemsets(ctx context.Context, filters enumerate.Filters) ([]enumerate.Itemset, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	filters.Order = db.computeOrdering()

	var out []enumerate.Itemset
	var err error
	db.timePhase("enumerate", func() {
		out, err = enumerate.Collect(ctx, db.idx, filters)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return out, nil
}

// DeriveRules derives association rules under opts (spec §4.7). A cancelled
// ctx returns ErrCancelled and leaves the Database unchanged.
func (db *Database) DeriveRules(ctx context.Context, opts rules.Options) ([]rules.Rule, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	opts.Order = db.computeOrdering()

	var out []rules.Rule
	var err error
	db.timePhase("derive", func() {
		out, err = rules.Derive(ctx, db.idx, db.commonSense, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	if h := db.hooks(); h != nil && h.OnRuleEmitted != nil {
		for _, r := range out {
			h.OnRuleEmitted(db.InstanceID, r)
		}
	}
	return out, nil
}

// PredictedScore is one consequent's predicted likelihood, resolved back to
// its display string.
type PredictedScore struct {
	Consequent string
	Score      float64
}

// Predict scores every declared consequent given a partial set of
// antecedent items (spec §4.9). An item never observed by this Database
// fails with ErrUnknownAntecedent unless skipUnknown is true.
func (db *Database) Predict(items []string, skipUnknown bool) ([]PredictedScore, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	scores, err := db.pred.Predict(db.idx, items, skipUnknown)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownAntecedent, err)
	}
	out := make([]PredictedScore, len(scores))
	for i, s := range scores {
		display, decodeErr := db.normal.Decode(s.Consequent)
		if decodeErr != nil {
			return nil, decodeErr
		}
		out[i] = PredictedScore{Consequent: display, Score: s.Score}
	}
	return out, nil
}

// Save writes a snapshot of this Database's trie, symbol table, declared
// consequents, configuration, common-sense rules, and InstanceID to w
// (spec §4.10).
func (db *Database) Save(w io.Writer) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return persist.Save(w, persist.Snapshot{
		InstanceID: db.InstanceID,
		Config: persist.Config{
			CaseInsensitive:     db.cfg.CaseInsensitive,
			NormalizeWhitespace: db.cfg.NormalizeWhitespace,
			ReservedSeparator:   db.cfg.ColumnValueSeparator,
			Alphabet:            db.cfg.Alphabet,
			MaxLen:              db.cfg.MaxLen,
			Strict:              db.cfg.Strict,
		},
		Symbols:     db.table.All(),
		Consequents: db.cons.Ordered(),
		CommonSense: db.commonSense,
		Trie:        db.idx,
	})
}

// Load reconstructs a Database from a blob written by Save. opts may adjust
// presentation-only settings (separators, omit_column_names); configuration
// that shapes symbol identity (case folding, whitespace normalization,
// alphabet, max_len, strict) is always taken from the snapshot; an Option
// that sets any of these is silently overridden, not rejected.
func Load(r io.Reader, opts ...Option) (*Database, error) {
	snap, err := persist.Load(r)
	if err != nil {
		return nil, err
	}

	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	cfg.CaseInsensitive = snap.Config.CaseInsensitive
	cfg.NormalizeWhitespace = snap.Config.NormalizeWhitespace
	cfg.Alphabet = snap.Config.Alphabet
	cfg.MaxLen = snap.Config.MaxLen
	cfg.Strict = snap.Config.Strict

	codec, err := alphabet.New(cfg.Alphabet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigError, err)
	}

	table := persist.SymbolTable(snap)
	normal := normalize.New(normalize.Config{
		CaseInsensitive:     cfg.CaseInsensitive,
		NormalizeWhitespace: cfg.NormalizeWhitespace,
		ReservedSeparator:   cfg.ColumnValueSeparator,
	}, codec, table)
	cons := normalize.NewConsequentSet(snap.Consequents)

	ingestor := ingest.New(normal, cons, ingest.WithMaxLen(cfg.MaxLen), ingest.WithStrict(cfg.Strict))
	tabAdp := tabular.New(ingestor, cfg.ColumnValueSeparator, tabular.WithOmitColumnNames(cfg.OmitColumnNames))
	pred := predict.New(normal, cons)

	return &Database{
		InstanceID:  snap.InstanceID,
		cfg:         cfg,
		codec:       codec,
		table:       table,
		normal:      normal,
		cons:        cons,
		idx:         snap.Trie,
		ingestor:    ingestor,
		tabAdp:      tabAdp,
		pred:        pred,
		commonSense: snap.CommonSense,
	}, nil
}

// Clone returns a deep copy of db: an independent trie and symbol table
// that share no mutable state with the original, grounded on
// core.Graph.Clone/CloneEmpty's deep-copy-under-a-read-lock convention
// (database.py's Database.copy supplement).
func (db *Database) Clone() *Database {
	db.mu.RLock()
	defer db.mu.RUnlock()

	table := db.table.Clone()
	idx := db.idx.Clone()
	cons := normalize.NewConsequentSet(append([]int32(nil), db.cons.Ordered()...))
	normal := normalize.New(normalize.Config{
		CaseInsensitive:     db.cfg.CaseInsensitive,
		NormalizeWhitespace: db.cfg.NormalizeWhitespace,
		ReservedSeparator:   db.cfg.ColumnValueSeparator,
	}, db.codec, table)

	ingestor := ingest.New(normal, cons, ingest.WithMaxLen(db.cfg.MaxLen), ingest.WithStrict(db.cfg.Strict))
	tabAdp := tabular.New(ingestor, db.cfg.ColumnValueSeparator, tabular.WithOmitColumnNames(db.cfg.OmitColumnNames))
	pred := predict.New(normal, cons)

	return &Database{
		InstanceID:  uuid.New(),
		cfg:         db.cfg,
		codec:       db.codec,
		table:       table,
		normal:      normal,
		cons:        cons,
		idx:         idx,
		ingestor:    ingestor,
		tabAdp:      tabAdp,
		pred:        pred,
		commonSense: append([]rules.CommonSenseRule(nil), db.commonSense...),
	}
}

// Merge unions two or more Databases into a fresh one, per the original
// implementation's merge_databases: inputs are sorted by ascending trie size
// and folded pairwise (merge.MergeAll), and the result's symbol ids are
// freshly assigned. Every
// input must share the same case-folding/alphabet/max_len configuration and
// the same declared consequent strings, or Merge fails with
// ErrIncompatibleMerge.
func Merge(databases ...*Database) (*Database, error) {
	if len(databases) == 0 {
		return nil, fmt.Errorf("%w: no databases given", ErrIncompatibleMerge)
	}

	for _, db := range databases {
		db.mu.RLock()
		defer db.mu.RUnlock()
	}

	inputs := make([]merge.Input, len(databases))
	for i, db := range databases {
		inputs[i] = merge.Input{
			Config: merge.Config{
				CaseInsensitive: db.cfg.CaseInsensitive,
				Alphabet:        db.cfg.Alphabet,
				MaxLen:          db.cfg.MaxLen,
			},
			Table:       db.table,
			Consequents: db.cons,
			Trie:        db.idx,
			CommonSense: db.commonSense,
		}
	}

	result, err := merge.MergeAll(inputs...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleMerge, err)
	}

	first := databases[0]
	normal := normalize.New(normalize.Config{
		CaseInsensitive:     first.cfg.CaseInsensitive,
		NormalizeWhitespace: first.cfg.NormalizeWhitespace,
		ReservedSeparator:   first.cfg.ColumnValueSeparator,
	}, first.codec, result.Table)

	ingestor := ingest.New(normal, result.Consequents, ingest.WithMaxLen(first.cfg.MaxLen), ingest.WithStrict(first.cfg.Strict))
	tabAdp := tabular.New(ingestor, first.cfg.ColumnValueSeparator, tabular.WithOmitColumnNames(first.cfg.OmitColumnNames))
	pred := predict.New(normal, result.Consequents)

	return &Database{
		InstanceID:  uuid.New(),
		cfg:         first.cfg,
		codec:       first.codec,
		table:       result.Table,
		normal:      normal,
		cons:        result.Consequents,
		idx:         result.Trie,
		ingestor:    ingestor,
		tabAdp:      tabAdp,
		pred:        pred,
		commonSense: result.CommonSense,
	}, nil
}

// Render joins items with the configured item separator
// (item_separator_for_string_outputs), the way database.py's
// derive_rules_pandas/derive_frequent_itemsets_pandas join columns before
// display.
func (db *Database) Render(items []string) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return joinItems(items, db.cfg.ItemSeparator)
}

func joinItems(items []string, sep string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	out := ""
	for i, s := range sorted {
		if i > 0 {
			out += sep
		}
		out += s
	}
	return out
}

func (db *Database) metrics() *Metrics { return db.cfg.metrics }
