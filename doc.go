// Package ambre is an in-memory association-rule mining engine: ingest
// categorical transactions, derive frequent itemsets and association rules,
// predict consequents for a partial transaction, merge independently-built
// indexes, and persist the whole thing to a single opaque blob.
//
// What is ambre?
//
//	A thread-safe, mostly-Go-native library built around one data structure:
//	a prefix trie over the powerset of every ingested transaction.
//		• Ingestion: Insert/InsertRow turn raw items into trie paths
//		• Frequent itemsets: DeriveFrequentItemsets walks the trie under filters
//		• Association rules: DeriveRules adds support/confidence/lift, minimality
//		  and common-sense suppression
//		• Prediction: Predict scores declared consequents for a partial transaction
//		• Merge: Merge unions two or more Databases without re-ingesting
//		• Persistence: Save/Load round-trip a Database through a versioned blob
//
// Why ambre?
//
//   - One declared consequent set, fixed at construction — every rule this
//     Database will ever derive points at one of those symbols
//   - R/W locks around every operation — safe to Predict while Insert runs
//     on another goroutine, just never both mutating at once
//   - Optional instrumentation — InstrumentationHooks and Metrics are nil by
//     default; embedding this package never forces a logger or a Prometheus
//     registry on the caller
//
// Under the hood:
//
//	internal/alphabet/  — optional character-alphabet compression codec
//	internal/normalize/ — item canonicalization, interning, and ordering
//	internal/trie/      — the arena-backed prefix trie itself
//	ingest/             — turns transactions into trie insertions
//	enumerate/          — filtered walks over the trie
//	rules/              — itemsets to association rules, minimality/common-sense
//	merge/              — unions independently-built tries
//	predict/            — consequent scoring for partial transactions
//	persist/            — versioned save/load
//	tabular/            — (column, value) row adapter over ingest
//
// Quick example:
//
//	db, _ := ambre.New([]string{"bought_umbrella"})
//	_ = db.Insert([]string{"rained", "bought_umbrella"})
//	rules, _ := db.DeriveRules(context.Background(), rules.Options{MinConfidence: 0.5})
package ambre
