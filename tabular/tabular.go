// Package tabular adapts tabular (column, value) input into the item
// transactions the core ingestion pipeline expects: each row becomes one
// transaction, each selected column becomes one item, formatted as
// "column<sep>value" unless column names are omitted entirely (spec §6,
// insert_from_tabular_rows).
package tabular

import (
	"fmt"

	"github.com/timoklimmer/ambre/ingest"
	"github.com/timoklimmer/ambre/internal/trie"
)

// Row is one row of tabular input: column name to value.
type Row map[string]string

// Adapter converts rows into items and inserts them via an Ingestor.
type Adapter struct {
	ingestor        *ingest.Ingestor
	separator       string
	omitColumnNames bool
}

// Option configures an Adapter at construction time.
type Option func(*Adapter)

// WithOmitColumnNames builds items as the bare value, dropping the
// "column<sep>" prefix entirely — useful when every column shares one value
// domain and the column identity carries no information.
func WithOmitColumnNames(omit bool) Option {
	return func(a *Adapter) { a.omitColumnNames = omit }
}

// New builds an Adapter over ingestor, using separator to join column and
// value. separator must be declared as the normalizer's reserved separator
// (spec §6: "the core requires only that items so formed do not collide
// with item_alphabet and that <sep> is declared") so a malformed value can
// never be mistaken for a column boundary.
func New(ingestor *ingest.Ingestor, separator string, opts ...Option) *Adapter {
	a := &Adapter{ingestor: ingestor, separator: separator}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// InsertRow builds one transaction from row, restricted to inputColumns (in
// the given order; columns absent from row are skipped), and inserts it.
func (a *Adapter) InsertRow(idx *trie.Index, row Row, inputColumns []string) error {
	return a.ingestor.Insert(idx, a.items(row, inputColumns))
}

// InsertRows inserts every row in rows as its own transaction, stopping at
// the first error.
func (a *Adapter) InsertRows(idx *trie.Index, rows []Row, inputColumns []string) error {
	for _, row := range rows {
		if err := a.InsertRow(idx, row, inputColumns); err != nil {
			return err
		}
	}
	return nil
}

// InsertRowsSampled is InsertRows with a sampling_ratio passed through to
// the underlying Ingestor (spec §4.5 step 6).
func (a *Adapter) InsertRowsSampled(idx *trie.Index, rows []Row, inputColumns []string, samplingRatio float64) error {
	for _, row := range rows {
		if err := a.ingestor.InsertSampled(idx, a.items(row, inputColumns), samplingRatio); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) items(row Row, inputColumns []string) []string {
	items := make([]string, 0, len(inputColumns))
	for _, col := range inputColumns {
		value, ok := row[col]
		if !ok {
			continue
		}
		if a.omitColumnNames {
			items = append(items, value)
		} else {
			items = append(items, fmt.Sprintf("%s%s%s", col, a.separator, value))
		}
	}
	return items
}
