package ambre

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ambreValidate is the shared validator instance for config, grounded on
// jinterlante1206-AleutianLocal's chatValidate convention (a single
// package-level *validator.Validate, initialized once).
var ambreValidate = validator.New()

// config holds every construction-time setting a Database carries. Exported
// fields let validator.Struct reach them by reflection; the type itself
// stays unexported since callers only ever touch it through Option.
type config struct {
	CaseInsensitive     bool
	NormalizeWhitespace bool
	Alphabet            string
	MaxLen              int `validate:"gte=0"`
	Strict              bool

	// ItemSeparator joins items when rendering a rule or itemset as a
	// string (original's item_separator_for_string_outputs).
	ItemSeparator string `validate:"required"`

	// ColumnValueSeparator joins "column<sep>value" in tabular items, and
	// doubles as the Normalizer's reserved separator so a malformed value
	// can never be mistaken for a column boundary.
	ColumnValueSeparator string `validate:"required"`

	// OmitColumnNames drops the "column<sep>" prefix from tabular items
	// entirely, keeping only the bare value.
	OmitColumnNames bool

	hooks   *InstrumentationHooks
	metrics *Metrics
}

// defaultConfig returns the configuration New starts from before applying
// any Option.
func defaultConfig() config {
	return config{
		ItemSeparator:        ", ",
		ColumnValueSeparator: "=",
	}
}

// Option configures a Database at construction time. Unlike the teacher's
// BuilderOption, which panics on a nil/invalid argument, Option returns an
// error: invalid configuration must surface as ErrConfigError to the caller
// of New, not crash it (spec §7). This is the one place this module's
// functional options deliberately diverge from builder/options.go's
// panic-on-nil convention.
type Option func(*config) error

// WithCaseInsensitive folds item case via Unicode simple case folding.
func WithCaseInsensitive(enabled bool) Option {
	return func(c *config) error {
		c.CaseInsensitive = enabled
		return nil
	}
}

// WithNormalizeWhitespace trims and collapses runs of whitespace in items.
func WithNormalizeWhitespace(enabled bool) Option {
	return func(c *config) error {
		c.NormalizeWhitespace = enabled
		return nil
	}
}

// WithAlphabet declares the item alphabet Σ used to compress interned
// symbols (spec §4.2). An empty alphabet (the default) disables compression.
func WithAlphabet(alphabet string) Option {
	return func(c *config) error {
		c.Alphabet = alphabet
		return nil
	}
}

// WithMaxLen bounds the number of antecedent symbols a transaction may
// contribute (max_antecedents_length). Zero means unbounded.
func WithMaxLen(maxLen int) Option {
	return func(c *config) error {
		if maxLen < 0 {
			return fmt.Errorf("%w: max_len must be >= 0, got %d", ErrConfigError, maxLen)
		}
		c.MaxLen = maxLen
		return nil
	}
}

// WithStrict rejects (rather than truncates) transactions whose antecedent
// count would exceed MaxLen.
func WithStrict(strict bool) Option {
	return func(c *config) error {
		c.Strict = strict
		return nil
	}
}

// WithItemSeparator sets the separator used to join items when rendering a
// rule or itemset as a string (original's item_separator_for_string_outputs).
func WithItemSeparator(sep string) Option {
	return func(c *config) error {
		if sep == "" {
			return fmt.Errorf("%w: item separator must not be empty", ErrConfigError)
		}
		c.ItemSeparator = sep
		return nil
	}
}

// WithColumnValueSeparator sets the separator tabular.Adapter uses to join
// "column<sep>value" items, and the Normalizer's reserved separator.
func WithColumnValueSeparator(sep string) Option {
	return func(c *config) error {
		if sep == "" {
			return fmt.Errorf("%w: column/value separator must not be empty", ErrConfigError)
		}
		c.ColumnValueSeparator = sep
		return nil
	}
}

// WithOmitColumnNames drops the "column<sep>" prefix from tabular items,
// keeping only the bare value — useful when every column shares one value
// domain and the column identity carries no information.
func WithOmitColumnNames(omit bool) Option {
	return func(c *config) error {
		c.OmitColumnNames = omit
		return nil
	}
}

// WithInstrumentationHooks registers the hooks invoked at the points spec
// §1.3 names: OnTransactionIngested, OnNodeCreated, OnRuleEmitted,
// OnPhaseElapsed. Nil fields inside hooks are simply never called.
func WithInstrumentationHooks(hooks *InstrumentationHooks) Option {
	return func(c *config) error {
		c.hooks = hooks
		return nil
	}
}

// WithMetrics attaches optional Prometheus instrumentation. Nil (the
// default) means no metrics are recorded, mirroring bfs.BFSOptions.Ctx
// defaulting to context.Background() rather than forcing a dependency on
// every caller.
func WithMetrics(metrics *Metrics) Option {
	return func(c *config) error {
		c.metrics = metrics
		return nil
	}
}

// applyOptions folds opts onto defaultConfig and validates the result,
// collapsing threshold/emptiness/contradiction checks into one pass via
// ambreValidate rather than a long hand-rolled chain of if statements — the
// teacher's matrix.Options validates by hand because its rules are simple
// range checks; config has enough cross-field rules to earn a validator.
func applyOptions(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}
	if err := ambreValidate.Struct(&cfg); err != nil {
		return config{}, fmt.Errorf("%w: %v", ErrConfigError, err)
	}
	if cfg.ItemSeparator == cfg.ColumnValueSeparator {
		return config{}, fmt.Errorf("%w: item separator and column/value separator must differ", ErrConfigError)
	}
	return cfg, nil
}
