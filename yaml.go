package ambre

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlConfig mirrors config's tunable (non-callback) fields for YAML
// loading, the way jinterlante1206-AleutianLocal wires yaml.v3 config
// structs alongside validator-checked domain types.
type yamlConfig struct {
	CaseInsensitive      bool   `yaml:"case_insensitive"`
	NormalizeWhitespace  bool   `yaml:"normalize_whitespace"`
	Alphabet             string `yaml:"alphabet"`
	MaxLen               int    `yaml:"max_len"`
	Strict               bool   `yaml:"strict"`
	ItemSeparator        string `yaml:"item_separator"`
	ColumnValueSeparator string `yaml:"column_value_separator"`
	OmitColumnNames      bool   `yaml:"omit_column_names"`
}

// OptionsFromYAML parses data as a yamlConfig document and returns the
// equivalent Option slice, so tabular/CLI-adjacent callers (out of scope
// themselves) can build a Database's options from a config file without
// this package depending on any particular CLI framework.
func OptionsFromYAML(data []byte) ([]Option, error) {
	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigError, err)
	}

	opts := []Option{
		WithCaseInsensitive(y.CaseInsensitive),
		WithNormalizeWhitespace(y.NormalizeWhitespace),
		WithStrict(y.Strict),
		WithOmitColumnNames(y.OmitColumnNames),
	}
	if y.Alphabet != "" {
		opts = append(opts, WithAlphabet(y.Alphabet))
	}
	if y.MaxLen != 0 {
		opts = append(opts, WithMaxLen(y.MaxLen))
	}
	if y.ItemSeparator != "" {
		opts = append(opts, WithItemSeparator(y.ItemSeparator))
	}
	if y.ColumnValueSeparator != "" {
		opts = append(opts, WithColumnValueSeparator(y.ColumnValueSeparator))
	}
	return opts, nil
}
