package persist

import (
	"io"

	"gopkg.in/yaml.v3"
)

// yamlEncoder is the narrow seam DescribeYAML's marshalYAML helper writes
// through, so the yaml.v3 dependency is confined to this one file.
type yamlEncoder struct {
	enc *yaml.Encoder
}

func newYAMLEncoder(w io.Writer) *yamlEncoder {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &yamlEncoder{enc: enc}
}

func (y *yamlEncoder) Encode(v interface{}) error {
	return y.enc.Encode(v)
}

func (y *yamlEncoder) Close() error {
	return y.enc.Close()
}
