package ambre

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOptions_DefaultsAreUsable(t *testing.T) {
	cfg, err := applyOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, ", ", cfg.ItemSeparator)
	assert.Equal(t, "=", cfg.ColumnValueSeparator)
}

func TestApplyOptions_NegativeMaxLenFails(t *testing.T) {
	_, err := applyOptions([]Option{WithMaxLen(-1)})
	assert.True(t, errors.Is(err, ErrConfigError))
}

func TestApplyOptions_EmptyItemSeparatorFails(t *testing.T) {
	_, err := applyOptions([]Option{WithItemSeparator("")})
	assert.True(t, errors.Is(err, ErrConfigError))
}

func TestApplyOptions_CollidingSeparatorsFail(t *testing.T) {
	_, err := applyOptions([]Option{WithItemSeparator("|"), WithColumnValueSeparator("|")})
	assert.True(t, errors.Is(err, ErrConfigError))
}

func TestApplyOptions_ValidOptionsCompose(t *testing.T) {
	cfg, err := applyOptions([]Option{
		WithCaseInsensitive(true),
		WithNormalizeWhitespace(true),
		WithAlphabet("abc"),
		WithMaxLen(3),
		WithStrict(true),
		WithOmitColumnNames(true),
	})
	require.NoError(t, err)
	assert.True(t, cfg.CaseInsensitive)
	assert.True(t, cfg.NormalizeWhitespace)
	assert.Equal(t, "abc", cfg.Alphabet)
	assert.Equal(t, 3, cfg.MaxLen)
	assert.True(t, cfg.Strict)
	assert.True(t, cfg.OmitColumnNames)
}
