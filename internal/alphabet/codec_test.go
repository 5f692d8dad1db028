package alphabet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_IdentityWhenDisabled(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	encoded, err := c.Encode("Hello, World!")
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", encoded)

	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", decoded)
}

func TestCodec_RoundTrip(t *testing.T) {
	c, err := New("abcdefghijklmnopqrstuvwxyz0123456789_= ")
	require.NoError(t, err)
	require.True(t, c.Enabled())

	cases := []string{
		"bread",
		"milk",
		"column=value",
		"a",
		"aaaaaaaaaaaaaaaaaaaaaaa",
		"zzz zzz",
	}
	for _, s := range cases {
		encoded, err := c.Encode(s)
		require.NoError(t, err)
		decoded, err := c.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, s, decoded, "round trip for %q", s)
	}
}

func TestCodec_RoundTrip_EmptyString(t *testing.T) {
	c, err := New("abc")
	require.NoError(t, err)

	encoded, err := c.Encode("")
	require.NoError(t, err)
	assert.Equal(t, "", encoded)

	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "", decoded)
}

func TestCodec_RejectsCharacterOutsideAlphabet(t *testing.T) {
	c, err := New("abc")
	require.NoError(t, err)

	_, err = c.Encode("abz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCharacterNotInAlphabet))
}

func TestCodec_RejectsSentinelInAlphabet(t *testing.T) {
	_, err := New(string(sentinel) + "abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSentinelInAlphabet))
}

func TestCodec_CompressesShorterThanOriginal(t *testing.T) {
	// With a tiny alphabet, repeated characters should pack below 1 byte/char
	// once the run is long enough to amortize the encoding overhead.
	c, err := New("ab")
	require.NoError(t, err)

	s := "abababababababababababab" // 24 chars, alphabet size 3 (with sentinel)
	encoded, err := c.Encode(s)
	require.NoError(t, err)
	assert.Less(t, len(encoded), len(s))
}
