package apikey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	raw, prefix, digest, err := Generate()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "tpm_"+prefix+"_"))
	assert.Len(t, digest, 64)
	assert.Equal(t, Digest(raw), digest)
}

func TestGenerateIsUnique(t *testing.T) {
	a, _, _, err := Generate()
	require.NoError(t, err)
	b, _, _, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPrefix(t *testing.T) {
	raw, prefix, _, err := Generate()
	require.NoError(t, err)

	got, err := Prefix(raw)
	require.NoError(t, err)
	assert.Equal(t, prefix, got)

	for _, bad := range []string{"", "tpm", "tpm_abc", "foo_abc_def", "tpm__secret", "tpm_abc_"} {
		_, err := Prefix(bad)
		assert.ErrorIs(t, err, ErrMalformedKey, "key %q", bad)
	}
}

func TestVerify(t *testing.T) {
	raw, _, digest, err := Generate()
	require.NoError(t, err)

	assert.True(t, Verify(raw, digest))
	assert.False(t, Verify(raw+"x", digest))
	assert.False(t, Verify(raw, Digest("other")))
}
