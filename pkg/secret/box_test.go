package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxSealOpen(t *testing.T) {
	box, err := NewBox("correct horse")
	require.NoError(t, err)

	sealed, err := box.Seal("EAAB-page-token")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "v1:"))
	assert.NotContains(t, sealed, "EAAB-page-token")

	again, err := box.Seal("EAAB-page-token")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "EAAB-page-token", plain)
}

func TestBoxOpenWrongKey(t *testing.T) {
	a, _ := NewBox("a")
	b, _ := NewBox("b")
	sealed, err := a.Seal("token")
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestBoxOpenPassesLegacyPlaintext(t *testing.T) {
	box, _ := NewBox("k")
	plain, err := box.Open("legacy-token")
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", plain)
}

func TestNewBoxRejectsEmptyPassphrase(t *testing.T) {
	_, err := NewBox("")
	assert.Error(t, err)
}
