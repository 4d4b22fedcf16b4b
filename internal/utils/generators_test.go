package utils

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderID(t *testing.T) {
	id := GenerateOrderID()
	assert.True(t, strings.HasPrefix(id, "ord_"))
	assert.Len(t, strings.Split(id, "_"), 3)
}

func TestGenerateInvoiceID(t *testing.T) {
	id := GenerateInvoiceID()
	assert.True(t, strings.HasPrefix(id, "inv_"))
}

func TestGenerateAccessToken(t *testing.T) {
	token := GenerateAccessToken()
	assert.True(t, strings.HasPrefix(token, "gat_"))
	assert.Len(t, token, 4+64) // prefix plus 32 hex-encoded bytes

	// The secret part must be the full 32 random bytes, never a timestamped
	// order-style id.
	raw, err := hex.DecodeString(strings.TrimPrefix(token, "gat_"))
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := GenerateAccessToken()
		assert.False(t, seen[tok], "token collision")
		seen[tok] = true
	}
}
