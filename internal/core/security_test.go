// AngelaMos | 2026
// security_test.go

package core

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateConfirmationToken(t *testing.T) {
	seen := make(map[string]struct{})

	for range 64 {
		token, err := GenerateConfirmationToken()
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		assert.Len(t, raw, 32)
		assert.NotContains(t, token, "=")

		_, dup := seen[token]
		require.False(t, dup, "token issued twice")
		seen[token] = struct{}{}
	}
}

func TestHashToken(t *testing.T) {
	hash := HashToken("abc")
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashToken("abc"))
	assert.NotEqual(t, hash, HashToken("abd"))
}
