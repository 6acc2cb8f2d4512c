package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	passwords := []string{"abcdef", "P@ssw0rd!#$%^&*()", "   spaces   ", "пароль🔒"}
	for _, pw := range passwords {
		t.Run(pw, func(t *testing.T) {
			hash, err := HashPassword(pw, bcrypt.MinCost)
			require.NoError(t, err)
			assert.True(t, VerifyPassword(pw, hash))
			assert.False(t, VerifyPassword(pw+"x", hash))
		})
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	h1, err := HashPassword("abcdef", bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := HashPassword("abcdef", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHashPasswordFallsBackToDefaultCost(t *testing.T) {
	hash, err := HashPassword("abcdef", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}

func TestVerifyPasswordLegacyDigest(t *testing.T) {
	stored := LegacyDigest("secret1")
	assert.Len(t, stored, 64)
	assert.True(t, VerifyPassword("secret1", stored))
	assert.False(t, VerifyPassword("secret2", stored))
	assert.False(t, VerifyPassword("secret1", ""))
	assert.False(t, VerifyPassword("secret1", "not-a-hash"))
}

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken()
		require.NoError(t, err)
		require.Len(t, token, 64)
		require.NotContains(t, seen, token)
		seen[token] = struct{}{}
	}
}
