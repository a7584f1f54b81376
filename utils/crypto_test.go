package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, VerifyPassword("secret123", hash))
	assert.False(t, VerifyPassword("secret124", hash))
}

func TestHashAndVerifyPIN(t *testing.T) {
	hash, err := HashPIN("0420")
	require.NoError(t, err)
	assert.True(t, VerifyPIN("0420", hash))
	assert.False(t, VerifyPIN("0421", hash))
}

func TestRandomDigits(t *testing.T) {
	digits := regexp.MustCompile(`^[0-9]{10}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		s, err := RandomDigits(10)
		require.NoError(t, err)
		assert.Regexp(t, digits, s)
		seen[s] = struct{}{}
	}
	assert.Greater(t, len(seen), 45)

	_, err := RandomDigits(0)
	assert.Error(t, err)
}
