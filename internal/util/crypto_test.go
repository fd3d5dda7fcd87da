package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHmacSHA256(t *testing.T) {
	t.Run("returns 64 character hex string", func(t *testing.T) {
		result := HmacSHA256("secret", "alice")
		assert.Len(t, result, 64)
	})

	t.Run("different secret produces different result", func(t *testing.T) {
		assert.NotEqual(t, HmacSHA256("secret1", "alice"), HmacSHA256("secret2", "alice"))
	})

	t.Run("different identity produces different result", func(t *testing.T) {
		assert.NotEqual(t, HmacSHA256("secret", "alice"), HmacSHA256("secret", "bob"))
	})

	t.Run("produces expected HMAC", func(t *testing.T) {
		// Known test vector
		result := HmacSHA256("key", "The quick brown fox jumps over the lazy dog")
		assert.Equal(t, "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8", result)
	})
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("abc", "abc"))
	assert.False(t, ConstantTimeEqual("abc", "abd"))
	assert.False(t, ConstantTimeEqual("abc", "ab"))
	assert.True(t, ConstantTimeEqual("", ""))
}

func TestIsValidItemKey(t *testing.T) {
	valid := []string{"PROJ-1", "ABC_DEF-123", "42", "team.backlog:7"}
	for _, key := range valid {
		assert.True(t, IsValidItemKey(key), key)
	}

	invalid := []string{"", "-PROJ", "PROJ 1", "PROJ/1", "PROJ-1\n", strings.Repeat("A", 256)}
	for _, key := range invalid {
		assert.False(t, IsValidItemKey(key), key)
	}
}

func TestIsValidEnum(t *testing.T) {
	allowed := []string{"1", "2", "?"}

	assert.True(t, IsValidEnum("2", allowed))
	assert.True(t, IsValidEnum("?", allowed))
	assert.True(t, IsValidEnum("", allowed))
	assert.False(t, IsValidEnum("3", allowed))
}
