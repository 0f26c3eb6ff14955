package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2pass")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2pass", hash)

	assert.True(t, CompareHashAndPassword(hash, "hunter2pass"))
	assert.False(t, CompareHashAndPassword(hash, "Hunter2pass"))
	assert.False(t, CompareHashAndPassword("not-a-bcrypt-hash", "hunter2pass"))
}

func TestGenToken(t *testing.T) {
	a, err := GenToken(32)
	require.NoError(t, err)
	b, err := GenToken(32)
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	// URL-safe: no padding or reserved characters
	assert.NotContains(t, a, "=")
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}
