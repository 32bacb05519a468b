package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("P@ss1234")
	require.NoError(t, err)
	assert.NotEqual(t, "P@ss1234", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)

	again, err := HashPassword("P@ss1234")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salted")

	assert.True(t, CompareHashAndPassword(hash, "P@ss1234"))
	assert.False(t, CompareHashAndPassword(hash, "wrong"))
	assert.False(t, CompareHashAndPassword("not-a-hash", "P@ss1234"))
}
