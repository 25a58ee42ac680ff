package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashAndMatch(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, h.Matches("correct horse", hash))
	assert.False(t, h.Matches("battery staple", hash))
}

func TestBcrypt_MatchesGarbageHash(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	assert.False(t, h.Matches("pw", "not-a-bcrypt-hash"))
}

func TestNewBcrypt_DefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(0).cost)
}

func TestBcrypt_TooLongPassword(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	_, err := h.Hash(string(long))
	assert.Error(t, err)
}
