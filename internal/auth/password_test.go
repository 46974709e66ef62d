package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!", "pepper")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyPassword("s3cret!", "pepper", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", "pepper", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = VerifyPassword("s3cret!", "other-pepper", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("same", "")
	require.NoError(t, err)
	h2, err := HashPassword("same", "")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("", "pepper")
	assert.Error(t, err)
}

func TestVerifyPassword_BadFormat(t *testing.T) {
	_, err := VerifyPassword("x", "", "$bcrypt$whatever")
	assert.Error(t, err)

	_, err = VerifyPassword("x", "", "$argon2id$v=19$m=1")
	assert.Error(t, err)
}
