package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2_HashAndVerify(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("123456")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := svc.Verify("123456", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify("654321", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2_UniqueSalts(t *testing.T) {
	svc := NewArgon2HashService()

	h1, err := svc.Hash("123456")
	require.NoError(t, err)
	h2, err := svc.Hash("123456")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestArgon2_MalformedHash(t *testing.T) {
	svc := NewArgon2HashService()

	_, err := svc.Verify("123456", "not-a-hash")
	assert.Error(t, err)

	_, err = svc.Verify("123456", "$bcrypt$v=19$m=1,t=1,p=1$x$y")
	assert.Error(t, err)
}
