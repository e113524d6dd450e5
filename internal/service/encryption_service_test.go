package service

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAESKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestAES_RoundTrip(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	enc, err := svc.Encrypt("tok_481111xxxx1114")
	require.NoError(t, err)
	assert.NotEqual(t, "tok_481111xxxx1114", enc)

	dec, err := svc.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "tok_481111xxxx1114", dec)
}

func TestAES_NonDeterministic(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	a, err := svc.Encrypt("same")
	require.NoError(t, err)
	b, err := svc.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAES_RejectsBadKey(t *testing.T) {
	_, err := NewAESEncryptionService("zz")
	assert.Error(t, err)

	_, err = NewAESEncryptionService(hex.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestAES_RejectsTamperedCiphertext(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	enc, err := svc.Encrypt("secret")
	require.NoError(t, err)

	_, err = svc.Decrypt("AAAA" + enc[4:])
	assert.Error(t, err)

	_, err = svc.Decrypt("!!!not-base64!!!")
	assert.Error(t, err)
}
