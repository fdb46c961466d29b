package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeypair(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	assert.Len(t, kp.PublicKey, MLKEMPublicKeySize)
	assert.Len(t, kp.SecretKey, MLKEMSecretKeySize)
	assert.Equal(t, ToBase64URL(kp.PublicKey), kp.PublicKeyB64)
	assert.True(t, kp.Validate())
}

func TestGenerateKeypair_Deterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 64)

	restore := SetRandReaderForTesting(bytes.NewReader(seed))
	kp1, err := GenerateKeypair()
	restore()
	require.NoError(t, err)

	restore = SetRandReaderForTesting(bytes.NewReader(seed))
	kp2, err := GenerateKeypair()
	restore()
	require.NoError(t, err)

	assert.Equal(t, kp1.SecretKey, kp2.SecretKey)
	assert.Equal(t, kp1.PublicKeyB64, kp2.PublicKeyB64)
}

func TestKeypairFromSecretKey(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	restored, err := KeypairFromSecretKey(kp.SecretKey)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, restored.PublicKey)
	assert.Equal(t, kp.PublicKeyB64, restored.PublicKeyB64)
	assert.True(t, restored.Validate())

	_, err = KeypairFromSecretKey(make([]byte, 10))
	assert.ErrorIs(t, err, ErrInvalidSecretKeySize)
}

func TestKeypair_Validate(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	var nilKP *Keypair
	assert.False(t, nilKP.Validate())

	bad := *kp
	bad.PublicKeyB64 = ToBase64URL([]byte("nope"))
	assert.False(t, bad.Validate())

	short := *kp
	short.SecretKey = kp.SecretKey[:100]
	assert.False(t, short.Validate())
}

func TestKeypair_DecapsulateRejectsBadSize(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	_, err = kp.Decapsulate(make([]byte, 12))
	assert.ErrorIs(t, err, ErrInvalidHandshake)
}
