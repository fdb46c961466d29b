package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	plaintext := []byte(`[{"id":"1"},{"id":"2"}]`)
	data, handshake, err := Seal(kp.PublicKeyB64, plaintext)
	require.NoError(t, err)

	got, err := Open(data, handshake, kp)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestOpen_MismatchedHandshake(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	data, _, err := Seal(kp.PublicKeyB64, []byte(`{"id":"1"}`))
	require.NoError(t, err)
	_, otherHandshake, err := Seal(kp.PublicKeyB64, []byte(`{"id":"2"}`))
	require.NoError(t, err)

	_, err = Open(data, otherHandshake, kp)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestOpen_WrongKeypair(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)
	stale, err := GenerateKeypair()
	require.NoError(t, err)

	data, handshake, err := Seal(kp.PublicKeyB64, []byte(`{}`))
	require.NoError(t, err)

	_, err = Open(data, handshake, stale)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestOpen_MalformedInputs(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)
	data, handshake, err := Seal(kp.PublicKeyB64, []byte(`{}`))
	require.NoError(t, err)

	tests := []struct {
		name      string
		data      string
		handshake string
		want      error
	}{
		{"handshake not base64", data, "***", ErrInvalidHandshake},
		{"handshake wrong length", data, ToBase64URL([]byte("short")), ErrInvalidHandshake},
		{"data not base64", "***", handshake, ErrInvalidPayload},
		{"data too short", ToBase64URL([]byte("tiny")), handshake, ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.data, tt.handshake, kp)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSeal_InvalidPublicKey(t *testing.T) {
	_, _, err := Seal(ToBase64URL([]byte("short")), []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidPublicKeySize)

	_, _, err = Seal("***", []byte("x"))
	assert.Error(t, err)
}
