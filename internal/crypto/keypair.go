package crypto

import (
	"bytes"
	"io"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
)

// randReader is the random source used for key generation.
// It defaults to nil (which uses crypto/rand) but can be overridden for testing.
var randReader io.Reader

// Keypair is the client's ML-KEM-768 key pair for one authenticated session.
// PublicKeyB64 is what travels in the handshake header; SecretKey never leaves
// the process.
type Keypair struct {
	PublicKey    []byte
	SecretKey    []byte
	PublicKeyB64 string
}

// GenerateKeypair creates a new ML-KEM-768 keypair.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := mlkem768.GenerateKeyPair(randReader)
	if err != nil {
		return nil, err
	}

	// MarshalBinary never fails for valid keys from GenerateKeyPair
	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	return &Keypair{
		PublicKey:    pubBytes,
		SecretKey:    privBytes,
		PublicKeyB64: ToBase64URL(pubBytes),
	}, nil
}

// KeypairFromSecretKey rebuilds a keypair from a persisted secret key.
// The public key is embedded in the secret key at PublicKeyOffset.
func KeypairFromSecretKey(secretKey []byte) (*Keypair, error) {
	if len(secretKey) != MLKEMSecretKeySize {
		return nil, ErrInvalidSecretKeySize
	}

	var priv mlkem768.PrivateKey
	if err := priv.Unpack(secretKey); err != nil {
		return nil, err
	}

	publicKey := make([]byte, MLKEMPublicKeySize)
	copy(publicKey, secretKey[PublicKeyOffset:PublicKeyOffset+MLKEMPublicKeySize])

	sk := make([]byte, len(secretKey))
	copy(sk, secretKey)

	return &Keypair{
		PublicKey:    publicKey,
		SecretKey:    sk,
		PublicKeyB64: ToBase64URL(publicKey),
	}, nil
}

// Validate reports whether the keypair has consistent sizes and a public
// key encoding that matches its bytes.
func (k *Keypair) Validate() bool {
	if k == nil || k.PublicKeyB64 == "" {
		return false
	}
	if len(k.PublicKey) != MLKEMPublicKeySize || len(k.SecretKey) != MLKEMSecretKeySize {
		return false
	}

	decoded, err := FromBase64URL(k.PublicKeyB64)
	if err != nil {
		return false
	}
	return bytes.Equal(decoded, k.PublicKey) &&
		bytes.Equal(k.SecretKey[PublicKeyOffset:PublicKeyOffset+MLKEMPublicKeySize], k.PublicKey)
}

// Decapsulate recovers the shared secret carried by a handshake ciphertext.
// ML-KEM uses implicit rejection, so a ciphertext produced for another key
// yields a pseudorandom secret rather than an error.
func (k *Keypair) Decapsulate(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) != MLKEMCiphertextSize {
		return nil, ErrInvalidHandshake
	}

	var privKey mlkem768.PrivateKey
	if err := privKey.Unpack(k.SecretKey); err != nil {
		return nil, err
	}

	sharedSecret := make([]byte, MLKEMSharedKeySize)
	privKey.DecapsulateTo(sharedSecret, ciphertext)

	return sharedSecret, nil
}
