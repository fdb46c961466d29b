package crypto

import "errors"

var (
	// ErrInvalidSecretKeySize is returned when the secret key size is invalid.
	ErrInvalidSecretKeySize = errors.New("invalid secret key size")

	// ErrInvalidPublicKeySize is returned when the public key size is invalid.
	ErrInvalidPublicKeySize = errors.New("invalid public key size")

	// ErrInvalidHandshake is returned when a handshake token does not decode
	// to an ML-KEM-768 ciphertext.
	ErrInvalidHandshake = errors.New("invalid handshake token")

	// ErrDecryptionFailed is returned when AES-GCM authentication fails. With
	// the envelope scheme this is what a mismatched handshake or key produces.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidKeySize is returned when the AES key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidNonceSize is returned when the nonce size is invalid.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrInvalidPayload is returned when the encrypted data blob is malformed:
	// bad encoding or too short to hold a nonce and tag.
	ErrInvalidPayload = errors.New("invalid payload")
)
