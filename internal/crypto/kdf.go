package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// deriveEnvelopeKey turns a decapsulated secret into the AES key for one envelope.
//
//   - IKM: the ML-KEM shared secret
//   - Salt: SHA-256 of the raw handshake (KEM ciphertext) bytes
//   - Info: HKDFContext
func deriveEnvelopeKey(sharedSecret, handshake []byte) ([]byte, error) {
	salt := sha256.Sum256(handshake)
	return DeriveKey(sharedSecret, salt[:], []byte(HKDFContext), AESKeySize)
}

// DeriveKey derives a key using HKDF-SHA-512. An empty salt is replaced by
// a zero-filled salt of hash length.
func DeriveKey(secret, salt, info []byte, length int) ([]byte, error) {
	if len(salt) == 0 {
		salt = make([]byte, sha512.Size)
	}

	reader := hkdf.New(sha512.New, secret, salt, info)
	key := make([]byte, length)

	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	return key, nil
}
