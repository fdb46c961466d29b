package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != AESKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), AESKeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	return cipher.NewGCM(block)
}

// OpenAES decrypts a blob laid out as nonce (12 bytes) || ciphertext || tag (16 bytes).
// aad is bound into the tag; pass the same value used when sealing.
func OpenAES(key, blob, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(blob) < AESNonceSize+AESTagSize {
		return nil, fmt.Errorf("%w: blob is %d bytes", ErrInvalidPayload, len(blob))
	}

	plaintext, err := gcm.Open(nil, blob[:AESNonceSize], blob[AESNonceSize:], aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

// SealAES encrypts plaintext with AES-256-GCM and returns
// nonce (12 bytes) || ciphertext || tag (16 bytes).
// A nil nonce draws a fresh random one; never reuse a nonce under the same key.
func SealAES(key, plaintext, nonce, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if nonce == nil {
		nonce = make([]byte, AESNonceSize)
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return nil, fmt.Errorf("generate nonce: %w", err)
		}
	}
	if len(nonce) != AESNonceSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), AESNonceSize)
	}

	out := make([]byte, 0, AESNonceSize+len(plaintext)+AESTagSize)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, aad), nil
}
