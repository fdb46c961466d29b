package crypto

import (
	"fmt"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
)

// Open decrypts an envelope's data blob with the client's keypair and the
// server-issued handshake token. Both inputs are base64 strings as they
// appear on the wire.
//
// The steps are:
//  1. ML-KEM-768 decapsulation of the handshake to recover the shared secret
//  2. HKDF-SHA-512 derivation of the AES key (salted with the handshake)
//  3. AES-256-GCM decryption of the data blob
func Open(data, handshake string, keypair *Keypair) ([]byte, error) {
	ct, err := DecodeBase64(handshake)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandshake, err)
	}

	blob, err := DecodeBase64(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode data: %v", ErrInvalidPayload, err)
	}

	sharedSecret, err := keypair.Decapsulate(ct)
	if err != nil {
		return nil, fmt.Errorf("decapsulate: %w", err)
	}

	key, err := deriveEnvelopeKey(sharedSecret, ct)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	plaintext, err := OpenAES(key, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}

	return plaintext, nil
}

// Seal is the server half of Open: it encapsulates a fresh secret to the
// client's public key and encrypts plaintext under the derived key. It
// returns the base64url data blob and handshake token.
func Seal(publicKeyB64 string, plaintext []byte) (data, handshake string, err error) {
	pub, err := DecodeBase64(publicKeyB64)
	if err != nil {
		return "", "", fmt.Errorf("decode public key: %w", err)
	}
	if len(pub) != MLKEMPublicKeySize {
		return "", "", ErrInvalidPublicKeySize
	}

	scheme := mlkem768.Scheme()
	pk, err := scheme.UnmarshalBinaryPublicKey(pub)
	if err != nil {
		return "", "", fmt.Errorf("unmarshal public key: %w", err)
	}

	ct, sharedSecret, err := scheme.Encapsulate(pk)
	if err != nil {
		return "", "", fmt.Errorf("encapsulate: %w", err)
	}

	key, err := deriveEnvelopeKey(sharedSecret, ct)
	if err != nil {
		return "", "", fmt.Errorf("derive key: %w", err)
	}

	blob, err := SealAES(key, plaintext, nil, nil)
	if err != nil {
		return "", "", fmt.Errorf("encrypt: %w", err)
	}

	return ToBase64URL(blob), ToBase64URL(ct), nil
}
