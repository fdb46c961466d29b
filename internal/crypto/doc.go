// Package crypto implements the key material and decryption behind the
// handshake envelope.
//
// # Algorithm Suite
//
//   - ML-KEM-768 (NIST FIPS 203): the client's session key pair. The public
//     key is disclosed on every request; the server encapsulates a fresh
//     secret to it for each response and returns the ciphertext as the
//     handshake token.
//
//   - HKDF-SHA-512 (RFC 5869): derives the AES key from the decapsulated
//     secret, salted with SHA-256 of the handshake bytes.
//
//   - AES-256-GCM: encrypts the response payload. The data blob is
//     nonce || ciphertext || tag.
//
// # Failure Model
//
// A handshake that was not produced for this key pair does not fail at
// decapsulation (ML-KEM uses implicit rejection). It fails at the GCM tag
// check with [ErrDecryptionFailed]. Callers therefore see one error for a
// stale key, a wrong handshake, or a tampered payload.
//
// Keep secret keys secure. They should never be logged, transmitted, or
// stored in version control.
package crypto
