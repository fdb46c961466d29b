package crypto

const (
	// HKDFContext is the info string used when deriving envelope keys.
	HKDFContext = "rojifi:envelope:v1"

	// MLKEMPublicKeySize is the size of an ML-KEM-768 public key in bytes.
	MLKEMPublicKeySize = 1184
	// MLKEMSecretKeySize is the size of an ML-KEM-768 secret key in bytes.
	MLKEMSecretKeySize = 2400
	// MLKEMCiphertextSize is the size of an ML-KEM-768 ciphertext in bytes.
	// A handshake token decodes to exactly this many bytes.
	MLKEMCiphertextSize = 1088
	// MLKEMSharedKeySize is the size of the shared secret from ML-KEM-768 in bytes.
	MLKEMSharedKeySize = 32

	// AESKeySize is the size of an AES-256 key in bytes.
	AESKeySize = 32
	// AESNonceSize is the size of an AES-GCM nonce in bytes.
	AESNonceSize = 12
	// AESTagSize is the size of an AES-GCM authentication tag in bytes.
	AESTagSize = 16

	// PublicKeyOffset is the byte offset where the public key is embedded
	// within an ML-KEM-768 secret key.
	PublicKeyOffset = 1152
)

// Suite names the primitives behind the handshake envelope.
const Suite = "ML-KEM-768:AES-256-GCM:HKDF-SHA-512"
