package rojifi

import (
	"encoding/json"
	"fmt"

	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/api"
	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/apierrors"
	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/crypto"
)

// Envelope is the wrapper of every API reply.
type Envelope = api.Envelope

// Pagination is the server's authoritative paging descriptor.
type Pagination = api.Pagination

// EnvelopeStatus is the envelope discriminant.
type EnvelopeStatus = api.Status

// Envelope statuses.
const (
	EnvelopeSuccess = api.StatusSuccess
	EnvelopeError   = api.StatusError
)

// Decrypter opens an envelope's data blob using the handshake token that
// accompanies it. Implementations must be safe for concurrent use.
type Decrypter interface {
	Decrypt(data, handshake string) ([]byte, error)
}

// keypairDecrypter decrypts with a session's ML-KEM-768 key pair.
type keypairDecrypter struct {
	keypair *crypto.Keypair
}

func (d keypairDecrypter) Decrypt(data, handshake string) ([]byte, error) {
	return crypto.Open(data, handshake, d.keypair)
}

// Open validates env and decrypts its payload into T.
//
// An ERROR envelope yields a *ProtocolError carrying message, or error when
// message is blank. A SUCCESS envelope without a handshake yields a
// *ProtocolError "unable to process response". A payload that cannot be
// decrypted or parsed yields a *DecodeError.
func Open[T any](env *Envelope, dec Decrypter) (T, error) {
	var zero T

	plaintext, err := openEnvelope(env, dec)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(plaintext, &out); err != nil {
		return zero, &DecodeError{Stage: StageDecode, Err: err}
	}
	return out, nil
}

// CheckStatus validates a reply that is not expected to carry a payload, as
// mutation replies usually are. It never decrypts; a data field is only
// required to come with a handshake.
func CheckStatus(env *Envelope) error {
	if err := checkStatus(env); err != nil {
		return err
	}
	if env.HasData() && env.Handshake == "" {
		return &ProtocolError{Message: apierrors.MsgUnprocessable}
	}
	return nil
}

func checkStatus(env *Envelope) error {
	if env == nil {
		return &ProtocolError{Message: apierrors.MsgUnprocessable}
	}

	switch env.Status {
	case EnvelopeSuccess:
		return nil
	case EnvelopeError:
		msg := env.ErrorText()
		if msg == "" {
			msg = apierrors.MsgRequestFailed
		}
		return &ProtocolError{Message: msg}
	default:
		return &ProtocolError{Message: fmt.Sprintf("unexpected envelope status %q", env.Status)}
	}
}

func openEnvelope(env *Envelope, dec Decrypter) ([]byte, error) {
	if err := checkStatus(env); err != nil {
		return nil, err
	}
	if env.Handshake == "" {
		return nil, &ProtocolError{Message: apierrors.MsgUnprocessable}
	}
	if dec == nil {
		return nil, &DecodeError{Stage: StageDecrypt, Err: fmt.Errorf("no decrypter")}
	}

	blob, err := env.Blob()
	if err != nil {
		return nil, &DecodeError{Stage: StageDecode, Err: fmt.Errorf("data is not an encrypted blob: %w", err)}
	}

	plaintext, err := dec.Decrypt(blob, env.Handshake)
	if err != nil {
		return nil, &DecodeError{Stage: StageDecrypt, Err: err}
	}
	return plaintext, nil
}
