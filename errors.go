package rojifi

import (
	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/apierrors"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrNoSession is returned when no authenticated session exists.
	ErrNoSession = apierrors.ErrNoSession

	// ErrSessionExpired is returned when the bearer token is missing or past
	// expiry. No request is sent with such a session.
	ErrSessionExpired = apierrors.ErrSessionExpired

	// ErrUnauthorized is returned when the server answers 401.
	ErrUnauthorized = apierrors.ErrUnauthorized

	// ErrProtocol matches every *ProtocolError.
	ErrProtocol = apierrors.ErrProtocol

	// ErrDecode matches every *DecodeError.
	ErrDecode = apierrors.ErrDecode

	// ErrRateLimited is returned when the server answers 429.
	ErrRateLimited = apierrors.ErrRateLimited

	// ErrPageOutOfRange is returned by ListView.SetPage for pages outside
	// the server's pagination.
	ErrPageOutOfRange = apierrors.ErrPageOutOfRange

	// ErrSuperseded is returned by a ListView fetch whose result was
	// discarded because a newer fetch was issued.
	ErrSuperseded = apierrors.ErrSuperseded

	// ErrActionInProgress is returned by ActionTracker.Do when the key is busy.
	ErrActionInProgress = apierrors.ErrActionInProgress

	// ErrClientClosed is returned when operations are attempted on a closed
	// client or list view.
	ErrClientClosed = apierrors.ErrClientClosed
)

// RojifiError is implemented by all typed errors of this package.
type RojifiError interface {
	error
	RojifiError() // marker method
}

// APIError represents a non-2xx HTTP reply that did not carry an envelope.
type APIError = apierrors.APIError

// NetworkError represents a transport failure. It is never decoded.
type NetworkError = apierrors.NetworkError

// ProtocolError is the server saying no: an ERROR envelope, or a SUCCESS
// envelope without a handshake.
type ProtocolError = apierrors.ProtocolError

// DecodeError means the client could not understand a well-formed envelope,
// usually because of stale key material.
type DecodeError = apierrors.DecodeError

// Decode stages reported by DecodeError.Stage.
const (
	StageDecrypt = apierrors.StageDecrypt
	StageDecode  = apierrors.StageDecode
)

// UserMessage converts any error returned by this package into text that is
// safe to show an operator.
func UserMessage(err error) string {
	return apierrors.UserMessage(err)
}
