// Package apierrors provides shared error types for the Rojifi admin client.
package apierrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrNoSession is returned when no authenticated session exists.
	ErrNoSession = errors.New("no active session")

	// ErrSessionExpired is returned when the session's bearer token is missing or past expiry.
	ErrSessionExpired = errors.New("session expired")

	// ErrUnauthorized is returned when the server rejects the bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrProtocol matches every *ProtocolError.
	ErrProtocol = errors.New("protocol error")

	// ErrDecode matches every *DecodeError.
	ErrDecode = errors.New("decode error")

	// ErrRateLimited is returned when the server answers 429.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrPageOutOfRange is returned when a page outside the server's pagination is requested.
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrSuperseded is returned for a fetch whose result was discarded because a newer one was issued.
	ErrSuperseded = errors.New("request superseded")

	// ErrActionInProgress is returned when a mutation is already running for a key.
	ErrActionInProgress = errors.New("action already in progress")

	// ErrClientClosed is returned when operations are attempted on a closed client or view.
	ErrClientClosed = errors.New("client has been closed")
)

// Fallback messages used when the server supplies none.
const (
	MsgRequestFailed     = "request failed"
	MsgUnprocessable     = "unable to process response"
	MsgUnexpectedMessage = "something went wrong, please try again"
)

// APIError represents a non-2xx HTTP reply that did not carry an envelope.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		if e.Message != "" {
			return fmt.Sprintf("API error %d: %s (request_id: %s)", e.StatusCode, e.Message, e.RequestID)
		}
		return fmt.Sprintf("API error %d (request_id: %s)", e.StatusCode, e.RequestID)
	}
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// RojifiError implements the RojifiError interface.
func (e *APIError) RojifiError() {}

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case 401:
		return target == ErrUnauthorized
	case 429:
		return target == ErrRateLimited
	}
	return false
}

// NetworkError represents a transport-level failure. The request never
// produced an HTTP response.
type NetworkError struct {
	Err     error
	URL     string
	Attempt int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RojifiError implements the RojifiError interface.
func (e *NetworkError) RojifiError() {}

// ProtocolError is a rejection carried by the envelope itself: status ERROR,
// or SUCCESS without a handshake. StatusCode is the HTTP status when known.
type ProtocolError struct {
	Message    string
	StatusCode int
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("protocol error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}

// Is implements errors.Is for sentinel error matching.
func (e *ProtocolError) Is(target error) bool {
	if target == ErrProtocol {
		return true
	}
	return e.StatusCode == 401 && target == ErrUnauthorized
}

// RojifiError implements the RojifiError interface.
func (e *ProtocolError) RojifiError() {}

// DecodeError means the envelope was well formed but its payload could not
// be decrypted or parsed. Stage is "decrypt" or "decode".
type DecodeError struct {
	Stage string
	Err   error
}

// Decode stages.
const (
	StageDecrypt = "decrypt"
	StageDecode  = "decode"
)

func (e *DecodeError) Error() string {
	return fmt.Sprintf("envelope %s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// RojifiError implements the RojifiError interface.
func (e *DecodeError) RojifiError() {}

// UserMessage converts an error into text suitable for showing an operator.
// Server-supplied protocol messages pass through; everything else maps to a
// fixed phrase so internals never leak into the UI.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		if protoErr.StatusCode == 401 {
			return "your session has ended, please sign in again"
		}
		return protoErr.Message
	}

	switch {
	case errors.Is(err, ErrNoSession), errors.Is(err, ErrSessionExpired), errors.Is(err, ErrUnauthorized):
		return "your session has ended, please sign in again"
	case errors.Is(err, ErrDecode):
		return "the response could not be read, please sign in again"
	case errors.Is(err, ErrRateLimited):
		return "too many requests, please wait a moment"
	case errors.Is(err, ErrPageOutOfRange):
		return "that page does not exist"
	case errors.Is(err, ErrActionInProgress):
		return "this action is already in progress"
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "could not reach the server, check your connection"
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return MsgUnexpectedMessage
}
