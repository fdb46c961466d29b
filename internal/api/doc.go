// Package api is the HTTP transport for the Rojifi admin API. It attaches the
// session headers to every request, applies optional rate limiting and retry,
// and hands back the raw envelope for the caller to open.
//
// # Headers
//
// Every request carries:
//
//   - x-rojifi-handshake: the client's base64url ML-KEM-768 public key
//   - x-rojifi-deviceid: the stable device identifier
//   - Authorization: Bearer <token>
//   - Content-Type and Accept: application/json
//
// # Retry Behavior
//
// Retries are off unless [Config.Retry] is set. When enabled, only GET
// requests answered with 502, 503 or 504 are retried, with exponential
// backoff and jitter. Transport failures and timeouts are never retried.
//
// # Errors
//
// Transport failures surface as [apierrors.NetworkError]. A 401 surfaces as
// [apierrors.APIError] matching [apierrors.ErrUnauthorized]. Any other
// non-2xx reply without an envelope body surfaces as [apierrors.APIError].
// Replies that carry an envelope are returned as-is, whatever their status.
//
// # Thread Safety
//
// The [Client] type is safe for concurrent use.
package api
