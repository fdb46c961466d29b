package rojifi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.rojifi.com"
	defaultTimeout = 30 * time.Second
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	retries        int
	rateLimit      float64
	rateBurst      int
	logger         *zap.Logger
	registerer     prometheus.Registerer
	onUnauthorized func()
}

// Option configures the client.
type Option func(*clientConfig)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client. It takes precedence over WithTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
// Default: 30 seconds
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithRetries retries GET requests answered with 502, 503 or 504 up to count
// times. Mutations and transport failures are never retried.
// Default: 0
func WithRetries(count int) Option {
	return func(c *clientConfig) {
		c.retries = count
	}
}

// WithRateLimit caps outgoing requests at rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *clientConfig) {
		c.rateLimit = rps
		c.rateBurst = burst
	}
}

// WithLogger sets the logger. Default: zap.NewNop()
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithMetrics registers client metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.registerer = reg
	}
}

// WithUnauthorizedHandler sets a callback run after every 401 reply,
// typically SessionManager.Invalidate.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *clientConfig) {
		c.onUnauthorized = fn
	}
}
