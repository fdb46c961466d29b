package rojifi

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/api"
	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/metrics"
	"github.com/AntimonyIQ/rojifiadmin-sub001/query"
)

// Client issues session-bound requests to the Rojifi admin API and opens
// the envelopes it gets back. It is safe for concurrent use.
type Client struct {
	apiClient      *api.Client
	sessions       SessionProvider
	logger         *zap.Logger
	metrics        *metrics.Collector
	onUnauthorized func()
	closed         atomic.Bool
}

// Page is one page of a list fetch. Pagination is nil when the server sent none.
type Page[T any] struct {
	Records    []T
	Pagination *Pagination
	RequestID  string
}

// buildAPIClient creates and configures an API client from the given config.
func buildAPIClient(cfg *clientConfig) (*api.Client, error) {
	apiCfg := api.Config{
		BaseURL:    cfg.baseURL,
		HTTPClient: cfg.httpClient,
		Timeout:    cfg.timeout,
	}
	if cfg.retries > 0 {
		apiCfg.Retry = api.DefaultRetryConfig(cfg.retries)
	}
	if cfg.rateLimit > 0 {
		burst := cfg.rateBurst
		if burst < 1 {
			burst = 1
		}
		apiCfg.Limiter = rate.NewLimiter(rate.Limit(cfg.rateLimit), burst)
	}
	return api.NewClient(apiCfg)
}

// New creates a client that reads credentials from sessions.
func New(sessions SessionProvider, opts ...Option) (*Client, error) {
	if sessions == nil {
		return nil, errors.New("session provider is required")
	}

	cfg := &clientConfig{
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	apiClient, err := buildAPIClient(cfg)
	if err != nil {
		return nil, err
	}

	var collector *metrics.Collector
	if cfg.registerer != nil {
		collector, err = metrics.NewCollector(cfg.registerer)
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		apiClient:      apiClient,
		sessions:       sessions,
		logger:         cfg.logger,
		metrics:        collector,
		onUnauthorized: cfg.onUnauthorized,
	}, nil
}

// Close marks the client closed. Later calls return ErrClientClosed.
func (c *Client) Close() error {
	c.closed.Store(true)
	return nil
}

// List fetches one page of records from path with the query built from state.
func List[T any](ctx context.Context, c *Client, path string, state query.State) (*Page[T], error) {
	start := time.Now()
	resp, sess, err := c.send(ctx, http.MethodGet, path, query.Build(state), nil)
	if err != nil {
		c.observe(http.MethodGet, path, start, nil, err)
		return nil, err
	}

	records, err := Open[[]T](resp.Envelope, sess.Decrypter())
	err = withStatus(err, resp)
	c.observe(http.MethodGet, path, start, resp, err)
	if err != nil {
		return nil, err
	}

	if records == nil {
		records = []T{}
	}
	page := &Page[T]{Records: records, RequestID: resp.RequestID}
	if p := resp.Envelope.Pagination; p != nil {
		cp := *p
		page.Pagination = &cp
	}
	return page, nil
}

// Get fetches a single record from path.
func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	return MutateInto[T](ctx, c, http.MethodGet, path, nil)
}

// MutateInto sends body with method and decodes the reply's payload into T.
func MutateInto[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T

	start := time.Now()
	resp, sess, err := c.send(ctx, method, path, "", body)
	if err != nil {
		c.observe(method, path, start, nil, err)
		return zero, err
	}

	out, err := Open[T](resp.Envelope, sess.Decrypter())
	err = withStatus(err, resp)
	c.observe(method, path, start, resp, err)
	if err != nil {
		return zero, err
	}
	return out, nil
}

// Mutate sends body with method and checks the reply's status. Any payload
// is ignored. An empty 2xx reply counts as success.
func (c *Client) Mutate(ctx context.Context, method, path string, body any) error {
	start := time.Now()
	resp, _, err := c.send(ctx, method, path, "", body)
	if err != nil {
		c.observe(method, path, start, nil, err)
		return err
	}

	if resp.Envelope != nil {
		err = withStatus(CheckStatus(resp.Envelope), resp)
	}
	c.observe(method, path, start, resp, err)
	return err
}

func (c *Client) send(ctx context.Context, method, path, rawQuery string, body any) (*api.Response, *Session, error) {
	if c.closed.Load() {
		return nil, nil, ErrClientClosed
	}

	sess, err := c.sessions.Current()
	if err != nil {
		return nil, nil, err
	}
	if sess.Expired(time.Now()) {
		return nil, nil, ErrSessionExpired
	}

	resp, err := c.apiClient.Do(ctx, api.Request{
		Method: method,
		Path:   path,
		Query:  rawQuery,
		Body:   body,
		Credentials: api.Credentials{
			PublicKey: sess.PublicKey(),
			DeviceID:  sess.DeviceID(),
			Token:     sess.BearerToken(),
		},
	})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, nil, err
	}

	if env := resp.Envelope; resp.StatusCode >= 300 && env != nil && env.Status != EnvelopeError {
		return nil, nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    env.ErrorText(),
			RequestID:  resp.RequestID,
		}
	}
	return resp, sess, nil
}

// withStatus stamps the HTTP status on a protocol error from a non-2xx reply.
func withStatus(err error, resp *api.Response) error {
	var protoErr *ProtocolError
	if resp != nil && resp.StatusCode >= 300 && errors.As(err, &protoErr) {
		protoErr.StatusCode = resp.StatusCode
	}
	return err
}

func (c *Client) observe(method, path string, start time.Time, resp *api.Response, err error) {
	d := time.Since(start)
	c.metrics.ObserveRequest(method, outcomeOf(err), d)

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Duration("duration", d),
	}
	if resp != nil {
		fields = append(fields, zap.Int("status", resp.StatusCode))
		if resp.RequestID != "" {
			fields = append(fields, zap.String("request_id", resp.RequestID))
		}
	}

	var decErr *DecodeError
	var protoErr *ProtocolError
	switch {
	case err == nil:
		c.logger.Debug("request completed", fields...)
	case errors.As(err, &decErr):
		kind := metrics.KindDecode
		if decErr.Stage == StageDecrypt {
			kind = metrics.KindDecrypt
		}
		c.metrics.EnvelopeFailure(kind)
		c.logger.Error("envelope decode failed",
			append(fields, zap.String("stage", decErr.Stage), zap.Error(decErr.Err))...)
	case errors.As(err, &protoErr):
		c.metrics.EnvelopeFailure(metrics.KindProtocol)
		c.logger.Info("envelope rejected", append(fields, zap.String("message", protoErr.Message))...)
	default:
		c.logger.Warn("request failed", append(fields, zap.Error(err))...)
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}

	var decErr *DecodeError
	var protoErr *ProtocolError
	var netErr *NetworkError
	var apiErr *APIError
	switch {
	case errors.As(err, &decErr):
		return metrics.OutcomeDecode
	case errors.As(err, &protoErr):
		return metrics.OutcomeProtocol
	case errors.As(err, &netErr):
		return metrics.OutcomeNetwork
	case errors.Is(err, ErrUnauthorized):
		return metrics.OutcomeUnauthorized
	case errors.As(err, &apiErr):
		return metrics.OutcomeAPI
	default:
		return metrics.OutcomeOther
	}
}
