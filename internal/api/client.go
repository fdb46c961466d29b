package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/apierrors"
)

// Header names of the session contract.
const (
	HeaderHandshake = "x-rojifi-handshake"
	HeaderDeviceID  = "x-rojifi-deviceid"
	HeaderRequestID = "x-request-id"
)

const (
	// DefaultTimeout is the HTTP client timeout when none is configured.
	DefaultTimeout = 30 * time.Second

	maxBodySize = 16 << 20
)

// Credentials are the per-request session values.
type Credentials struct {
	PublicKey string
	DeviceID  string
	Token     string
}

// Config holds the transport configuration.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	// Retry enables retries when non-nil.
	Retry *RetryConfig
	// Limiter throttles outgoing requests when non-nil.
	Limiter *rate.Limiter
}

// Client is the HTTP API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      *RetryConfig
	limiter    *rate.Limiter
}

// Request describes one API call.
type Request struct {
	Method      string
	Path        string
	Query       string
	Body        any
	Credentials Credentials
}

// Response is a reply that reached the envelope layer.
// Envelope is nil when the body was empty or not an envelope.
type Response struct {
	StatusCode int
	RequestID  string
	Envelope   *Envelope
	Attempts   int
}

// NewClient creates a transport from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		retry:      cfg.Retry,
		limiter:    cfg.Limiter,
	}, nil
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req and returns the reply. See the package doc for the error contract.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var body []byte
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = data
	}

	target := c.baseURL + req.Path
	if req.Query != "" {
		target += "?" + req.Query
	}

	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, &apierrors.NetworkError{Err: err, URL: target, Attempt: attempt + 1}
			}
		}

		httpReq, err := c.newRequest(ctx, req, target, body)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, &apierrors.NetworkError{Err: err, URL: target, Attempt: attempt + 1}
		}

		if req.Method == http.MethodGet && c.retry.ShouldRetry(attempt, resp.StatusCode) {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if err := c.retry.Wait(ctx, attempt); err != nil {
				return nil, &apierrors.NetworkError{Err: err, URL: target, Attempt: attempt + 1}
			}
			continue
		}

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		resp.Body.Close()
		if err != nil {
			return nil, &apierrors.NetworkError{Err: fmt.Errorf("read body: %w", err), URL: target, Attempt: attempt + 1}
		}

		return parseResponse(resp, respBody, attempt+1)
	}
}

func (c *Client) newRequest(ctx context.Context, req Request, target string, body []byte) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(HeaderHandshake, req.Credentials.PublicKey)
	httpReq.Header.Set(HeaderDeviceID, req.Credentials.DeviceID)
	httpReq.Header.Set("Authorization", "Bearer "+req.Credentials.Token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	return httpReq, nil
}

func parseResponse(resp *http.Response, body []byte, attempts int) (*Response, error) {
	requestID := resp.Header.Get(HeaderRequestID)
	env := decodeEnvelope(body)

	if resp.StatusCode == http.StatusUnauthorized {
		msg := errorMessage(body)
		if env != nil {
			msg = env.ErrorText()
		}
		return nil, &apierrors.APIError{
			StatusCode: resp.StatusCode,
			Message:    msg,
			RequestID:  requestID,
		}
	}

	if resp.StatusCode >= 300 && env == nil {
		return nil, &apierrors.APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
			RequestID:  requestID,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
		Envelope:   env,
		Attempts:   attempts,
	}, nil
}

func errorMessage(body []byte) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Message != "" {
			return errResp.Message
		}
		if errResp.Error != "" {
			return errResp.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
