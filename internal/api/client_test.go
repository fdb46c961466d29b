package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/apierrors"
)

var testCreds = Credentials{PublicKey: "pk-b64", DeviceID: "device-1", Token: "tok"}

func newTestClient(t *testing.T, handler http.HandlerFunc, mod func(*Config)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{BaseURL: server.URL}
	if mod != nil {
		mod(&cfg)
	}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error for empty base URL")
	}
	if _, err := NewClient(Config{BaseURL: "not a url"}); err == nil {
		t.Error("expected error for base URL without scheme")
	}

	client, err := NewClient(Config{BaseURL: "https://api.rojifi.com/"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.BaseURL() != "https://api.rojifi.com" {
		t.Errorf("BaseURL() = %q", client.BaseURL())
	}
	if client.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.httpClient.Timeout, DefaultTimeout)
	}
}

func TestClient_Do_SendsSessionHeaders(t *testing.T) {
	var got http.Header
	var gotURL string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotURL = r.URL.String()
		w.Write([]byte(`{"status":"SUCCESS"}`))
	}, nil)

	resp, err := client.Do(context.Background(), Request{
		Method:      http.MethodGet,
		Path:        "/contacts",
		Query:       "page=1&limit=10",
		Credentials: testCreds,
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if gotURL != "/contacts?page=1&limit=10" {
		t.Errorf("URL = %q", gotURL)
	}
	checks := map[string]string{
		HeaderHandshake: "pk-b64",
		HeaderDeviceID:  "device-1",
		"Authorization": "Bearer tok",
		"Accept":        "application/json",
	}
	for k, want := range checks {
		if got.Get(k) != want {
			t.Errorf("header %s = %q, want %q", k, got.Get(k), want)
		}
	}
	if resp.Envelope == nil || resp.Envelope.Status != StatusSuccess {
		t.Errorf("Envelope = %+v", resp.Envelope)
	}
}

func TestClient_Do_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantAPIErr bool
		wantEnv    bool
	}{
		{"401 envelope", 401, `{"status":"ERROR","message":"jwt expired"}`, apierrors.ErrUnauthorized, true, false},
		{"401 plain", 401, `unauthorized`, apierrors.ErrUnauthorized, true, false},
		{"404 envelope", 404, `{"status":"ERROR","message":"not found"}`, nil, false, true},
		{"500 html", 500, `<html>oops</html>`, nil, true, false},
		{"429 json", 429, `{"error":"slow down"}`, apierrors.ErrRateLimited, true, false},
		{"204 empty", 204, ``, nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, nil)

			resp, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x", Credentials: testCreds})

			var apiErr *apierrors.APIError
			if tt.wantAPIErr {
				if !errors.As(err, &apiErr) {
					t.Fatalf("Do() error = %v, want *APIError", err)
				}
				if apiErr.StatusCode != tt.status {
					t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("errors.Is(%v, %v) = false", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			if (resp.Envelope != nil) != tt.wantEnv {
				t.Errorf("Envelope present = %v, want %v", resp.Envelope != nil, tt.wantEnv)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestClient_Do_401MessageFromEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderRequestID, "req-9")
		w.WriteHeader(401)
		w.Write([]byte(`{"status":"ERROR","error":"token revoked"}`))
	}, nil)

	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Message != "token revoked" || apiErr.RequestID != "req-9" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestClient_Do_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/contacts"})
	var netErr *apierrors.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %T: %v", err, err)
	}
	if netErr.Attempt != 1 {
		t.Errorf("Attempt = %d, want 1", netErr.Attempt)
	}
}

func TestClient_Do_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(503)
	}, nil)

	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClient_Do_RetriesGatewayErrorsOnGet(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(502)
			return
		}
		w.Write([]byte(`{"status":"SUCCESS"}`))
	}, func(cfg *Config) {
		cfg.Retry = DefaultRetryConfig(3)
		cfg.Retry.BaseDelay = time.Millisecond
		cfg.Retry.Jitter = 0
	})

	resp, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if resp.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", resp.Attempts)
	}
}

func TestClient_Do_NeverRetriesMutations(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(503)
	}, func(cfg *Config) {
		cfg.Retry = DefaultRetryConfig(3)
		cfg.Retry.BaseDelay = time.Millisecond
	})

	_, _ = client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/x", Body: map[string]bool{"active": true}})
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClient_Do_SendsJSONBody(t *testing.T) {
	var body string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Write([]byte(`{"status":"SUCCESS","message":"ok"}`))
	}, nil)

	_, err := client.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/newsletters/subscribe",
		Body:   map[string]string{"email": "a@b.co"},
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if body != `{"email":"a@b.co"}` {
		t.Errorf("body = %q", body)
	}
}

func TestClient_Do_RateLimiterHonoursContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"SUCCESS"}`))
	}, func(cfg *Config) {
		cfg.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	})

	if _, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}); err != nil {
		t.Fatalf("first Do() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Do(ctx, Request{Method: http.MethodGet, Path: "/x"})
	var netErr *apierrors.NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("expected *NetworkError from limiter wait, got %v", err)
	}
}
