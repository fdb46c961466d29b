package rojifi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/api"
	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/crypto"
)

// memStore is an in-memory SessionStore for tests.
type memStore struct {
	mu      sync.Mutex
	s       *StoredSession
	saveErr error
}

func (m *memStore) Load(context.Context) (*StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, ErrNoSession
	}
	cp := *m.s
	return &cp, nil
}

func (m *memStore) Save(_ context.Context, s *StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *s
	m.s = &cp
	return nil
}

func (m *memStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s != nil {
		m.s = &StoredSession{DeviceID: m.s.DeviceID}
	}
	return nil
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	sess, err := NewSession("device-1", "token-1", time.Time{})
	require.NoError(t, err)
	return sess
}

// sealedEnvelope encrypts v for publicKey the way the server does.
func sealedEnvelope(t *testing.T, publicKey string, v any) *Envelope {
	t.Helper()
	plaintext, err := json.Marshal(v)
	require.NoError(t, err)
	data, handshake, err := crypto.Seal(publicKey, plaintext)
	require.NoError(t, err)
	blob, err := json.Marshal(data)
	require.NoError(t, err)
	return &Envelope{Status: EnvelopeSuccess, Data: blob, Handshake: handshake}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newTestClient starts h on an httptest server and returns a client bound to
// a fresh static session.
func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *Session) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	sess := newTestSession(t)
	c, err := New(StaticSession{Session: sess}, append([]Option{WithBaseURL(srv.URL)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, sess
}

// sealHandler replies to every request with v sealed for the caller's key.
func sealHandler(t *testing.T, v any, pagination *Pagination) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := sealedEnvelope(t, r.Header.Get(api.HeaderHandshake), v)
		env.Pagination = pagination
		writeJSON(w, http.StatusOK, env)
	}
}
