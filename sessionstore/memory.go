package sessionstore

import (
	"context"
	"sync"

	rojifi "github.com/AntimonyIQ/rojifiadmin-sub001"
)

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	session *rojifi.StoredSession
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements rojifi.SessionStore.
func (m *MemoryStore) Load(ctx context.Context) (*rojifi.StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, rojifi.ErrNoSession
	}
	return clone(m.session), nil
}

// Save implements rojifi.SessionStore.
func (m *MemoryStore) Save(ctx context.Context, s *rojifi.StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = clone(s)
	return nil
}

// Clear implements rojifi.SessionStore.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session = &rojifi.StoredSession{DeviceID: m.session.DeviceID}
	}
	return nil
}

func clone(s *rojifi.StoredSession) *rojifi.StoredSession {
	out := *s
	if s.SecretKey != nil {
		out.SecretKey = append([]byte(nil), s.SecretKey...)
	}
	return &out
}
