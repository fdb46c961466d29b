package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	rojifi "github.com/AntimonyIQ/rojifiadmin-sub001"
)

// FileStore keeps the session as JSON in a file with mode 0600.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file and its directory
// are created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Load implements rojifi.SessionStore.
func (f *FileStore) Load(ctx context.Context) (*rojifi.StoredSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *FileStore) load() (*rojifi.StoredSession, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, rojifi.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var s rojifi.StoredSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return &s, nil
}

// Save implements rojifi.SessionStore. The file is replaced atomically.
func (f *FileStore) Save(ctx context.Context, s *rojifi.StoredSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(s)
}

func (f *FileStore) write(s *rojifi.StoredSession) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Clear implements rojifi.SessionStore.
func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.load()
	if errors.Is(err, rojifi.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	return f.write(&rojifi.StoredSession{DeviceID: s.DeviceID})
}
