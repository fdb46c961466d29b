package rojifi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/crypto"
)

// Session is a read-only handle on the credentials of one logged-in
// session. The private key is reachable only through Decrypter.
type Session struct {
	deviceID  string
	keypair   *crypto.Keypair
	token     string
	expiresAt time.Time
}

// NewSession creates a session with a fresh key pair. A zero expiresAt means
// the token carries no known expiry.
func NewSession(deviceID, token string, expiresAt time.Time) (*Session, error) {
	if deviceID == "" {
		return nil, errors.New("device id is required")
	}
	kp, err := crypto.GenerateKeypair()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Session{deviceID: deviceID, keypair: kp, token: token, expiresAt: expiresAt}, nil
}

// DeviceID returns the stable device identifier.
func (s *Session) DeviceID() string { return s.deviceID }

// PublicKey returns the base64url public key sent in x-rojifi-handshake.
func (s *Session) PublicKey() string { return s.keypair.PublicKeyB64 }

// BearerToken returns the credential sent as Authorization: Bearer.
func (s *Session) BearerToken() string { return s.token }

// ExpiresAt returns the token expiry, or the zero time when unknown.
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

// Expired reports whether the session must no longer issue requests.
func (s *Session) Expired(now time.Time) bool {
	if s.token == "" {
		return true
	}
	return !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}

// Decrypter returns the envelope decrypter bound to this session's key pair.
func (s *Session) Decrypter() Decrypter {
	return keypairDecrypter{keypair: s.keypair}
}

// Fingerprint returns a short hex digest of the public key.
func (s *Session) Fingerprint() string {
	sum := sha256.Sum256(s.keypair.PublicKey)
	return hex.EncodeToString(sum[:8])
}

func (s *Session) stored() *StoredSession {
	sk := make([]byte, len(s.keypair.SecretKey))
	copy(sk, s.keypair.SecretKey)
	return &StoredSession{
		DeviceID:  s.deviceID,
		SecretKey: sk,
		Token:     s.token,
		ExpiresAt: s.expiresAt,
	}
}

// SessionProvider supplies the current session to the client. The client
// only ever reads from it.
type SessionProvider interface {
	Current() (*Session, error)
}

// StaticSession is a SessionProvider that always returns the same session,
// checking expiry on every call.
type StaticSession struct {
	Session *Session
}

// Current implements SessionProvider.
func (p StaticSession) Current() (*Session, error) {
	if p.Session == nil {
		return nil, ErrNoSession
	}
	if p.Session.Expired(time.Now()) {
		return nil, ErrSessionExpired
	}
	return p.Session, nil
}

// StoredSession is the persisted form of a session.
type StoredSession struct {
	DeviceID  string    `json:"deviceId"`
	SecretKey []byte    `json:"secretKey,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// HasCredentials reports whether a token and key are present.
func (s *StoredSession) HasCredentials() bool {
	return s != nil && s.Token != "" && len(s.SecretKey) > 0
}

// SessionStore persists sessions between runs. Load returns ErrNoSession
// when nothing was ever saved. Clear removes the token and key but keeps the
// device id.
type SessionStore interface {
	Load(ctx context.Context) (*StoredSession, error)
	Save(ctx context.Context, s *StoredSession) error
	Clear(ctx context.Context) error
}

// SessionManager owns the session lifecycle: login, resume, logout and
// invalidation on 401. It implements SessionProvider.
type SessionManager struct {
	store  SessionStore
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *Session
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithSessionLogger sets the manager's logger.
func WithSessionLogger(l *zap.Logger) SessionOption {
	return func(m *SessionManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

// NewSessionManager creates a manager backed by store.
func NewSessionManager(store SessionStore, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type startConfig struct {
	expiresAt time.Time
}

// StartOption configures SessionManager.Start.
type StartOption func(*startConfig)

// WithTokenExpiry sets the expiry for tokens that do not carry one.
// An exp claim in a JWT takes precedence.
func WithTokenExpiry(t time.Time) StartOption {
	return func(c *startConfig) {
		c.expiresAt = t
	}
}

// Start creates a session for token with a fresh key pair and persists it.
// The persisted device id is reused when there is one.
func (m *SessionManager) Start(ctx context.Context, token string, opts ...StartOption) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("token is required")
	}

	cfg := startConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	expiresAt := cfg.expiresAt
	if exp, ok := tokenExpiry(token); ok {
		expiresAt = exp
	}
	if !expiresAt.IsZero() && !m.now().Before(expiresAt) {
		return nil, fmt.Errorf("start session: %w", ErrSessionExpired)
	}

	deviceID, err := m.deviceID(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := NewSession(deviceID, token, expiresAt)
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(ctx, sess.stored()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.logger.Info("session started",
		zap.String("device_id", deviceID),
		zap.String("fingerprint", sess.Fingerprint()),
		zap.Time("expires_at", expiresAt))
	return sess, nil
}

func (m *SessionManager) deviceID(ctx context.Context) (string, error) {
	stored, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSession):
		return uuid.NewString(), nil
	case err != nil:
		return "", fmt.Errorf("load session: %w", err)
	case stored.DeviceID == "":
		return uuid.NewString(), nil
	default:
		return stored.DeviceID, nil
	}
}

// Resume restores the persisted session. It returns ErrNoSession when none
// is stored and ErrSessionExpired when the stored one has expired.
func (m *SessionManager) Resume(ctx context.Context) (*Session, error) {
	stored, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !stored.HasCredentials() {
		return nil, ErrNoSession
	}

	kp, err := crypto.KeypairFromSecretKey(stored.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("restore keypair: %w", err)
	}

	sess := &Session{
		deviceID:  stored.DeviceID,
		keypair:   kp,
		token:     stored.Token,
		expiresAt: stored.ExpiresAt,
	}
	if sess.Expired(m.now()) {
		return nil, ErrSessionExpired
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.logger.Debug("session resumed", zap.String("device_id", sess.deviceID))
	return sess, nil
}

// End logs out: the in-memory session is dropped and the stored token and
// key are removed. The device id survives.
func (m *SessionManager) End(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.logger.Info("session ended")
	return nil
}

// Invalidate drops the session after the server rejected it. It is meant
// to be passed to WithUnauthorizedHandler.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	had := m.current != nil
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Clear(context.Background()); err != nil {
		m.logger.Warn("clear invalidated session", zap.Error(err))
	}
	if had {
		m.logger.Info("session invalidated by server")
	}
}

// Current implements SessionProvider.
func (m *SessionManager) Current() (*Session, error) {
	m.mu.RLock()
	sess := m.current
	m.mu.RUnlock()

	if sess == nil {
		return nil, ErrNoSession
	}
	if sess.Expired(m.now()) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// tokenExpiry reads the exp claim of a JWT without verifying the signature.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
