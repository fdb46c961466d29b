package rojifi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin@rojifi.com",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSessionManager_StartReadsJWTExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	mgr := NewSessionManager(&memStore{})

	sess, err := mgr.Start(context.Background(), signedToken(t, exp),
		WithTokenExpiry(time.Now().Add(10*time.Minute)))
	require.NoError(t, err)

	assert.True(t, sess.ExpiresAt().Equal(exp))
	assert.NotEmpty(t, sess.DeviceID())
	assert.NotEmpty(t, sess.PublicKey())
}

func TestSessionManager_StartRejectsExpiredToken(t *testing.T) {
	mgr := NewSessionManager(&memStore{})

	_, err := mgr.Start(context.Background(), signedToken(t, time.Now().Add(-time.Minute)))
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionManager_StartOpaqueToken(t *testing.T) {
	store := &memStore{}
	mgr := NewSessionManager(store)

	sess, err := mgr.Start(context.Background(), "  opaque-token  ")
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", sess.BearerToken())
	assert.True(t, sess.ExpiresAt().IsZero())

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, stored.HasCredentials())
	assert.Equal(t, sess.DeviceID(), stored.DeviceID)
}

func TestSessionManager_StartRequiresToken(t *testing.T) {
	_, err := NewSessionManager(&memStore{}).Start(context.Background(), "   ")
	assert.Error(t, err)
}

func TestSessionManager_StartSaveFailure(t *testing.T) {
	mgr := NewSessionManager(&memStore{saveErr: errors.New("disk full")})

	_, err := mgr.Start(context.Background(), "opaque-token")
	require.Error(t, err)

	_, err = mgr.Current()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionManager_ReusesDeviceID(t *testing.T) {
	store := &memStore{s: &StoredSession{DeviceID: "device-42"}}
	mgr := NewSessionManager(store)

	first, err := mgr.Start(context.Background(), "token-a")
	require.NoError(t, err)
	second, err := mgr.Start(context.Background(), "token-b")
	require.NoError(t, err)

	assert.Equal(t, "device-42", first.DeviceID())
	assert.Equal(t, "device-42", second.DeviceID())
	assert.NotEqual(t, first.PublicKey(), second.PublicKey())
}

func TestSessionManager_Resume(t *testing.T) {
	store := &memStore{}
	started, err := NewSessionManager(store).Start(context.Background(), "token-1")
	require.NoError(t, err)

	mgr := NewSessionManager(store)
	resumed, err := mgr.Resume(context.Background())
	require.NoError(t, err)

	assert.Equal(t, started.DeviceID(), resumed.DeviceID())
	assert.Equal(t, started.PublicKey(), resumed.PublicKey())
	assert.Equal(t, started.Fingerprint(), resumed.Fingerprint())

	current, err := mgr.Current()
	require.NoError(t, err)
	assert.Same(t, resumed, current)
}

func TestSessionManager_ResumeWithoutSession(t *testing.T) {
	_, err := NewSessionManager(&memStore{}).Resume(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = NewSessionManager(&memStore{s: &StoredSession{DeviceID: "device-1"}}).Resume(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionManager_ExpiryFollowsClock(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	store := &memStore{}
	mgr := NewSessionManager(store, WithClock(clock))

	_, err := mgr.Start(context.Background(), "token-1", WithTokenExpiry(now.Add(time.Hour)))
	require.NoError(t, err)

	_, err = mgr.Current()
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = mgr.Current()
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = NewSessionManager(store, WithClock(clock)).Resume(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionManager_End(t *testing.T) {
	store := &memStore{}
	mgr := NewSessionManager(store)
	sess, err := mgr.Start(context.Background(), "token-1")
	require.NoError(t, err)

	require.NoError(t, mgr.End(context.Background()))

	_, err = mgr.Current()
	assert.ErrorIs(t, err, ErrNoSession)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess.DeviceID(), stored.DeviceID)
	assert.False(t, stored.HasCredentials())
}

func TestSessionManager_Invalidate(t *testing.T) {
	store := &memStore{}
	mgr := NewSessionManager(store)
	_, err := mgr.Start(context.Background(), "token-1")
	require.NoError(t, err)

	mgr.Invalidate()
	mgr.Invalidate()

	_, err = mgr.Current()
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = mgr.Resume(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()

	noExpiry, err := NewSession("device-1", "token", time.Time{})
	require.NoError(t, err)
	assert.False(t, noExpiry.Expired(now))

	noToken, err := NewSession("device-1", "", time.Time{})
	require.NoError(t, err)
	assert.True(t, noToken.Expired(now))

	bounded, err := NewSession("device-1", "token", now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, bounded.Expired(now))
	assert.True(t, bounded.Expired(now.Add(time.Minute)))
}

func TestNewSession_RequiresDeviceID(t *testing.T) {
	_, err := NewSession("", "token", time.Time{})
	assert.Error(t, err)
}

func TestStaticSession(t *testing.T) {
	_, err := StaticSession{}.Current()
	assert.ErrorIs(t, err, ErrNoSession)

	expired, err := NewSession("device-1", "token", time.Now().Add(-time.Second))
	require.NoError(t, err)
	_, err = StaticSession{Session: expired}.Current()
	assert.ErrorIs(t, err, ErrSessionExpired)

	live := newTestSession(t)
	got, err := StaticSession{Session: live}.Current()
	require.NoError(t, err)
	assert.Same(t, live, got)
}
