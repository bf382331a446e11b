package vault_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cordon/internal/session"
	"github.com/mrz1836/cordon/internal/vault"
)

// memSessionCache is an in-memory session.Manager stand-in, avoiding any
// dependency on a real OS keyring for these tests.
type memSessionCache struct {
	mu       sync.Mutex
	entries  map[string][]byte
	sessions map[string]*session.Session
}

func newMemSessionCache() *memSessionCache {
	return &memSessionCache{
		entries:  make(map[string][]byte),
		sessions: make(map[string]*session.Session),
	}
}

func (c *memSessionCache) Available() bool { return true }

func (c *memSessionCache) StartSession(vaultID string, secrets []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[vaultID] = secrets
	c.sessions[vaultID] = &session.Session{VaultID: vaultID, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *memSessionCache) GetSession(vaultID string) ([]byte, *session.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[vaultID]
	if !ok {
		return nil, nil, session.ErrSessionNotFound
	}
	if !sess.IsValid() {
		return nil, nil, session.ErrSessionExpired
	}
	return c.entries[vaultID], sess, nil
}

func (c *memSessionCache) HasValidSession(vaultID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[vaultID]
	return ok && sess.IsValid()
}

func (c *memSessionCache) EndSession(vaultID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, vaultID)
	delete(c.sessions, vaultID)
	return nil
}

func (c *memSessionCache) EndAllSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.sessions)
	c.entries = make(map[string][]byte)
	c.sessions = make(map[string]*session.Session)
	return n
}

func (c *memSessionCache) ListSessions() ([]*session.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*session.Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s)
	}
	return out, nil
}

func TestSessionCache_RoundTripsAcrossLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cordon.vault")
	v := vault.New(path)
	cache := newMemSessionCache()
	v.EnableSessionCache(cache, 15*time.Minute)

	mnemonic := testMnemonic(t)
	record, err := v.CreateVault(mnemonic, "primary", "123456")
	require.NoError(t, err)

	require.NoError(t, v.CacheSession())

	v.Lock()
	assert.False(t, v.IsUnlocked())

	restored, err := v.UnlockFromSessionCache()
	require.NoError(t, err)
	assert.True(t, restored)
	assert.True(t, v.IsUnlocked())

	got, err := v.GetMnemonic(record.ID)
	require.NoError(t, err)
	assert.Equal(t, mnemonic, got)
}

func TestSessionCache_UnlockFromCache_NoCacheEnabled(t *testing.T) {
	t.Parallel()

	v := newVault(t)
	mnemonic := testMnemonic(t)
	_, err := v.CreateVault(mnemonic, "primary", "123456")
	require.NoError(t, err)
	v.Lock()

	restored, err := v.UnlockFromSessionCache()
	require.NoError(t, err)
	assert.False(t, restored)
	assert.False(t, v.IsUnlocked())
}

func TestSessionCache_EndSessionCache_ForcesRequiredPIN(t *testing.T) {
	t.Parallel()

	v := vault.New(filepath.Join(t.TempDir(), "cordon.vault"))
	cache := newMemSessionCache()
	v.EnableSessionCache(cache, 15*time.Minute)

	mnemonic := testMnemonic(t)
	_, err := v.CreateVault(mnemonic, "primary", "123456")
	require.NoError(t, err)
	require.NoError(t, v.CacheSession())

	require.NoError(t, v.EndSessionCache())
	v.Lock()

	restored, err := v.UnlockFromSessionCache()
	require.NoError(t, err)
	assert.False(t, restored)
}
