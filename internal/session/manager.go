package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/mrz1836/cordon/internal/fileutil"
)

// vaultIDRegex bounds the identifiers this package will ever write to a
// filename or keyring entry.
var vaultIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// errInvalidVaultID is returned when a vault identifier fails validation.
var errInvalidVaultID = fmt.Errorf("invalid vault id")

const (
	// sessionFileExtension is the extension for session files.
	sessionFileExtension = ".session"

	// sessionFilePermissions is the permission mode for session files.
	sessionFilePermissions = 0o600

	// sessionDirPermissions is the permission mode for the sessions directory.
	sessionDirPermissions = 0o700

	// sessionKeyLength is the length of the random session key in bytes.
	sessionKeyLength = 32
)

// sessionFile represents the encrypted session file structure.
type sessionFile struct {
	// Session contains the session metadata.
	Session *Session `json:"session"`

	// EncryptedSecrets is the session-key-encrypted mnemonic map bytes.
	EncryptedSecrets []byte `json:"encrypted_secrets"`
}

// FileManager implements the Manager interface using files and OS keyring.
type FileManager struct {
	basePath  string
	keyring   Keyring
	available bool
	mu        sync.RWMutex
}

// NewManager creates a new session manager.
// If keyring is nil, it uses the OS keyring.
// The manager probes the keyring on creation to determine availability.
func NewManager(basePath string, keyring Keyring) *FileManager {
	if keyring == nil {
		keyring = NewOSKeyring()
	}

	m := &FileManager{
		basePath:  basePath,
		keyring:   keyring,
		available: false,
	}

	// Probe keyring availability
	m.available = m.probeKeyring()

	return m
}

// Available returns true if session caching is available.
func (m *FileManager) Available() bool {
	return m.available
}

// StartSession creates a new session caching secrets for vaultID.
//
//nolint:gocyclo // Sequential validation and error-handling steps are inherent to the operation
func (m *FileManager) StartSession(vaultID string, secrets []byte, ttl time.Duration) error {
	if !vaultIDRegex.MatchString(vaultID) {
		return errInvalidVaultID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return ErrKeyringUnavailable
	}

	// Validate TTL
	if ttl < MinTTL {
		ttl = MinTTL
	}
	if ttl > MaxTTL {
		ttl = MaxTTL
	}

	// Generate a random session key
	sessionKey := make([]byte, sessionKeyLength)
	if _, err := rand.Read(sessionKey); err != nil {
		return fmt.Errorf("generating session key: %w", err)
	}
	defer zeroBytes(sessionKey)

	// Encrypt the secrets with the session key
	encryptedSecrets, err := sealWithKey(sessionKey, secrets)
	if err != nil {
		return fmt.Errorf("encrypting session secrets: %w", err)
	}

	// Store the session key in the keyring
	keyringKey := m.keyringKey(vaultID)
	encodedKey := base64.StdEncoding.EncodeToString(sessionKey)
	if setErr := m.keyring.Set(ServiceName, keyringKey, encodedKey); setErr != nil {
		return fmt.Errorf("storing session key in keyring: %w", setErr)
	}

	// Create session metadata
	now := time.Now()
	session := &Session{
		VaultID:   vaultID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	// Create session file structure
	sf := sessionFile{
		Session:          session,
		EncryptedSecrets: encryptedSecrets,
	}

	// Ensure sessions directory exists
	if mkdirErr := os.MkdirAll(m.basePath, sessionDirPermissions); mkdirErr != nil {
		// Clean up keyring entry on failure
		_ = m.keyring.Delete(ServiceName, keyringKey)
		return fmt.Errorf("creating sessions directory: %w", mkdirErr)
	}

	// Write session file
	data, marshalErr := json.MarshalIndent(sf, "", "  ")
	if marshalErr != nil {
		_ = m.keyring.Delete(ServiceName, keyringKey)
		return fmt.Errorf("marshaling session: %w", marshalErr)
	}

	sessionPath := m.sessionPath(vaultID)
	if writeErr := fileutil.WriteAtomic(sessionPath, data, sessionFilePermissions); writeErr != nil {
		_ = m.keyring.Delete(ServiceName, keyringKey)
		return fmt.Errorf("writing session file: %w", writeErr)
	}

	return nil
}

// GetSession retrieves the decrypted secrets for an active session.
func (m *FileManager) GetSession(vaultID string) ([]byte, *Session, error) {
	if !vaultIDRegex.MatchString(vaultID) {
		return nil, nil, errInvalidVaultID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.available {
		return nil, nil, ErrKeyringUnavailable
	}

	// Read session file
	sessionPath := m.sessionPath(vaultID)
	// SECURITY: Path is safe because sessionPath uses filepath.Join
	// and vaultID is validated against vaultIDRegex above
	//nolint:gosec // G304: Path constructed from internal session path
	data, err := os.ReadFile(sessionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("reading session file: %w", err)
	}

	// Parse session file
	var sf sessionFile
	if unmarshalErr := json.Unmarshal(data, &sf); unmarshalErr != nil {
		// Corrupted session file - clean up
		_ = m.cleanupSession(vaultID)
		return nil, nil, ErrSessionCorrupted
	}

	// Check if session has expired
	if !sf.Session.IsValid() {
		_ = m.cleanupSession(vaultID)
		return nil, nil, ErrSessionExpired
	}

	// Get session key from keyring
	keyringKey := m.keyringKey(vaultID)
	encodedKey, getErr := m.keyring.Get(ServiceName, keyringKey)
	if getErr != nil {
		// Keyring entry missing but session file exists - clean up
		_ = m.cleanupSession(vaultID)
		return nil, nil, ErrSessionNotFound
	}

	// Decode and decrypt
	sessionKey, decodeErr := base64.StdEncoding.DecodeString(encodedKey)
	if decodeErr != nil {
		_ = m.cleanupSession(vaultID)
		return nil, nil, ErrSessionCorrupted
	}
	defer zeroBytes(sessionKey)

	secrets, decryptErr := openWithKey(sessionKey, sf.EncryptedSecrets)
	if decryptErr != nil {
		_ = m.cleanupSession(vaultID)
		return nil, nil, ErrSessionCorrupted
	}

	return secrets, sf.Session, nil
}

// HasValidSession returns true if a valid session exists for vaultID.
func (m *FileManager) HasValidSession(vaultID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.available {
		return false
	}

	// Check if session file exists
	sessionPath := m.sessionPath(vaultID)
	//nolint:gosec // G304: Path constructed from internal session path
	data, err := os.ReadFile(sessionPath)
	if err != nil {
		return false
	}

	// Parse and check expiry
	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return false
	}

	return sf.Session.IsValid()
}

// EndSession removes the session for vaultID.
func (m *FileManager) EndSession(vaultID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cleanupSession(vaultID)
}

// EndAllSessions removes all active sessions and returns the count.
func (m *FileManager) EndAllSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.listSessionsLocked()
	if err != nil {
		return 0
	}

	count := 0
	for _, sess := range sessions {
		if cleanupErr := m.cleanupSession(sess.VaultID); cleanupErr == nil {
			count++
		}
	}

	return count
}

// ListSessions returns all active sessions.
func (m *FileManager) ListSessions() ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.listSessionsLocked()
}

// probeKeyringTimeout is the maximum time to wait for a keyring probe.
// Prevents NewManager from blocking if the OS keyring daemon is slow or hung.
const probeKeyringTimeout = 3 * time.Second

// probeKeyring tests if the keyring is available, with a timeout to prevent
// blocking the caller if the OS keyring daemon is unresponsive.
func (m *FileManager) probeKeyring() bool {
	ch := make(chan bool, 1)
	go func() {
		ch <- m.probeKeyringSync()
	}()

	select {
	case result := <-ch:
		return result
	case <-time.After(probeKeyringTimeout):
		return false
	}
}

// probeKeyringSync performs the actual synchronous keyring probe.
func (m *FileManager) probeKeyringSync() bool {
	const (
		testService = "cordon-session-probe"
		testUser    = "probe"
		testValue   = "test"
	)

	// Try to set a test value
	if err := m.keyring.Set(testService, testUser, testValue); err != nil {
		return false
	}

	// Try to get the test value
	val, err := m.keyring.Get(testService, testUser)
	if err != nil || val != testValue {
		_ = m.keyring.Delete(testService, testUser)
		return false
	}

	// Clean up the test value
	if err := m.keyring.Delete(testService, testUser); err != nil {
		return false
	}

	return true
}

// listSessionsLocked returns all active sessions (must be called with lock held).
//
//nolint:gocognit // Iterating sessions requires multiple checks
func (m *FileManager) listSessionsLocked() ([]*Session, error) {
	if !m.available {
		return nil, ErrKeyringUnavailable
	}

	entries, err := os.ReadDir(m.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}

	var sessions []*Session
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, sessionFileExtension) {
			continue
		}

		vaultID := strings.TrimSuffix(name, sessionFileExtension)
		sessionPath := m.sessionPath(vaultID)

		//nolint:gosec // G304: Path constructed from internal session path
		data, readErr := os.ReadFile(sessionPath)
		if readErr != nil {
			continue
		}

		var sf sessionFile
		if unmarshalErr := json.Unmarshal(data, &sf); unmarshalErr != nil {
			continue
		}

		// Only include valid (non-expired) sessions
		if sf.Session.IsValid() {
			sessions = append(sessions, sf.Session)
		}
	}

	return sessions, nil
}

// cleanupSession removes both the session file and keyring entry.
// Must be called with appropriate lock held.
func (m *FileManager) cleanupSession(vaultID string) error {
	keyringKey := m.keyringKey(vaultID)
	sessionPath := m.sessionPath(vaultID)

	// Remove keyring entry (ignore errors)
	_ = m.keyring.Delete(ServiceName, keyringKey)

	// Remove session file
	if err := os.Remove(sessionPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session file: %w", err)
	}

	return nil
}

// keyringKey returns the keyring key for a vault.
func (m *FileManager) keyringKey(vaultID string) string {
	return "vault:" + vaultID
}

// sessionPath returns the full path for a session file.
func (m *FileManager) sessionPath(vaultID string) string {
	path := filepath.Join(m.basePath, vaultID+sessionFileExtension)

	// Defensive check: ensure no directory traversal
	cleanPath := filepath.Clean(path)
	expectedSuffix := string(filepath.Separator) + vaultID + sessionFileExtension
	if !strings.HasSuffix(cleanPath, expectedSuffix) {
		return ""
	}

	return cleanPath
}

// zeroBytes securely zeros a byte slice.
// runtime.KeepAlive prevents the compiler from optimizing away the zeroing
// as a dead store when the slice is not used afterward.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// sealWithKey encrypts plaintext under a raw AES-256-GCM key, prefixing the
// nonce to the returned ciphertext. Unlike the vault's at-rest encryption,
// key is already random (the keyring-stored session key), so no PBKDF2
// stretching is needed here.
func sealWithKey(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("constructing cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("constructing GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// openWithKey decrypts ciphertext produced by sealWithKey under key.
func openWithKey(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("constructing cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("constructing GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, sealed, nil)
}
