package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mrz1836/cordon/internal/session"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// EnableSessionCache turns on the opt-in TTL cache for this vault's
// decrypted mnemonic map, backed by mgr (typically
// session.NewManager(basePath, nil)). The cache is off by default; callers
// that never call this keep vault state process-local and in-memory only.
func (v *Vault) EnableSessionCache(mgr session.Manager, ttl time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.sessionCache = mgr
	v.sessionTTL = ttl
}

// CacheSession persists the vault's current decrypted secrets into the
// session cache, clamped to [session.MinTTL, session.MaxTTL]. A no-op,
// successful return if no cache was enabled or the vault is locked.
func (v *Vault) CacheSession() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.sessionCache == nil || !v.unlocked {
		return nil
	}

	body, err := json.Marshal(secretsBody{Mnemonics: v.decryptedSecrets})
	if err != nil {
		return fmt.Errorf("marshaling session secrets: %w", err)
	}

	return v.sessionCache.StartSession(v.sessionID(), body, v.sessionTTL)
}

// UnlockFromSessionCache restores the vault's decrypted secrets from an
// active session cache entry without the PIN, returning false if no cache
// is enabled, the keyring is unavailable, or no valid session exists.
// Unlocking an already-unlocked vault is a no-op success.
func (v *Vault) UnlockFromSessionCache() (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.unlocked {
		return true, nil
	}
	if v.sessionCache == nil {
		return false, nil
	}

	body, _, err := v.sessionCache.GetSession(v.sessionID())
	if err != nil {
		if cordonerrors.Is(err, session.ErrSessionNotFound) || cordonerrors.Is(err, session.ErrSessionExpired) {
			return false, nil
		}
		return false, err
	}

	var parsed secretsBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, fmt.Errorf("parsing cached vault secrets: %w", err)
	}

	state, err := v.read()
	if err != nil {
		return false, err
	}

	v.decryptedSecrets = parsed.Mnemonics
	v.pinHash = []byte(state.PinHash)
	v.unlocked = true

	v.logger.Info("vault_unlocked_from_session_cache")

	return true, nil
}

// EndSessionCache drops any cached session for this vault, forcing the
// next unlock to require the PIN again.
func (v *Vault) EndSessionCache() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.sessionCache == nil {
		return nil
	}
	return v.sessionCache.EndSession(v.sessionID())
}

// sessionID derives a stable, keyring/filename-safe identifier for this
// vault's session cache entries from its on-disk path. Must be called with
// v.mu held.
func (v *Vault) sessionID() string {
	sum := sha256.Sum256([]byte(v.path))
	return hex.EncodeToString(sum[:])
}
