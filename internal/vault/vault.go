// Package vault implements Cordon's encrypted multi-wallet store: create,
// unlock, lock, add-wallet, mnemonic retrieval, and deletion, matching the
// on-disk EncryptedVault wire format in internal/cordoncrypto. All
// persistence uses read-modify-rewrite with atomic replacement, so a
// failed write never corrupts the prior vault. A vault is process-local and
// in-memory once unlocked unless a caller opts into the additive TTL
// session cache (internal/session) via EnableSessionCache.
package vault

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/cordon/internal/cordoncrypto"
	"github.com/mrz1836/cordon/internal/cordonlog"
	"github.com/mrz1836/cordon/internal/fileutil"
	"github.com/mrz1836/cordon/internal/keys"
	"github.com/mrz1836/cordon/internal/session"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

const (
	vaultFilePermissions = 0o600
	vaultDirPermissions  = 0o750
)

// WalletRecord is the plaintext metadata stored outside the encrypted
// blob, so the wallet list renders while the vault is locked.
type WalletRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	EVMAddress    string    `json:"evmAddress"`
	SolanaAddress string    `json:"solanaAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}

// secretsBody is the plaintext sealed inside EncryptedVault: a map from
// walletId to mnemonic.
type secretsBody struct {
	Mnemonics map[string]string `json:"mnemonics"`
}

// diskState is the full on-disk vault file.
type diskState struct {
	EncryptedVault *cordoncrypto.EncryptedVault `json:"encryptedVault"`
	Wallets        []WalletRecord               `json:"wallets"`
	ActiveWalletID string                       `json:"activeWalletId"`
	PinHash        string                       `json:"pinHash"`
}

// Vault is the single encrypted store for every wallet on the device. All
// mutation is serialized through a single mutex; concurrent unlocks of an
// already-unlocked vault are idempotent.
type Vault struct {
	mu   sync.Mutex
	path string

	unlocked         bool
	decryptedSecrets map[string]string // walletId -> mnemonic, empty iff locked
	pinHash          []byte

	// sessionCache is nil unless EnableSessionCache was called; the vault
	// otherwise never touches the session package at all.
	sessionCache session.Manager
	sessionTTL   time.Duration

	logger *cordonlog.Logger
}

// New returns a Vault backed by the file at path. The vault starts locked;
// callers must Unlock (an existing vault) or CreateVault (a fresh one)
// before any mnemonic is reachable.
func New(path string) *Vault {
	return &Vault{path: path, logger: cordonlog.Null()}
}

// SetLogger attaches logger for vault lifecycle events (create, unlock,
// lock, add-wallet). A vault with no logger attached emits nothing.
func (v *Vault) SetLogger(logger *cordonlog.Logger) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logger = logger
}

// Exists reports whether a vault file is already present at the
// configured path.
func (v *Vault) Exists() bool {
	_, err := os.Stat(v.path)
	return err == nil
}

// Wallets returns the plaintext wallet metadata, readable whether the
// vault is locked or unlocked.
func (v *Vault) Wallets() ([]WalletRecord, error) {
	state, err := v.read()
	if err != nil {
		return nil, err
	}
	return state.Wallets, nil
}

// IsUnlocked reports the vault's current in-memory lock state.
func (v *Vault) IsUnlocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.unlocked
}

// CreateVault derives the wallet's addresses from mnemonic, seals the
// secrets map under pin, and persists the vault for the first time. The
// vault transitions to unlocked on success.
func (v *Vault) CreateVault(mnemonic, name, pin string) (*WalletRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.Exists() {
		return nil, cordonerrors.New(cordonerrors.CodeUnknown, "vault already exists")
	}

	normalized := cordoncrypto.NormalizeMnemonic(mnemonic)
	if !cordoncrypto.ValidateMnemonic(normalized) {
		return nil, invalidMnemonicError(normalized)
	}

	record, err := v.newWalletRecord(normalized, name)
	if err != nil {
		return nil, err
	}

	secrets := map[string]string{record.ID: normalized}
	encrypted, err := v.seal(pin, secrets)
	if err != nil {
		return nil, err
	}

	state := diskState{
		EncryptedVault: encrypted,
		Wallets:        []WalletRecord{*record},
		ActiveWalletID: record.ID,
		PinHash:        hashPINHex(pin),
	}

	if err := v.write(state); err != nil {
		return nil, err
	}

	v.decryptedSecrets = secrets
	v.pinHash = cordoncrypto.HashPIN(pin)
	v.unlocked = true

	v.logger.Info("vault_created", slog.String("wallet_id", record.ID))

	return record, nil
}

// Unlock decrypts the vault's secrets map under pin. A wrong PIN or
// tampered ciphertext both return (false, nil) — the two are
// indistinguishable by design. Unlocking an already-unlocked vault is a
// no-op success (idempotent concurrent unlocks).
func (v *Vault) Unlock(pin string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.unlocked {
		return true, nil
	}

	state, err := v.read()
	if err != nil {
		return false, err
	}
	if state.EncryptedVault == nil {
		return false, cordonerrors.New(cordonerrors.CodeUnknown, "no vault to unlock")
	}

	plaintext, err := cordoncrypto.OpenVault(pin, state.EncryptedVault)
	if err != nil {
		v.logger.Warn("vault_unlock_failed")
		return false, nil
	}
	defer cordoncrypto.Zero(plaintext)

	var body secretsBody
	if err := json.Unmarshal(plaintext, &body); err != nil {
		return false, fmt.Errorf("parsing decrypted vault body: %w", err)
	}

	v.decryptedSecrets = body.Mnemonics
	v.pinHash = cordoncrypto.HashPIN(pin)
	v.unlocked = true

	v.logger.Info("vault_unlocked")

	return true, nil
}

// Lock zeroes the in-memory secrets and flips unlocked to false. It never
// touches persistent storage.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Go strings are immutable, so mnemonics held as map values can't be
	// zeroed in place; dropping every reference is the best this
	// representation can do. The byte-level material that matters most
	// (derived seeds and private keys) is zeroed via cordoncrypto.Zero on
	// every path in internal/keys.
	v.decryptedSecrets = nil
	cordoncrypto.Zero(v.pinHash)
	v.pinHash = nil
	v.unlocked = false

	v.logger.Info("vault_locked")
}

// AddWallet derives a new wallet from mnemonic, re-encrypts the secrets
// map under a fresh salt/nonce (preserving the PBKDF2 work factor, which
// is fixed), and appends its WalletRecord. Requires the vault to be
// unlocked.
func (v *Vault) AddWallet(mnemonic, name, pin string) (*WalletRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.unlocked {
		return nil, cordonerrors.ErrWalletLocked
	}

	normalized := cordoncrypto.NormalizeMnemonic(mnemonic)
	if !cordoncrypto.ValidateMnemonic(normalized) {
		return nil, invalidMnemonicError(normalized)
	}

	record, err := v.newWalletRecord(normalized, name)
	if err != nil {
		return nil, err
	}

	state, err := v.read()
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(v.decryptedSecrets)+1)
	for id, m := range v.decryptedSecrets {
		merged[id] = m
	}
	merged[record.ID] = normalized

	encrypted, err := v.seal(pin, merged)
	if err != nil {
		return nil, err
	}

	state.EncryptedVault = encrypted
	state.Wallets = append(state.Wallets, *record)
	state.ActiveWalletID = record.ID

	if err := v.write(state); err != nil {
		return nil, err
	}

	v.decryptedSecrets = merged

	v.logger.Info("wallet_added", slog.String("wallet_id", record.ID))

	return record, nil
}

// GetMnemonic returns the mnemonic for walletId. Returns ErrWalletLocked
// if the vault is locked, or a not-found error if walletId is unknown.
func (v *Vault) GetMnemonic(walletID string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.unlocked {
		return "", cordonerrors.ErrWalletLocked
	}

	mnemonic, ok := v.decryptedSecrets[walletID]
	if !ok {
		return "", cordonerrors.New(cordonerrors.CodeUnknown, "unknown wallet id: "+walletID)
	}
	return mnemonic, nil
}

// DeriveKeys returns the EVM/Solana keypairs for walletId, requiring the
// vault to be unlocked. Callers must call WalletKeys.Zero when signing is
// complete.
func (v *Vault) DeriveKeys(walletID string) (*keys.WalletKeys, error) {
	mnemonic, err := v.GetMnemonic(walletID)
	if err != nil {
		return nil, err
	}
	return keys.DeriveWalletKeys(mnemonic)
}

// DeleteVault irreversibly removes the vault file, which holds both the
// encrypted blob and the wallet metadata.
func (v *Vault) DeleteVault() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.decryptedSecrets = nil
	cordoncrypto.Zero(v.pinHash)
	v.pinHash = nil
	v.unlocked = false

	if err := os.Remove(v.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing vault file: %w", err)
	}

	v.logger.Warn("vault_deleted")

	return nil
}

func (v *Vault) newWalletRecord(mnemonic, name string) (*WalletRecord, error) {
	wk, err := keys.DeriveWalletKeys(mnemonic)
	if err != nil {
		return nil, err
	}
	defer wk.Zero()

	return &WalletRecord{
		ID:            uuid.NewString(),
		Name:          name,
		EVMAddress:    wk.EVM.Address,
		SolanaAddress: wk.Solana.Address,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (v *Vault) seal(pin string, secrets map[string]string) (*cordoncrypto.EncryptedVault, error) {
	plaintext, err := json.Marshal(secretsBody{Mnemonics: secrets})
	if err != nil {
		return nil, fmt.Errorf("marshaling vault body: %w", err)
	}
	defer cordoncrypto.Zero(plaintext)

	return cordoncrypto.SealVault(pin, plaintext)
}

func (v *Vault) read() (diskState, error) {
	data, err := os.ReadFile(v.path) //nolint:gosec // G304: path is operator-configured, not user input
	if os.IsNotExist(err) {
		return diskState{}, nil
	}
	if err != nil {
		return diskState{}, fmt.Errorf("reading vault file: %w", err)
	}

	var state diskState
	if err := json.Unmarshal(data, &state); err != nil {
		return diskState{}, fmt.Errorf("parsing vault file: %w", err)
	}
	return state, nil
}

// write persists state atomically: a failed write leaves the prior vault
// file untouched.
func (v *Vault) write(state diskState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling vault file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(v.path), vaultDirPermissions); err != nil {
		return fmt.Errorf("creating vault directory: %w", err)
	}

	return fileutil.WriteAtomic(v.path, data, vaultFilePermissions)
}

func hashPINHex(pin string) string {
	sum := cordoncrypto.HashPIN(pin)
	return fmt.Sprintf("%x", sum)
}

// invalidMnemonicError wraps ErrInvalidMnemonic with a per-word typo
// suggestion when the rejected phrase has one or more words outside the
// BIP39 list, so a caller can show "word 3: 'wolrd' — did you mean
// 'world'?" instead of a bare rejection.
func invalidMnemonicError(mnemonic string) error {
	typos := cordoncrypto.DetectTypos(mnemonic)
	if len(typos) == 0 {
		return cordonerrors.ErrInvalidMnemonic
	}

	var b strings.Builder
	for i, t := range typos {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "word %d: %q", t.Index+1, t.Word)
		if t.Suggestion != "" {
			fmt.Fprintf(&b, " (did you mean %q?)", t.Suggestion)
		}
	}

	return cordonerrors.WithSuggestion(cordonerrors.ErrInvalidMnemonic, b.String())
}
