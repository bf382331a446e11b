// Package cordoncrypto collects the cryptographic primitives shared by the
// vault, key derivation, and signer packages: vault-at-rest encryption,
// EVM/Solana key derivation building blocks, and address encoding.
package cordoncrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// VaultVersion is the wire-format version stamped on every EncryptedVault.
const VaultVersion = 1

// PBKDF2 parameters mandated for the vault's at-rest key derivation. These
// are not configurable: changing the iteration count would silently change
// the format of every vault already written to disk.
const (
	pbkdf2Iterations = 150_000
	pbkdf2KeyLen     = 32 // AES-256
	saltLen          = 16
	gcmNonceLen      = 12
)

// ErrDecryptionFailed covers both a wrong PIN and a tampered ciphertext;
// the two are intentionally indistinguishable to callers.
var ErrDecryptionFailed = errors.New("vault decryption failed")

// EncryptedVault is the exact on-disk wire format for the vault blob: a
// version tag, the PBKDF2 salt (16 bytes, 32 hex chars), the GCM nonce
// ("iv", 12 bytes, 24 hex chars), and the AES-256-GCM ciphertext (which
// carries its own authentication tag as its final 16 bytes). All byte
// fields are hex-encoded for JSON transport — this is the exact secure-store
// wire format, not an internal choice.
type EncryptedVault struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
}

// deriveVaultKey stretches pin into a 32-byte AES key using PBKDF2-SHA256.
func deriveVaultKey(pin string, salt []byte) []byte {
	return pbkdf2.Key([]byte(pin), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
}

// SealVault encrypts plaintext (the serialized vault body) under pin,
// producing a fresh random salt and nonce each call.
func SealVault(pin string, plaintext []byte) (*EncryptedVault, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	key := deriveVaultKey(pin, salt)
	defer Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("constructing cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("constructing GCM: %w", err)
	}

	nonce := make([]byte, gcmNonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	return &EncryptedVault{
		Version:    VaultVersion,
		Salt:       hex.EncodeToString(salt),
		IV:         hex.EncodeToString(nonce),
		Ciphertext: hex.EncodeToString(ciphertext),
	}, nil
}

// OpenVault decrypts an EncryptedVault under pin, returning the plaintext
// vault body. A wrong PIN and a tampered ciphertext both surface as
// ErrDecryptionFailed.
func OpenVault(pin string, vault *EncryptedVault) ([]byte, error) {
	if vault.Version != VaultVersion {
		return nil, fmt.Errorf("%w: unsupported vault version %d", ErrDecryptionFailed, vault.Version)
	}

	salt, err := hex.DecodeString(vault.Salt)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	nonce, err := hex.DecodeString(vault.IV)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	ciphertext, err := hex.DecodeString(vault.Ciphertext)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	key := deriveVaultKey(pin, salt)
	defer Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

// HashPIN computes a plain SHA-256 digest of pin for the lockscreen's
// non-cryptographic equality check. This is intentionally NOT PBKDF2: it
// exists only so the lock screen can compare a re-entered PIN against the
// last-unlock value without touching the vault blob, never as a stand-in
// for the vault's actual key derivation.
func HashPIN(pin string) []byte {
	sum := sha256.Sum256([]byte(pin))
	return sum[:]
}

// ConstantTimeEqual reports whether a and b are equal using a constant-time
// comparison, for PIN-hash and HMAC verification.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Zero overwrites data with zero bytes in place. Callers defer this on any
// buffer holding key material, a mnemonic, or a PIN-derived key.
func Zero(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
