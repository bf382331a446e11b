package keys

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mrz1836/cordon/internal/cordoncrypto"
)

// SolanaCoinType is the BIP44 coin type registered for Solana.
const SolanaCoinType = 501

// SolanaDerivationPath is the fixed SLIP-0010 path Cordon derives every
// Solana account from: m/44'/501'/0'/0'.
const SolanaDerivationPath = "m/44'/501'/0'/0'"

// SolanaKeyPair holds the derived Solana signing material. PrivateKey must
// be zeroed by the caller once signing is complete.
type SolanaKeyPair struct {
	// Address is the base58-encoded public key.
	Address string
	// PrivateKey is the 64-byte expanded Ed25519 key (seed || public key).
	PrivateKey ed25519.PrivateKey
}

// DeriveSolanaKeyPair derives the single Solana account Cordon supports per
// wallet, at m/44'/501'/0'/0' via SLIP-0010, from a BIP39 seed. It is a
// pure function: identical seeds always yield identical output, and it
// shares no state with DeriveEVMKeyPair — a single mnemonic yields both
// addresses independently.
func DeriveSolanaKeyPair(seed []byte) (*SolanaKeyPair, error) {
	ed25519Seed, err := cordoncrypto.DeriveSLIP10Ed25519(seed, 44, SolanaCoinType, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("deriving SLIP-0010 seed: %w", err)
	}
	defer cordoncrypto.Zero(ed25519Seed[:])

	priv := cordoncrypto.Ed25519KeyFromSeed(ed25519Seed)
	pub := priv.Public().(ed25519.PublicKey) //nolint:forcetypeassert // ed25519.PrivateKey.Public always returns ed25519.PublicKey

	return &SolanaKeyPair{
		Address:    cordoncrypto.Base58Encode(pub),
		PrivateKey: priv,
	}, nil
}
