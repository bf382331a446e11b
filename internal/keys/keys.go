package keys

import (
	"github.com/mrz1836/cordon/internal/cordoncrypto"
)

// WalletKeys bundles the EVM and Solana key material derived from a single
// mnemonic. A caller holding WalletKeys must call Zero once signing is
// finished for this operation.
type WalletKeys struct {
	EVM    *EVMKeyPair
	Solana *SolanaKeyPair
}

// Zero overwrites both derived private keys in place.
func (w *WalletKeys) Zero() {
	if w == nil {
		return
	}
	if w.EVM != nil {
		cordoncrypto.Zero(w.EVM.PrivateKeyBytes)
	}
	if w.Solana != nil {
		cordoncrypto.Zero(w.Solana.PrivateKey)
	}
}

// DeriveWalletKeys derives both the EVM and Solana key pairs for a
// normalized, checksum-valid mnemonic in one call: a single mnemonic
// yields both addresses deterministically.
func DeriveWalletKeys(mnemonic string) (*WalletKeys, error) {
	seed, err := cordoncrypto.MnemonicToSeed(mnemonic)
	if err != nil {
		return nil, err
	}
	defer cordoncrypto.Zero(seed)

	evm, err := DeriveEVMKeyPair(seed)
	if err != nil {
		return nil, err
	}

	sol, err := DeriveSolanaKeyPair(seed)
	if err != nil {
		return nil, err
	}

	return &WalletKeys{EVM: evm, Solana: sol}, nil
}
