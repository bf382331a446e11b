// Package keys implements Cordon's key-derivation component: deterministic,
// pure functions mapping a validated BIP39 mnemonic to an EVM address and a
// Solana keypair. Nothing in this package touches disk, the network, or the
// vault's lock state — callers (the vault) own the mnemonic's lifecycle.
package keys

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/hdkeychain/v3"

	"github.com/mrz1836/cordon/internal/cordoncrypto"
)

// EVMCoinType is the BIP44 coin type for Ethereum and EVM-compatible chains
// (Polygon, BNB Smart Chain, Arbitrum all share one derivation path — the
// chain is selected at the RPC layer, not the key layer).
const EVMCoinType = 60

// EVMDerivationPath is the fixed BIP44 path Cordon derives every EVM
// account from: m/44'/60'/0'/0/0.
const EVMDerivationPath = "m/44'/60'/0'/0/0"

// hdNetParams satisfies hdkeychain.NetworkParams. Cordon only ever derives
// keys locally and never serializes an extended key to the wire, so the
// version bytes are arbitrary but fixed to Bitcoin mainnet's well-known
// values for compatibility with tooling that might inspect them.
type hdNetParams struct{}

func (hdNetParams) HDPrivKeyVersion() [4]byte { return [4]byte{0x04, 0x88, 0xAD, 0xE4} }
func (hdNetParams) HDPubKeyVersion() [4]byte  { return [4]byte{0x04, 0x88, 0xB2, 0x1E} }

// EVMKeyPair holds the derived EVM signing material. PrivateKeyBytes must
// be zeroed by the caller once signing is complete.
type EVMKeyPair struct {
	// Address is the lowercase, 0x-prefixed canonical address.
	Address string
	// PrivateKeyBytes is the raw 32-byte secp256k1 private key.
	PrivateKeyBytes []byte
}

// DeriveEVMKeyPair derives the single EVM account Cordon supports per
// wallet, at m/44'/60'/0'/0/0, from a BIP39 seed. It is a pure function:
// identical seeds always yield identical output.
func DeriveEVMKeyPair(seed []byte) (*EVMKeyPair, error) {
	master, err := hdkeychain.NewMaster(seed, hdNetParams{})
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}

	purpose, err := master.ChildBIP32Std(hdkeychain.HardenedKeyStart + 44)
	if err != nil {
		return nil, fmt.Errorf("deriving purpose node: %w", err)
	}
	coinType, err := purpose.ChildBIP32Std(hdkeychain.HardenedKeyStart + EVMCoinType)
	if err != nil {
		return nil, fmt.Errorf("deriving coin-type node: %w", err)
	}
	account, err := coinType.ChildBIP32Std(hdkeychain.HardenedKeyStart + 0)
	if err != nil {
		return nil, fmt.Errorf("deriving account node: %w", err)
	}
	change, err := account.ChildBIP32Std(0)
	if err != nil {
		return nil, fmt.Errorf("deriving change node: %w", err)
	}
	index, err := change.ChildBIP32Std(0)
	if err != nil {
		return nil, fmt.Errorf("deriving address-index node: %w", err)
	}

	privKeyBytes, err := index.SerializedPrivKey()
	if err != nil {
		return nil, fmt.Errorf("serializing private key: %w", err)
	}

	privKey := secp256k1.PrivKeyFromBytes(privKeyBytes)
	defer privKey.Zero()

	uncompressed := privKey.PubKey().SerializeUncompressed()

	addrBytes, err := cordoncrypto.PubKeyToEVMAddress(uncompressed)
	if err != nil {
		return nil, fmt.Errorf("deriving address: %w", err)
	}

	addr, err := cordoncrypto.FormatEVMAddressLower(addrBytes)
	if err != nil {
		return nil, fmt.Errorf("formatting address: %w", err)
	}

	out := make([]byte, len(privKeyBytes))
	copy(out, privKeyBytes)

	return &EVMKeyPair{Address: addr, PrivateKeyBytes: out}, nil
}
