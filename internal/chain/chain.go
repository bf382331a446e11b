// Package chain provides the fixed chain registry: per-chain identity,
// coin type, RPC/explorer configuration, and native asset metadata for the
// five chains Cordon supports (Ethereum, Polygon, BNB Smart Chain,
// Arbitrum, Solana).
package chain

import "strings"

// Family distinguishes the two execution models Cordon signs for. Every
// EVM chain shares one signer path; Solana has its own.
type Family int

// Supported chain families.
const (
	FamilyEVM Family = iota
	FamilySolana
)

// ID is a chain identifier: the EVM numeric chain id for EVM chains, or
// the sentinel Solana value for Solana (which has no EIP-155 chain id).
type ID int64

// Fixed chain ids for the chains Cordon supports.
const (
	Ethereum ID = 1
	Polygon  ID = 137
	BNBChain ID = 56
	Arbitrum ID = 42161

	// Solana has no EVM-style numeric chain id; this sentinel is used as
	// the map key throughout the registry and approval ledger.
	Solana ID = -501
)

// Config is the fixed per-chain configuration record.
type Config struct {
	ChainID         ID
	Name            string
	Family          Family
	NativeSymbol    string
	NativeDecimals  int
	RPCURL          string
	FallbackRPCURL  string
	ExplorerBaseURL string
	IsTestnet       bool
}

// EVMCoinType returns the BIP44 coin type backing every EVM chain's key
// derivation. All EVM chains share one derivation path: the chain itself
// is selected at the RPC layer, not the key layer.
const EVMCoinType = 60

// SolanaCoinType is the BIP44 coin type for Solana.
const SolanaCoinType = 501

// registry is the fixed set of chains Cordon knows about. Populated from
// well-known public values; RPC and fallback RPC URLs are left empty here
// and supplied by an operator via ApplyOverride, which never touches the
// chain identity fields.
var registry = map[ID]Config{
	Ethereum: {
		ChainID: Ethereum, Name: "Ethereum", Family: FamilyEVM,
		NativeSymbol: "ETH", NativeDecimals: 18,
		ExplorerBaseURL: "https://etherscan.io/tx/",
	},
	Polygon: {
		ChainID: Polygon, Name: "Polygon", Family: FamilyEVM,
		NativeSymbol: "MATIC", NativeDecimals: 18,
		ExplorerBaseURL: "https://polygonscan.com/tx/",
	},
	BNBChain: {
		ChainID: BNBChain, Name: "BNB Smart Chain", Family: FamilyEVM,
		NativeSymbol: "BNB", NativeDecimals: 18,
		ExplorerBaseURL: "https://bscscan.com/tx/",
	},
	Arbitrum: {
		ChainID: Arbitrum, Name: "Arbitrum One", Family: FamilyEVM,
		NativeSymbol: "ETH", NativeDecimals: 18,
		ExplorerBaseURL: "https://arbiscan.io/tx/",
	},
	Solana: {
		ChainID: Solana, Name: "Solana", Family: FamilySolana,
		NativeSymbol: "SOL", NativeDecimals: 9,
		ExplorerBaseURL: "https://solscan.io/tx/",
	},
}

// Get returns the fixed Config for id, and whether id is known.
func Get(id ID) (Config, bool) {
	cfg, ok := registry[id]
	return cfg, ok
}

// IsValid reports whether id names a chain Cordon supports.
func IsValid(id ID) bool {
	_, ok := registry[id]
	return ok
}

// All returns every registered chain, EVM chains first in the fixed order
// Ethereum, Polygon, BNB Smart Chain, Arbitrum, Solana last.
func All() []Config {
	order := []ID{Ethereum, Polygon, BNBChain, Arbitrum, Solana}
	out := make([]Config, 0, len(order))
	for _, id := range order {
		out = append(out, registry[id])
	}
	return out
}

// EVMChains returns every EVM-family chain.
func EVMChains() []Config {
	var out []Config
	for _, cfg := range All() {
		if cfg.Family == FamilyEVM {
			out = append(out, cfg)
		}
	}
	return out
}

// ExplorerURL builds the block-explorer URL for a transaction hash/
// signature on chain id.
func ExplorerURL(id ID, hashOrSignature string) string {
	cfg, ok := Get(id)
	if !ok {
		return ""
	}
	return cfg.ExplorerBaseURL + hashOrSignature
}

// ApplyOverride merges operator-supplied RPC URLs into the registry entry
// for id, returning the merged config without mutating global state
// (callers thread the merged Config explicitly).
func ApplyOverride(id ID, rpcURL, fallbackRPCURL string) (Config, bool) {
	cfg, ok := Get(id)
	if !ok {
		return Config{}, false
	}
	if rpcURL != "" {
		cfg.RPCURL = rpcURL
	}
	if fallbackRPCURL != "" {
		cfg.FallbackRPCURL = fallbackRPCURL
	}
	return cfg, true
}

// EqualAddress compares two address strings case-insensitively, the
// canonical comparison form for EVM addresses throughout Cordon.
func EqualAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
