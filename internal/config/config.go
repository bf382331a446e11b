// Package config loads the wallet's operator-supplied configuration: per-
// chain RPC overrides, Solana broadcast/route endpoint URLs, and policy
// defaults. A wallet that never loads a file runs entirely on the fixed
// defaults in internal/chain and a zero-value policy.Settings — config is
// additive, never required.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/internal/policy"
)

// Config is the full set of values an operator can override from the
// compiled-in defaults.
type Config struct {
	Chains ChainsConfig   `yaml:"chains"`
	Solana SolanaConfig   `yaml:"solana"`
	Policy PolicyDefaults `yaml:"policy"`
}

// ChainsConfig is keyed by the chain's numeric id (chain.Ethereum,
// chain.Polygon, ...) rather than by a fixed per-chain struct field, so a
// config file only needs an entry for the chains it wants to override.
type ChainsConfig map[chain.ID]ChainOverride

// ChainOverride carries the two fields ApplyOverride knows how to merge.
// Both are optional; an empty string leaves the registry default in
// place.
type ChainOverride struct {
	RPCURL         string `yaml:"rpc_url,omitempty"`
	FallbackRPCURL string `yaml:"fallback_rpc_url,omitempty"`
}

// SolanaConfig carries the Solana-specific swap-routing endpoints that
// have no equivalent on the EVM side: Jito's bundle and plain-sendTransaction
// endpoints (tried in parallel alongside the primary/fallback RPC during
// broadcast), plus the Jupiter and Pump.fun quote/build API base URLs.
type SolanaConfig struct {
	JitoBundleURL    string `yaml:"jito_bundle_url,omitempty"`
	JitoSendTxURL    string `yaml:"jito_send_tx_url,omitempty"`
	JupiterAPIURL    string `yaml:"jupiter_api_url,omitempty"`
	PumpportalAPIURL string `yaml:"pumpportal_api_url,omitempty"`
}

// PolicyDefaults seeds a fresh wallet's policy.Settings. A wallet created
// before any config file exists falls back to the zero value (nothing
// blocked, no spend caps) — these defaults only apply at first-run.
type PolicyDefaults struct {
	BlockUnlimitedApprovals bool     `yaml:"block_unlimited_approvals"`
	MaxSpendPerTransaction  string   `yaml:"max_spend_per_transaction,omitempty"`
	DailySpendLimit         string   `yaml:"daily_spend_limit,omitempty"`
	AllowlistedAddresses    []string `yaml:"allowlisted_addresses,omitempty"`
	DenylistedAddresses     []string `yaml:"denylisted_addresses,omitempty"`
}

// ToSettings converts the loaded defaults into a policy.Settings value.
func (d PolicyDefaults) ToSettings() policy.Settings {
	return policy.Settings{
		BlockUnlimitedApprovals: d.BlockUnlimitedApprovals,
		MaxSpendPerTransaction:  d.MaxSpendPerTransaction,
		DailySpendLimit:         d.DailySpendLimit,
		AllowlistedAddresses:    d.AllowlistedAddresses,
		DenylistedAddresses:     d.DenylistedAddresses,
	}
}

// Load reads and parses the YAML config file at path. A missing file is
// not an error: it returns an empty Config, equivalent to an operator who
// has not configured anything yet.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator-configured, not user input
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the parent directory if
// needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// ApplyChainOverrides merges every chain override in c.Chains into
// internal/chain's registry via chain.ApplyOverride, returning the merged
// Config for each id present in c.Chains. Ids the registry doesn't
// recognize are skipped rather than erroring, since a config file
// authored against a newer chain list shouldn't break an older binary.
func (c *Config) ApplyChainOverrides() map[chain.ID]chain.Config {
	out := make(map[chain.ID]chain.Config, len(c.Chains))
	for id, override := range c.Chains {
		merged, ok := chain.ApplyOverride(id, override.RPCURL, override.FallbackRPCURL)
		if !ok {
			continue
		}
		out[id] = merged
	}
	return out
}
