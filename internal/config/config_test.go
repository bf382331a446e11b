package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/internal/config"
)

func TestLoad_MissingFileReturnsEmptyConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Chains)
	assert.Empty(t, cfg.Solana.JitoBundleURL)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := &config.Config{
		Chains: config.ChainsConfig{
			chain.Ethereum: {RPCURL: "https://eth.example/rpc", FallbackRPCURL: "https://eth-fallback.example/rpc"},
		},
		Solana: config.SolanaConfig{
			JitoBundleURL: "https://jito.example/bundle",
			JupiterAPIURL: "https://jupiter.example/quote",
		},
		Policy: config.PolicyDefaults{
			BlockUnlimitedApprovals: true,
			MaxSpendPerTransaction:  "500",
			DenylistedAddresses:     []string{"0xdead"},
		},
	}

	require.NoError(t, config.Save(cfg, path))
	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Chains[chain.Ethereum].RPCURL, loaded.Chains[chain.Ethereum].RPCURL)
	assert.Equal(t, cfg.Solana.JitoBundleURL, loaded.Solana.JitoBundleURL)
	assert.True(t, loaded.Policy.BlockUnlimitedApprovals)
	assert.Equal(t, []string{"0xdead"}, loaded.Policy.DenylistedAddresses)
}

func TestApplyChainOverrides(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Chains: config.ChainsConfig{
			chain.Polygon: {RPCURL: "https://polygon.example/rpc"},
			chain.ID(999): {RPCURL: "https://unknown.example/rpc"},
		},
	}

	merged := cfg.ApplyChainOverrides()
	require.Contains(t, merged, chain.Polygon)
	assert.Equal(t, "https://polygon.example/rpc", merged[chain.Polygon].RPCURL)
	assert.NotContains(t, merged, chain.ID(999))
}

func TestPolicyDefaults_ToSettings(t *testing.T) {
	t.Parallel()

	d := config.PolicyDefaults{
		BlockUnlimitedApprovals: true,
		MaxSpendPerTransaction:  "100",
		AllowlistedAddresses:    []string{"0xabc"},
	}
	settings := d.ToSettings()

	assert.True(t, settings.BlockUnlimitedApprovals)
	assert.Equal(t, "100", settings.MaxSpendPerTransaction)
	assert.Equal(t, []string{"0xabc"}, settings.AllowlistedAddresses)
}
