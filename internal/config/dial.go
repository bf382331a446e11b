package config

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/internal/evmsigner"
)

// DialEVMClients dials a *ethclient.Client for every EVM chain in
// chains, trying RPCURL first and falling back to FallbackRPCURL on
// failure — the same primary/fallback pairing internal/swap.Engine's
// Primary/Fallback status polling uses for Solana, applied here to the
// initial connect. Registry entries carry no RPC URL, so a chain whose
// override supplies no RPCURL has nothing to dial and is skipped.
func DialEVMClients(ctx context.Context, chains map[chain.ID]chain.Config) (map[chain.ID]evmsigner.RPCClient, error) {
	out := make(map[chain.ID]evmsigner.RPCClient, len(chains))
	for id, cfg := range chains {
		if cfg.Family != chain.FamilyEVM {
			continue
		}
		if cfg.RPCURL == "" {
			continue
		}

		client, err := ethclient.DialContext(ctx, cfg.RPCURL)
		if err != nil {
			if cfg.FallbackRPCURL == "" {
				return nil, fmt.Errorf("dialing %s: %w", cfg.Name, err)
			}
			client, err = ethclient.DialContext(ctx, cfg.FallbackRPCURL)
			if err != nil {
				return nil, fmt.Errorf("dialing %s fallback: %w", cfg.Name, err)
			}
		}
		out[id] = client
	}
	return out, nil
}
