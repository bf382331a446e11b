package approval

import (
	"context"
	"math/big"
	"time"

	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/internal/policy"
)

// ApprovalEvent is one approve() sighting yielded by an explorer or
// indexer collaborator.
type ApprovalEvent struct {
	Token     string
	Spender   string
	TxHash    string
	Timestamp time.Time
}

// EventSource supplies the approve() events an explorer (or indexer) has
// observed for an owner on a chain.
type EventSource interface {
	ApprovalEvents(ctx context.Context, chainID chain.ID, owner string) ([]ApprovalEvent, error)
}

// AllowanceReader reads the current on-chain allowance(owner, spender)
// for an ERC-20 token.
type AllowanceReader interface {
	Allowance(ctx context.Context, chainID chain.ID, token, owner, spender string) (*big.Int, error)
}

// TokenMetadata is the symbol/name/decimals triple fetched once per token
// and cached into the owning record.
type TokenMetadata struct {
	Symbol   string
	Name     string
	Decimals int
}

// TokenMetadataProvider looks up TokenMetadata for a token contract.
type TokenMetadataProvider interface {
	TokenMetadata(ctx context.Context, chainID chain.ID, token string) (TokenMetadata, error)
}

// Refresher drives the on-chain refresh step of the approval engine:
// merging explorer events into the ledger, then re-checking each
// record's live allowance.
type Refresher struct {
	Ledger     *Ledger
	Events     EventSource
	Allowances AllowanceReader
	Metadata   TokenMetadataProvider
}

// RefreshOwnerChain merges explorer-derived events for (owner, chainId)
// into the ledger, then re-reads the on-chain allowance of every
// resulting record for (owner, chainId) — those already on the ledger as
// well as those the events add — and updates
// isUnlimited/allowanceRaw/lastCheckedAt; zero allowance is recorded as
// revoked.
func (r *Refresher) RefreshOwnerChain(ctx context.Context, owner string, chainID chain.ID) error {
	events, err := r.Events.ApprovalEvents(ctx, chainID, owner)
	if err != nil {
		return err
	}

	// Ledger records with no event in this run are re-checked as well.
	seen := make(map[string]bool, len(events))
	for _, event := range events {
		seen[GenerateApprovalID(owner, chainID, event.Token, event.Spender)] = true
	}
	stored, err := r.Ledger.ListByOwnerChain(owner, chainID)
	if err != nil {
		return err
	}
	for _, rec := range stored {
		if !seen[GenerateApprovalID(owner, chainID, rec.TokenAddress, rec.Spender)] {
			events = append(events, ApprovalEvent{Token: rec.TokenAddress, Spender: rec.Spender, TxHash: rec.TxHash, Timestamp: rec.CreatedAt})
		}
	}

	for _, event := range events {
		id := GenerateApprovalID(owner, chainID, event.Token, event.Spender)

		existing, found, err := r.Ledger.Get(id)
		if err != nil {
			return err
		}

		rec := existing
		if !found {
			rec = Record{
				ID:           id,
				ChainID:      chainID,
				Owner:        owner,
				TokenAddress: event.Token,
				Spender:      event.Spender,
				CreatedAt:    event.Timestamp,
				Status:       StatusPending,
			}
		}
		if rec.TxHash == "" {
			rec.TxHash = event.TxHash
		}

		if rec.TokenSymbol == "" && r.Metadata != nil {
			meta, err := r.Metadata.TokenMetadata(ctx, chainID, event.Token)
			if err == nil {
				rec.TokenSymbol = meta.Symbol
				rec.TokenName = meta.Name
				rec.TokenDecimals = meta.Decimals
			}
		}

		allowance, err := r.Allowances.Allowance(ctx, chainID, event.Token, owner, event.Spender)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		rec.LastCheckedAt = &now
		rec.AllowanceRaw = allowance.String()

		if allowance.Sign() == 0 {
			rec.Status = StatusRevoked
			rec.IsUnlimited = false
		} else {
			rec.IsUnlimited = policy.IsUnlimited(allowance)
			if rec.Status == StatusPending {
				rec.Status = StatusConfirmed
			}
		}

		if err := r.Ledger.Upsert(rec); err != nil {
			return err
		}
	}

	return nil
}
