package approval

import (
	"time"

	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/internal/policy"
)

// Gate composes the three steps the package doc comment already claims:
// detect an approve() intent, run it through policy.CheckApprovalPolicy,
// and — when allowed — persist the pending record to the ledger. A
// signing backend (internal/evmsigner, fronted by internal/bridge) runs
// Evaluate before it ever builds the transaction, then calls RecordSent
// once the broadcast has a transaction hash.
type Gate struct {
	Ledger   *Ledger
	Settings policy.Settings
}

// NewGate returns a Gate backed by ledger, evaluating every intent
// against settings.
func NewGate(ledger *Ledger, settings policy.Settings) *Gate {
	return &Gate{Ledger: ledger, Settings: settings}
}

// Evaluate parses calldata for an approve() call. Calldata that isn't an
// approve() call is a no-op pass-through: detected is false and decision
// is always Allowed. A detected call is checked against g.Settings; when
// allowed, a pending Record is upserted into the ledger immediately, so
// the intent is on record even if the caller's subsequent broadcast never
// completes.
func (g *Gate) Evaluate(owner string, chainID chain.ID, token string, calldata []byte, tokenDecimals int, tokenPriceUSD string) (detected bool, decision policy.Decision, err error) {
	intent, ok := DetectApproveIntent(calldata)
	if !ok {
		return false, policy.Decision{Allowed: true}, nil
	}

	check := policy.ApprovalCheck{
		Spender:       intent.Spender,
		IsUnlimited:   intent.IsUnlimited,
		TokenDecimals: tokenDecimals,
		TokenPriceUSD: tokenPriceUSD,
	}
	decision, err = policy.CheckApprovalPolicy(g.Settings, check)
	if err != nil {
		return true, decision, err
	}
	if !decision.Allowed {
		return true, decision, nil
	}

	record := Record{
		ID:            GenerateApprovalID(owner, chainID, token, intent.Spender),
		ChainID:       chainID,
		Owner:         owner,
		TokenAddress:  token,
		Spender:       intent.Spender,
		TokenDecimals: tokenDecimals,
		AllowanceRaw:  intent.AmountRaw.String(),
		IsUnlimited:   intent.IsUnlimited,
		CreatedAt:     time.Now().UTC(),
		Status:        StatusPending,
	}
	if err := g.Ledger.Upsert(record); err != nil {
		return true, decision, err
	}
	return true, decision, nil
}

// RecordSent updates the ledger record for (owner, chainId, token,
// spender) with the broadcast transaction hash, called once the signing
// backend's send has actually gone out.
func (g *Gate) RecordSent(owner string, chainID chain.ID, token, spender, txHash string) error {
	id := GenerateApprovalID(owner, chainID, token, spender)
	return g.Ledger.Mutate(id, func(rec *Record, found bool) Record {
		if !found {
			return Record{
				ID: id, ChainID: chainID, Owner: owner, TokenAddress: token,
				Spender: spender, TxHash: txHash, Status: StatusPending,
				CreatedAt: time.Now().UTC(),
			}
		}
		updated := *rec
		updated.TxHash = txHash
		return updated
	})
}
