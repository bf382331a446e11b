package approval

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/mrz1836/cordon/internal/chain"
)

// revokeReceiptTimeout is the watch window a revoke submission gets
// before falling back to "unconfirmed but not known-failed".
const revokeReceiptTimeout = 120 * time.Second

// ReceiptStatus is the terminal state a broadcast tx settled into.
type ReceiptStatus int

// Receipt outcomes.
const (
	// ReceiptPending means the timeout elapsed with no receipt observed.
	ReceiptPending ReceiptStatus = iota
	ReceiptSuccess
	ReceiptReverted
)

// Broadcaster submits a signed approve(spender, amount) transaction and
// returns its hash. Cordon's EVM signer satisfies this structurally —
// this package never imports internal/evmsigner directly, which keeps the
// two packages acyclic: the signer depends on the ledger's persisted
// shape, the ledger never depends on the signer's package.
type Broadcaster interface {
	SubmitApproval(ctx context.Context, chainID chain.ID, tokenAddress, spender string, amountRaw *big.Int) (txHash string, err error)
}

// ReceiptWatcher polls for a transaction receipt, returning
// ReceiptPending if timeout elapses before one is observed.
type ReceiptWatcher interface {
	AwaitReceipt(ctx context.Context, chainID chain.ID, txHash string, timeout time.Duration) (ReceiptStatus, error)
}

// Revoker drives the revoke lifecycle for an existing approval record.
type Revoker struct {
	Ledger    *Ledger
	Broadcast Broadcaster
	Receipts  ReceiptWatcher
}

// Revoke submits an approve(spender, 0) transaction for the record named
// by id, marks it revoking, then watches for a receipt within the 120 s
// window: a reverted receipt moves the record to revoke_failed, a
// successful receipt moves it to revoked with allowance zeroed, and a
// timeout with no receipt falls back to confirmed — revoke unconfirmed
// but not known-failed. A submission or receipt-watch error reverts the
// record to its pre-revoke status rather than leaving it stuck at
// revoking, since no revoke transaction is actually in flight — the
// prior status (e.g. confirmed) is exactly what a caller should retry
// Revoke from.
func (r *Revoker) Revoke(ctx context.Context, id string) (Record, error) {
	rec, found, err := r.Ledger.Get(id)
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, fmt.Errorf("unknown approval id: %s", id)
	}

	priorStatus := rec.Status

	if err := r.Ledger.Mutate(id, func(_ *Record, _ bool) Record {
		rec.Status = StatusRevoking
		return rec
	}); err != nil {
		return Record{}, err
	}

	revertToPrior := func() {
		_ = r.Ledger.Mutate(id, func(cur *Record, found bool) Record {
			if !found {
				return rec
			}
			reverted := *cur
			reverted.Status = priorStatus
			return reverted
		})
	}

	revokeHash, err := r.Broadcast.SubmitApproval(ctx, rec.ChainID, rec.TokenAddress, rec.Spender, big.NewInt(0))
	if err != nil {
		revertToPrior()
		return Record{}, err
	}

	final := rec
	final.RevokeHash = revokeHash

	status, watchErr := r.Receipts.AwaitReceipt(ctx, rec.ChainID, revokeHash, revokeReceiptTimeout)
	switch {
	case watchErr != nil:
		final.Status = priorStatus
		final.RevokeHash = revokeHash
		if mutErr := r.Ledger.Mutate(id, func(_ *Record, _ bool) Record {
			return final
		}); mutErr != nil {
			return Record{}, mutErr
		}
		return Record{}, watchErr
	case status == ReceiptSuccess:
		final.Status = StatusRevoked
		final.AllowanceRaw = "0"
		final.IsUnlimited = false
	case status == ReceiptReverted:
		final.Status = StatusRevokeFailed
	default: // ReceiptPending: timeout elapsed, no receipt observed
		final.Status = StatusConfirmed
	}

	if err := r.Ledger.Mutate(id, func(_ *Record, _ bool) Record {
		return final
	}); err != nil {
		return Record{}, err
	}

	return final, nil
}
