package swap

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/mr-tron/base58"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// ConfirmationLevel is the broadcast's lifecycle state, advancing
// monotonically until a terminal state is reached.
type ConfirmationLevel string

// Confirmation levels, in the order a successful broadcast advances
// through. failed and expired are terminal.
const (
	StatusSubmitted ConfirmationLevel = "submitted"
	StatusProcessed ConfirmationLevel = "processed"
	StatusConfirmed ConfirmationLevel = "confirmed"
	StatusFinalized ConfirmationLevel = "finalized"
	StatusFailed    ConfirmationLevel = "failed"
	StatusExpired   ConfirmationLevel = "expired"
)

var levelRank = map[ConfirmationLevel]int{
	StatusSubmitted: 0,
	StatusProcessed: 1,
	StatusConfirmed: 2,
	StatusFinalized: 3,
}

// Endpoint is one destination the broadcast fans a signed transaction out
// to: a Jito bundle endpoint, Jito's own sendTransaction, or a plain RPC
// node (primary or fallback). Implementations are expected to always send
// with skipPreflight=true and maxRetries=0 per the broadcast's own
// retry/rebroadcast loop rather than the node's.
type Endpoint interface {
	Name() string
	Send(ctx context.Context, signedTxBase64 string) error
}

// StatusPoller reads a transaction's confirmation status from an RPC
// node. Err is non-nil exactly when the transaction failed on-chain; a
// nil SignatureStatus with a nil error means the signature hasn't been
// seen yet.
type StatusPoller interface {
	GetSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error)
}

// SignatureStatus mirrors the subset of Solana's getSignatureStatus
// result the broadcast engine acts on.
type SignatureStatus struct {
	ConfirmationStatus ConfirmationLevel
	Err                error
}

// Progress is emitted on every poll tick and rebroadcast so a caller can
// drive a progress UI.
type Progress struct {
	Signature        string
	Level            ConfirmationLevel
	RebroadcastCount int
	Err              error
}

// pollInterval is how often getSignatureStatus is polled.
const pollInterval = 400 * time.Millisecond

// BroadcastSignature computes the transaction signature locally from the
// signed wire bytes, without waiting on any RPC round trip: Solana
// transactions are prefixed with a shortvec signature count followed by
// 64-byte signatures, so the first signature is bytes [1:65].
func BroadcastSignature(signedBytes []byte) (string, error) {
	if len(signedBytes) < 65 {
		return "", cordonerrors.New(cordonerrors.CodeTransactionFailed, "signed transaction too short to contain a signature")
	}
	return base58.Encode(signedBytes[1:65]), nil
}

// Engine drives the broadcast/confirm/rebroadcast lifecycle for one
// signed transaction.
type Engine struct {
	Endpoints        []Endpoint
	Primary          StatusPoller
	Fallback         StatusPoller
	RebroadcastEvery time.Duration
	MaxDuration      time.Duration
}

// fanOut fires signedTxBase64 to every configured endpoint in parallel.
// Individual endpoint failures are not fatal to the broadcast as a whole —
// the transaction only needs to land through one of them — so fanOut never
// returns an error from a single endpoint; it only propagates a context
// cancellation.
func (e *Engine) fanOut(ctx context.Context, signedTxBase64 string) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, ep := range e.Endpoints {
		ep := ep
		g.Go(func() error {
			_ = ep.Send(gCtx, signedTxBase64)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// pollStatus checks the primary poller, falling back to the secondary on
// a poller-level error (as opposed to an on-chain transaction failure,
// which pollStatus returns as a non-nil SignatureStatus.Err).
func (e *Engine) pollStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	status, err := e.Primary.GetSignatureStatus(ctx, signature)
	if err == nil {
		return status, nil
	}
	if e.Fallback == nil {
		return nil, err
	}
	return e.Fallback.GetSignatureStatus(ctx, signature)
}

// Run broadcasts signedBytes and streams Progress events over the
// returned channel until a terminal state (finalized, failed, or expired)
// is reached, at which point the channel is closed. rotate
// selects the rotated endpoint subset used for each periodic resend; it
// may return the full endpoint list if the caller doesn't rotate.
func (e *Engine) Run(ctx context.Context, signedBytes []byte, rotate func(all []Endpoint, round int) []Endpoint) (<-chan Progress, error) {
	signature, err := BroadcastSignature(signedBytes)
	if err != nil {
		return nil, err
	}

	progress := make(chan Progress, 8)

	go e.run(ctx, signature, signedBytes, rotate, progress)

	return progress, nil
}

func (e *Engine) run(ctx context.Context, signature string, signedBytes []byte, rotate func([]Endpoint, int) []Endpoint, progress chan<- Progress) {
	defer close(progress)

	deadline := time.Now().Add(e.MaxDuration)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var rebroadcastTicker *time.Ticker
	if e.RebroadcastEvery > 0 {
		rebroadcastTicker = time.NewTicker(e.RebroadcastEvery)
		defer rebroadcastTicker.Stop()
	}

	encoded := base64.StdEncoding.EncodeToString(signedBytes)
	if err := e.fanOut(ctx, encoded); err != nil {
		progress <- Progress{Signature: signature, Level: StatusSubmitted, Err: err}
		return
	}
	progress <- Progress{Signature: signature, Level: StatusSubmitted}

	current := StatusSubmitted
	rebroadcastCount := 0
	round := 0

	for {
		if time.Now().After(deadline) {
			progress <- Progress{Signature: signature, Level: StatusExpired, RebroadcastCount: rebroadcastCount}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := e.pollStatus(ctx, signature)
			if err != nil {
				continue
			}
			if status == nil {
				continue
			}
			if status.Err != nil {
				progress <- Progress{Signature: signature, Level: StatusFailed, RebroadcastCount: rebroadcastCount, Err: classifyOnChainError(status.Err)}
				return
			}
			if status.ConfirmationStatus != "" && levelRank[status.ConfirmationStatus] > levelRank[current] {
				current = status.ConfirmationStatus
				progress <- Progress{Signature: signature, Level: current, RebroadcastCount: rebroadcastCount}
				if current == StatusFinalized {
					return
				}
			}
		case <-rebroadcastTickerC(rebroadcastTicker):
			round++
			rebroadcastCount++
			targets := e.Endpoints
			if rotate != nil {
				targets = rotate(e.Endpoints, round)
			}
			sub := &Engine{Endpoints: targets}
			_ = sub.fanOut(ctx, encoded)
			progress <- Progress{Signature: signature, Level: current, RebroadcastCount: rebroadcastCount}
		}
	}
}

// rebroadcastTickerC returns t.C, or a nil channel (which blocks forever
// in a select) when rebroadcast is disabled.
func rebroadcastTickerC(t *time.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}
