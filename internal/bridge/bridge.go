// Package bridge implements Cordon's dApp bridge: a request/response
// protocol carried over a single string channel between a content window
// and the wallet core. Every request is routed through narrow
// collaborator interfaces for the vault lock, the confirmation UI, the
// drainer decoder, the approval-policy gate, and the chain backends
// themselves — Dispatcher.Dispatch signs nothing directly, mirroring the
// acyclic collaborator-interface layering internal/approval and
// internal/solsigner already use. production.go supplies the concrete
// backends (internal/evmsigner, internal/solsigner, internal/approval)
// that actually sign and broadcast; a caller that skips
// NewProductionDispatcher and wires its own fakes gets a parse-only
// dispatcher instead.
package bridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// Request is the envelope every inbound bridge message carries. Type-
// specific fields are parsed from raw on dispatch, not embedded here,
// since the field set varies per request type.
type Request struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
}

// Response is the envelope every outbound bridge message carries. Exactly
// one of Result or Error is ever set.
type Response struct {
	RequestID string `json:"requestId"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Recognized request types.
const (
	TypeGetWalletAddress   = "getWalletAddress"
	TypeSolanaConnect      = "solana_connect"
	TypeSolanaSignMessage  = "solana_signMessage"
	TypeSolanaSignTx       = "solana_signTransaction"
	TypeSolanaSignAndSend  = "solana_signAndSend"
	TypeEVMConnect         = "evm_connect"
	TypeEVMSignMessage     = "evm_signMessage"
	TypeEVMSendTransaction = "evm_sendTransaction"
	TypeEVMSignTypedData   = "evm_signTypedData"
	TypeEVMSwitchChain     = "evm_switchChain"
)

// VaultGate reports whether the vault is unlocked. Every signing/connect
// request is refused while locked; the bridge never signs on a locked
// vault regardless of what the confirmation UI would otherwise show.
type VaultGate interface {
	IsUnlocked() bool
}

// Confirmer renders a human confirmation prompt and blocks for the
// user's decision. The Dispatcher guards every call with a single mutex
// taken with TryLock: only one confirmation can be in flight at a time (a
// request arriving while one is live is rejected, not queued), and a
// fresh call is made for every request — there is no "approved once"
// cache.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// DrainerChecker inspects a base64-encoded Solana transaction for the
// known wallet-drainer instruction patterns before it ever reaches the
// confirmation UI.
type DrainerChecker interface {
	InspectTransaction(ctx context.Context, walletAddress, txBase64 string) error
}

// ApprovalGate inspects EVM calldata for approve() intent and evaluates
// it against policy, returning a non-nil error when policy blocks it.
// Calldata that isn't an approve() call is a no-op pass-through.
type ApprovalGate interface {
	CheckSendTransaction(ctx context.Context, chainID chain.ID, from, to string, calldata []byte) error
}

// Dispatcher routes bridge requests to the appropriate backend, applying
// the gate table's vault, drainer, approval, and confirmation checks
// before any signing backend is ever called.
type Dispatcher struct {
	Vault     VaultGate
	Confirm   Confirmer
	Drainer   DrainerChecker
	Approvals ApprovalGate
	Solana    SolanaBackend
	EVM       EVMBackend

	confirmMu sync.Mutex
}

// confirmOnce enforces the single-active-confirmation-UI invariant: a
// request that needs a prompt while another confirmation is already in
// flight is rejected outright rather than queued, matching the
// no-queued-auth requirement exactly.
func (d *Dispatcher) confirmOnce(ctx context.Context, prompt string) (bool, error) {
	if !d.confirmMu.TryLock() {
		return false, cordonerrors.ErrAuthInProgress
	}
	defer d.confirmMu.Unlock()
	return d.Confirm.Confirm(ctx, prompt)
}

// Dispatch parses raw as a Request envelope, routes it to the matching
// handler, and always returns a JSON-encoded Response referencing the
// request's requestId — it never returns a Go error itself, since the
// content-window channel only ever carries JSON responses.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) []byte {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return encodeResponse(Response{Error: "Malformed request"})
	}

	handler, ok := handlers[req.Type]
	if !ok {
		return encodeResponse(Response{RequestID: req.RequestID, Error: "Method not supported"})
	}

	result, err := handler(ctx, d, raw)
	if err != nil {
		return encodeResponse(Response{RequestID: req.RequestID, Error: bridgeErrorMessage(err)})
	}
	return encodeResponse(Response{RequestID: req.RequestID, Result: result})
}

// bridgeErrorMessage renders err as the string the content window sees.
// A drainer block always renders the fixed security message regardless
// of the underlying detail, matching the hard-block contract exactly.
func bridgeErrorMessage(err error) string {
	if cordonerrors.Code(err) == cordonerrors.CodeDrainerBlocked {
		return "Transaction blocked: Wallet drainer detected"
	}
	return err.Error()
}

func encodeResponse(resp Response) []byte {
	b, err := json.Marshal(resp)
	if err != nil {
		// Marshaling a Response of string/any fields never fails in
		// practice; fall back to a minimal literal rather than panic.
		return []byte(`{"error":"internal encoding error"}`)
	}
	return b
}
