// Package cordonerrors provides the stable error taxonomy exposed at Cordon's
// public surface. Every error that crosses a component boundary is wrapped in
// a *CordonError carrying a machine-readable code; callers key UI behavior
// off Code, never off the message text.
package cordonerrors

import (
	"errors"
	"fmt"
	"sort"
)

// Stable error codes exposed across every component boundary.
const (
	CodeWalletLocked      = "WALLET_LOCKED"
	CodeInvalidMnemonic   = "INVALID_MNEMONIC"
	CodeUnsupportedChain  = "UNSUPPORTED_CHAIN"
	CodeApprovalBlocked   = "APPROVAL_BLOCKED"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeExecutionReverted = "EXECUTION_REVERTED"
	CodeNonceError        = "NONCE_ERROR"
	CodeGasError          = "GAS_ERROR"
	CodeUserRejected      = "USER_REJECTED"
	CodeTimeout           = "TIMEOUT"
	CodeTransactionFailed = "TRANSACTION_FAILED"
	CodeDrainerBlocked    = "DRAINER_BLOCKED"
	CodeSlippage          = "SLIPPAGE"
	CodeBlockhashExpired  = "BLOCKHASH_EXPIRED"
	CodeRPCTimeout        = "RPC_TIMEOUT"
	CodePumpUnavailable   = "PUMP_UNAVAILABLE"
	CodeTokenGraduated    = "TOKEN_GRADUATED"
	CodeAuthInProgress    = "AUTH_IN_PROGRESS"
	CodeUnknown           = "UNKNOWN"
)

// CordonError is the structured error type returned at package boundaries.
type CordonError struct {
	Code       string
	Message    string
	Details    map[string]string
	Suggestion string
	Cause      error
}

func (e *CordonError) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *CordonError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is by comparing stable codes.
func (e *CordonError) Is(target error) bool {
	var t *CordonError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors. Each carries the stable code the UI keys off.
var (
	ErrWalletLocked      = &CordonError{Code: CodeWalletLocked, Message: "vault is locked"}
	ErrInvalidMnemonic   = &CordonError{Code: CodeInvalidMnemonic, Message: "invalid mnemonic phrase"}
	ErrUnsupportedChain  = &CordonError{Code: CodeUnsupportedChain, Message: "unsupported chain"}
	ErrApprovalBlocked   = &CordonError{Code: CodeApprovalBlocked, Message: "approval blocked by policy"}
	ErrInsufficientFunds = &CordonError{Code: CodeInsufficientFunds, Message: "insufficient funds"}
	ErrExecutionReverted = &CordonError{Code: CodeExecutionReverted, Message: "execution reverted"}
	ErrNonceError        = &CordonError{Code: CodeNonceError, Message: "nonce error"}
	ErrGasError          = &CordonError{Code: CodeGasError, Message: "gas estimation failed"}
	ErrUserRejected      = &CordonError{Code: CodeUserRejected, Message: "user rejected request"}
	ErrTimeout           = &CordonError{Code: CodeTimeout, Message: "operation timed out"}
	ErrTransactionFailed = &CordonError{Code: CodeTransactionFailed, Message: "transaction failed"}
	ErrDrainerBlocked    = &CordonError{Code: CodeDrainerBlocked, Message: "wallet drainer detected"}
	ErrSlippage          = &CordonError{Code: CodeSlippage, Message: "slippage tolerance exceeded"}
	ErrBlockhashExpired  = &CordonError{Code: CodeBlockhashExpired, Message: "blockhash expired"}
	ErrRPCTimeout        = &CordonError{Code: CodeRPCTimeout, Message: "RPC call timed out"}
	ErrPumpUnavailable   = &CordonError{Code: CodePumpUnavailable, Message: "pump.fun route unavailable"}
	ErrTokenGraduated    = &CordonError{Code: CodeTokenGraduated, Message: "token has graduated from bonding curve"}
	ErrAuthInProgress    = &CordonError{Code: CodeAuthInProgress, Message: "Auth already in progress"}
)

// New creates a CordonError with the given code and message.
func New(code, message string) *CordonError {
	return &CordonError{Code: code, Message: message}
}

// Wrap attaches additional context to err while preserving its code.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var ce *CordonError
	if errors.As(err, &ce) {
		return &CordonError{
			Code:       ce.Code,
			Message:    fmt.Sprintf("%s: %s", msg, ce.Message),
			Details:    ce.Details,
			Suggestion: ce.Suggestion,
			Cause:      err,
		}
	}

	return &CordonError{Code: CodeUnknown, Message: msg, Cause: err}
}

// WithDetails attaches a details map to err, preserving its code.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var ce *CordonError
	if errors.As(err, &ce) {
		return &CordonError{
			Code:       ce.Code,
			Message:    ce.Message,
			Details:    details,
			Suggestion: ce.Suggestion,
			Cause:      ce.Cause,
		}
	}

	return &CordonError{Code: CodeUnknown, Message: err.Error(), Details: details, Cause: err}
}

// WithSuggestion attaches a remediation suggestion to err, preserving its code.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var ce *CordonError
	if errors.As(err, &ce) {
		return &CordonError{
			Code:       ce.Code,
			Message:    ce.Message,
			Details:    ce.Details,
			Suggestion: suggestion,
			Cause:      ce.Cause,
		}
	}

	return &CordonError{Code: CodeUnknown, Message: err.Error(), Suggestion: suggestion, Cause: err}
}

// Code returns the stable code for err, or CodeUnknown if err is not a *CordonError.
func Code(err error) string {
	var ce *CordonError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeUnknown
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool { return errors.Is(err, target) }

// As wraps errors.As for convenience.
func As(err error, target any) bool { return errors.As(err, target) }
