package swap

import (
	"strings"

	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// classifyOnChainError maps a Solana on-chain error into the stable swap
// error taxonomy by substring, since program logs and RPC error shapes
// don't agree on a single error-code scheme across validators.
func classifyOnChainError(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "slippagetoleranceexceeded"), strings.Contains(msg, "0x1771"):
		return cordonerrors.WithSuggestion(cordonerrors.Wrap(cordonerrors.ErrSlippage, "%v", err), "retry with a rebuilt quote")
	case strings.Contains(msg, "0x1788"), strings.Contains(msg, "invalidaccountdata"):
		return cordonerrors.WithSuggestion(cordonerrors.Wrap(cordonerrors.ErrBlockhashExpired, "%v", err), "retry with a rebuilt quote; add ~0.005 SOL")
	case strings.Contains(msg, "0x177e"), strings.Contains(msg, "incorrecttokenprogramid"):
		return cordonerrors.Wrap(cordonerrors.ErrTransactionFailed, "token-2022 incompatible route: %v", err)
	case strings.Contains(msg, "insufficient lamports"):
		return cordonerrors.Wrap(cordonerrors.ErrInsufficientFunds, "%v", err)
	case strings.Contains(msg, "blockhash"), strings.Contains(msg, "expired"):
		return cordonerrors.Wrap(cordonerrors.ErrBlockhashExpired, "%v", err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection"):
		return cordonerrors.WithSuggestion(cordonerrors.Wrap(cordonerrors.ErrRPCTimeout, "%v", err), "retry without rebuilding the quote")
	default:
		return cordonerrors.Wrap(cordonerrors.ErrTransactionFailed, "%v", err)
	}
}
