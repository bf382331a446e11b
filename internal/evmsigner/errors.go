package evmsigner

import (
	"strings"

	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// classifyCallError maps an RPC/node error into the stable EVM error
// taxonomy by substring, since node implementations (geth, Erigon,
// Infura, Alchemy) don't agree on an error-code scheme for eth_call /
// eth_estimateGas / eth_sendRawTransaction failures.
func classifyCallError(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "insufficient funds"):
		return cordonerrors.Wrap(cordonerrors.ErrInsufficientFunds, "%v", err)
	case strings.Contains(msg, "nonce too low"),
		strings.Contains(msg, "nonce too high"),
		strings.Contains(msg, "invalid nonce"):
		return cordonerrors.Wrap(cordonerrors.ErrNonceError, "%v", err)
	case strings.Contains(msg, "execution reverted"),
		strings.Contains(msg, "always failing transaction"):
		return cordonerrors.Wrap(cordonerrors.ErrExecutionReverted, "%v", err)
	case strings.Contains(msg, "gas required exceeds"),
		strings.Contains(msg, "intrinsic gas too low"),
		strings.Contains(msg, "out of gas"):
		return cordonerrors.Wrap(cordonerrors.ErrGasError, "%v", err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return cordonerrors.Wrap(cordonerrors.ErrTimeout, "%v", err)
	case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"):
		return cordonerrors.Wrap(cordonerrors.ErrUserRejected, "%v", err)
	default:
		return cordonerrors.Wrap(cordonerrors.ErrTransactionFailed, "%v", err)
	}
}
