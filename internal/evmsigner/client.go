// Package evmsigner implements Cordon's EVM signing surface: gas/fee
// estimation, native and ERC-20 sends, approval submission, EIP-191
// personal_sign, EIP-712 typed-data signing, and arbitrary raw sends for
// the dApp bridge. Every operation takes an already-derived EVM keypair —
// this package never touches the vault or the mnemonic.
package evmsigner

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RPCClient is the subset of *ethclient.Client the signer depends on.
// Narrowing to an interface lets callers substitute a fake client in
// tests without dialing a real node.
type RPCClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}
