package bridge

import (
	"context"
	"encoding/json"

	"github.com/mrz1836/cordon/internal/chain"
)

// SolanaBackend is the narrow set of Solana operations the bridge routes
// to. ProductionSolanaBackend (production.go) implements it against
// internal/solsigner — this file never imports solana-go itself.
type SolanaBackend interface {
	WalletAddress(ctx context.Context) (string, error)
	Connect(ctx context.Context) (publicKey string, err error)
	SignMessage(ctx context.Context, message string) (signature, publicKey string, err error)
	SignTransaction(ctx context.Context, txBase64 string) (signedTxBase64 string, err error)
	SignAndSendTransaction(ctx context.Context, txBase64 string) (signature string, err error)
}

// EVMSendTxParams is the subset of an evm_sendTransaction request the
// approval gate and the signing backend both need.
type EVMSendTxParams struct {
	ChainID chain.ID
	From    string
	To      string
	Data    []byte
	Value   string
}

// EVMBackend is the narrow set of EVM operations the bridge routes to.
// ProductionEVMBackend (production.go) implements it against
// internal/evmsigner, gated by internal/approval.
type EVMBackend interface {
	Connect(ctx context.Context) (accounts []string, chainID string, err error)
	SignMessage(ctx context.Context, message string) (signatureHex string, err error)
	SendTransaction(ctx context.Context, params EVMSendTxParams) (txHash string, err error)
	SignTypedData(ctx context.Context, domainName string, typedData json.RawMessage) (signatureHex string, err error)
	SwitchChain(ctx context.Context, chainID string) (string, error)
}
