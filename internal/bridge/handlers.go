package bridge

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// messagePreviewLen is how many characters of a message the confirmation
// UI shows for a signMessage request.
const messagePreviewLen = 100

type handlerFunc func(ctx context.Context, d *Dispatcher, raw []byte) (any, error)

var handlers = map[string]handlerFunc{
	TypeGetWalletAddress:   handleGetWalletAddress,
	TypeSolanaConnect:      handleSolanaConnect,
	TypeSolanaSignMessage:  handleSolanaSignMessage,
	TypeSolanaSignTx:       handleSolanaSignTransaction,
	TypeSolanaSignAndSend:  handleSolanaSignAndSend,
	TypeEVMConnect:         handleEVMConnect,
	TypeEVMSignMessage:     handleEVMSignMessage,
	TypeEVMSendTransaction: handleEVMSendTransaction,
	TypeEVMSignTypedData:   handleEVMSignTypedData,
	TypeEVMSwitchChain:     handleEVMSwitchChain,
}

// requireUnlocked is the gate every request but evm_switchChain passes
// through: the bridge never signs, connects, or reads the wallet address
// while the vault is locked.
func requireUnlocked(d *Dispatcher) error {
	if d.Vault != nil && !d.Vault.IsUnlocked() {
		return cordonerrors.ErrWalletLocked
	}
	return nil
}

func handleGetWalletAddress(ctx context.Context, d *Dispatcher, _ []byte) (any, error) {
	if err := requireUnlocked(d); err != nil {
		return nil, err
	}
	address, err := d.Solana.WalletAddress(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"address": address}, nil
}

type siteParams struct {
	Site string `json:"site"`
}

func handleSolanaConnect(ctx context.Context, d *Dispatcher, raw []byte) (any, error) {
	if err := requireUnlocked(d); err != nil {
		return nil, err
	}
	var params siteParams
	_ = json.Unmarshal(raw, &params)

	ok, err := d.confirmOnce(ctx, fmt.Sprintf("Connect wallet from %s?", params.Site))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cordonerrors.ErrUserRejected
	}

	publicKey, err := d.Solana.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"publicKey": publicKey}, nil
}

type messageParams struct {
	Message string `json:"message"`
}

func handleSolanaSignMessage(ctx context.Context, d *Dispatcher, raw []byte) (any, error) {
	if err := requireUnlocked(d); err != nil {
		return nil, err
	}
	var params messageParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, cordonerrors.New(cordonerrors.CodeTransactionFailed, "malformed signMessage request")
	}

	ok, err := d.confirmOnce(ctx, fmt.Sprintf("Sign message: %s", truncate(params.Message, messagePreviewLen)))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cordonerrors.ErrUserRejected
	}

	signature, publicKey, err := d.Solana.SignMessage(ctx, params.Message)
	if err != nil {
		return nil, err
	}
	return map[string]string{"signature": signature, "publicKey": publicKey}, nil
}

type transactionParams struct {
	Transaction string `json:"transaction"`
}

func handleSolanaSignTransaction(ctx context.Context, d *Dispatcher, raw []byte) (any, error) {
	return solanaTxHandler(ctx, d, raw, false)
}

func handleSolanaSignAndSend(ctx context.Context, d *Dispatcher, raw []byte) (any, error) {
	return solanaTxHandler(ctx, d, raw, true)
}

// solanaTxHandler implements the shared gate sequence for
// solana_signTransaction and solana_signAndSend: drainer hard block
// before the confirmation UI ever renders, then a fresh confirmation,
// then the signing (and optional broadcast) backend call.
func solanaTxHandler(ctx context.Context, d *Dispatcher, raw []byte, andSend bool) (any, error) {
	if err := requireUnlocked(d); err != nil {
		return nil, err
	}
	var params transactionParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, cordonerrors.New(cordonerrors.CodeTransactionFailed, "malformed transaction request")
	}

	address, err := d.Solana.WalletAddress(ctx)
	if err != nil {
		return nil, err
	}

	if d.Drainer != nil {
		if err := d.Drainer.InspectTransaction(ctx, address, params.Transaction); err != nil {
			return nil, err
		}
	}

	ok, err := d.confirmOnce(ctx, "Approve this transaction?")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cordonerrors.ErrUserRejected
	}

	if andSend {
		signature, err := d.Solana.SignAndSendTransaction(ctx, params.Transaction)
		if err != nil {
			return nil, err
		}
		return map[string]string{"signature": signature}, nil
	}

	signedTx, err := d.Solana.SignTransaction(ctx, params.Transaction)
	if err != nil {
		return nil, err
	}
	return map[string]string{"signedTransaction": signedTx}, nil
}

func handleEVMConnect(ctx context.Context, d *Dispatcher, raw []byte) (any, error) {
	if err := requireUnlocked(d); err != nil {
		return nil, err
	}
	var params siteParams
	_ = json.Unmarshal(raw, &params)

	ok, err := d.confirmOnce(ctx, fmt.Sprintf("Connect wallet from %s?", params.Site))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cordonerrors.ErrUserRejected
	}

	accounts, chainID, err := d.EVM.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"accounts": accounts, "chainId": chainID}, nil
}

func handleEVMSignMessage(ctx context.Context, d *Dispatcher, raw []byte) (any, error) {
	if err := requireUnlocked(d); err != nil {
		return nil, err
	}
	var params messageParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, cordonerrors.New(cordonerrors.CodeTransactionFailed, "malformed signMessage request")
	}

	ok, err := d.confirmOnce(ctx, fmt.Sprintf("Sign message: %s", truncate(decodeHexIfApplicable(params.Message), messagePreviewLen)))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cordonerrors.ErrUserRejected
	}

	return d.EVM.SignMessage(ctx, params.Message)
}

type evmSendTxParams struct {
	ChainID int64  `json:"chainId"`
	From    string `json:"from"`
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value"`
}

func handleEVMSendTransaction(ctx context.Context, d *Dispatcher, raw []byte) (any, error) {
	if err := requireUnlocked(d); err != nil {
		return nil, err
	}
	var params evmSendTxParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, cordonerrors.New(cordonerrors.CodeTransactionFailed, "malformed sendTransaction request")
	}

	calldata := decodeHexData(params.Data)
	chainID := chain.ID(params.ChainID)

	if d.Approvals != nil {
		if err := d.Approvals.CheckSendTransaction(ctx, chainID, params.From, params.To, calldata); err != nil {
			return nil, err
		}
	}

	ok, err := d.confirmOnce(ctx, fmt.Sprintf("Send transaction to %s?", params.To))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cordonerrors.ErrUserRejected
	}

	return d.EVM.SendTransaction(ctx, EVMSendTxParams{
		ChainID: chainID,
		From:    params.From,
		To:      params.To,
		Data:    calldata,
		Value:   params.Value,
	})
}

type evmTypedDataParams struct {
	Domain struct {
		Name string `json:"name"`
	} `json:"domain"`
}

func handleEVMSignTypedData(ctx context.Context, d *Dispatcher, raw []byte) (any, error) {
	if err := requireUnlocked(d); err != nil {
		return nil, err
	}
	var params evmTypedDataParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, cordonerrors.New(cordonerrors.CodeTransactionFailed, "malformed signTypedData request")
	}

	ok, err := d.confirmOnce(ctx, fmt.Sprintf("Sign typed data for %s?", params.Domain.Name))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cordonerrors.ErrUserRejected
	}

	return d.EVM.SignTypedData(ctx, params.Domain.Name, raw)
}

type switchChainParams struct {
	ChainID string `json:"chainId"`
}

func handleEVMSwitchChain(ctx context.Context, d *Dispatcher, raw []byte) (any, error) {
	var params switchChainParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, cordonerrors.New(cordonerrors.CodeTransactionFailed, "malformed switchChain request")
	}

	chainID, err := d.EVM.SwitchChain(ctx, params.ChainID)
	if err != nil {
		return nil, err
	}
	return map[string]string{"chainId": chainID}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// decodeHexIfApplicable decodes a 0x-prefixed hex message for preview
// display, falling back to the raw string when it isn't hex.
func decodeHexIfApplicable(s string) string {
	decoded := decodeHexData(s)
	if decoded == nil {
		return s
	}
	return string(decoded)
}

func decodeHexData(s string) []byte {
	if len(s) < 2 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return nil
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil
	}
	return b
}
