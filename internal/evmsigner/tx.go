package evmsigner

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"regexp"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/internal/cordoncrypto"
	"github.com/mrz1836/cordon/internal/keys"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

var addressRegex = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

// ERC-20 function selectors: keccak256(signature)[:4].
var (
	erc20TransferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
	erc20ApproveSelector  = []byte{0x09, 0x5e, 0xa7, 0xb3} // approve(address,uint256)
)

// ValidateAddressShape checks the 42-char, 0x-prefixed hex shape the
// signer requires before ever touching an address.
func ValidateAddressShape(address string) error {
	if !addressRegex.MatchString(address) {
		return cordonerrors.New(cordonerrors.CodeTransactionFailed, "invalid address format: "+address)
	}
	return nil
}

// SendResult is returned by every operation that broadcasts a transaction.
type SendResult struct {
	Hash        string
	ChainID     chain.ID
	ExplorerURL string
}

// encodeERC20Call ABI-encodes a two-argument (address, uint256) call: a
// 4-byte selector, the address left-padded to 32 bytes, and the amount
// left-padded to 32 bytes.
func encodeERC20Call(selector []byte, address string, amount *big.Int) []byte {
	addr := common.HexToAddress(address)
	data := make([]byte, 0, 4+32+32)
	data = append(data, selector...)
	data = append(data, common.LeftPadBytes(addr.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}

// BuildERC20TransferData builds the calldata for transfer(to, amount).
func BuildERC20TransferData(to string, amount *big.Int) []byte {
	return encodeERC20Call(erc20TransferSelector, to, amount)
}

// BuildERC20ApproveData builds the calldata for approve(spender, amount).
func BuildERC20ApproveData(spender string, amount *big.Int) []byte {
	return encodeERC20Call(erc20ApproveSelector, spender, amount)
}

// buildAndSign constructs the appropriate transaction type (legacy when
// estimate.IsLegacy, EIP-1559 DynamicFeeTx otherwise), signs it with the
// wallet's EVM private key, and returns the signed transaction. Matches
// the chain id into the signer so replay protection (EIP-155) always
// applies, even on legacy-typed transactions.
func buildAndSign(privKeyBytes []byte, chainID chain.ID, nonce uint64, to common.Address, value *big.Int, data []byte, estimate *GasEstimate) (*types.Transaction, error) {
	privKey, err := crypto.ToECDSA(privKeyBytes)
	if err != nil {
		return nil, cordonerrors.Wrap(cordonerrors.ErrTransactionFailed, "parsing private key: %v", err)
	}
	defer zeroECDSA(privKey)

	bigChainID := big.NewInt(int64(chainID))

	var tx *types.Transaction
	if estimate.IsLegacy {
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       &to,
			Value:    value,
			Gas:      estimate.GasLimit,
			GasPrice: estimate.MaxFeePerGas,
			Data:     data,
		})
	} else {
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   bigChainID,
			Nonce:     nonce,
			To:        &to,
			Value:     value,
			Gas:       estimate.GasLimit,
			GasFeeCap: estimate.MaxFeePerGas,
			GasTipCap: estimate.MaxPriorityFeePerGas,
			Data:      data,
		})
	}

	signer := types.LatestSignerForChainID(bigChainID)
	signed, err := types.SignTx(tx, signer, privKey)
	if err != nil {
		return nil, cordonerrors.Wrap(cordonerrors.ErrTransactionFailed, "signing transaction: %v", err)
	}
	return signed, nil
}

func zeroECDSA(key *ecdsa.PrivateKey) {
	if key == nil || key.D == nil {
		return
	}
	key.D.SetInt64(0)
}

func broadcast(ctx context.Context, client RPCClient, chainID chain.ID, tx *types.Transaction) (*SendResult, error) {
	if err := client.SendTransaction(ctx, tx); err != nil {
		return nil, classifyCallError(err)
	}
	hash := tx.Hash().Hex()
	return &SendResult{
		Hash:        hash,
		ChainID:     chainID,
		ExplorerURL: chain.ExplorerURL(chainID, hash),
	}, nil
}

// SendNative builds, signs, and broadcasts a native-coin transfer.
func SendNative(ctx context.Context, client RPCClient, key *keys.EVMKeyPair, chainID chain.ID, to string, amountWei *big.Int, speed GasSpeed) (*SendResult, error) {
	if err := ValidateAddressShape(to); err != nil {
		return nil, err
	}

	estimate, err := EstimateNativeGas(ctx, client, speed)
	if err != nil {
		return nil, err
	}

	nonce, err := client.PendingNonceAt(ctx, common.HexToAddress(key.Address))
	if err != nil {
		return nil, cordonerrors.Wrap(cordonerrors.ErrNonceError, "fetching nonce: %v", err)
	}

	signed, err := buildAndSign(key.PrivateKeyBytes, chainID, nonce, common.HexToAddress(to), amountWei, nil, estimate)
	if err != nil {
		return nil, err
	}

	return broadcast(ctx, client, chainID, signed)
}

// SendERC20 builds, signs, and broadcasts an ERC-20 transfer.
func SendERC20(ctx context.Context, client RPCClient, key *keys.EVMKeyPair, chainID chain.ID, tokenAddress, to string, amount *big.Int, speed GasSpeed) (*SendResult, error) {
	if err := ValidateAddressShape(tokenAddress); err != nil {
		return nil, err
	}
	if err := ValidateAddressShape(to); err != nil {
		return nil, err
	}

	estimate, err := EstimateERC20Gas(ctx, client, speed)
	if err != nil {
		return nil, err
	}

	nonce, err := client.PendingNonceAt(ctx, common.HexToAddress(key.Address))
	if err != nil {
		return nil, cordonerrors.Wrap(cordonerrors.ErrNonceError, "fetching nonce: %v", err)
	}

	data := BuildERC20TransferData(to, amount)
	signed, err := buildAndSign(key.PrivateKeyBytes, chainID, nonce, common.HexToAddress(tokenAddress), big.NewInt(0), data, estimate)
	if err != nil {
		return nil, err
	}

	return broadcast(ctx, client, chainID, signed)
}

// SendApproval builds, signs, and broadcasts an ERC-20 approve(spender,
// amount) call. Callers MUST run the approval policy engine first — this
// function only submits; it performs no policy evaluation itself, per the
// signer/approval-engine layering that keeps the two packages acyclic.
func SendApproval(ctx context.Context, client RPCClient, key *keys.EVMKeyPair, chainID chain.ID, tokenAddress, spender string, amount *big.Int, speed GasSpeed) (*SendResult, error) {
	if err := ValidateAddressShape(tokenAddress); err != nil {
		return nil, err
	}
	if err := ValidateAddressShape(spender); err != nil {
		return nil, err
	}

	estimate, err := EstimateApprovalGas(ctx, client, speed)
	if err != nil {
		return nil, err
	}

	nonce, err := client.PendingNonceAt(ctx, common.HexToAddress(key.Address))
	if err != nil {
		return nil, cordonerrors.Wrap(cordonerrors.ErrNonceError, "fetching nonce: %v", err)
	}

	data := BuildERC20ApproveData(spender, amount)
	signed, err := buildAndSign(key.PrivateKeyBytes, chainID, nonce, common.HexToAddress(tokenAddress), big.NewInt(0), data, estimate)
	if err != nil {
		return nil, err
	}

	return broadcast(ctx, client, chainID, signed)
}

// RawSendRequest is an arbitrary (to, value, data) call, used by the dApp
// bridge for requests the signer has no dedicated operation for.
type RawSendRequest struct {
	To    string
	Value *big.Int
	Data  []byte
	Gas   uint64 // 0 means "estimate"
}

// SendRawTransaction builds, signs, and broadcasts an arbitrary call.
// When req.Gas is zero it estimates the gas limit via eth_estimateGas
// first.
func SendRawTransaction(ctx context.Context, client RPCClient, key *keys.EVMKeyPair, chainID chain.ID, req RawSendRequest, speed GasSpeed) (*SendResult, error) {
	if err := ValidateAddressShape(req.To); err != nil {
		return nil, err
	}

	value := req.Value
	if value == nil {
		value = big.NewInt(0)
	}

	var estimate *GasEstimate
	var err error
	if req.Gas == 0 {
		from := common.HexToAddress(key.Address)
		to := common.HexToAddress(req.To)
		estimate, err = EstimateRawGas(ctx, client, ethereum.CallMsg{
			From:  from,
			To:    &to,
			Value: value,
			Data:  req.Data,
		}, speed)
	} else {
		estimate, err = buildEstimate(ctx, client, speed, req.Gas)
	}
	if err != nil {
		return nil, err
	}

	nonce, err := client.PendingNonceAt(ctx, common.HexToAddress(key.Address))
	if err != nil {
		return nil, cordonerrors.Wrap(cordonerrors.ErrNonceError, "fetching nonce: %v", err)
	}

	signed, err := buildAndSign(key.PrivateKeyBytes, chainID, nonce, common.HexToAddress(req.To), value, req.Data, estimate)
	if err != nil {
		return nil, err
	}

	return broadcast(ctx, client, chainID, signed)
}

// DeriveAddress recovers the checksum address for a raw private key, used
// by tests and by the vault when cross-checking a derived keypair.
func DeriveAddress(privKeyBytes []byte) (string, error) {
	privKey, err := crypto.ToECDSA(privKeyBytes)
	if err != nil {
		return "", fmt.Errorf("parsing private key: %w", err)
	}
	defer zeroECDSA(privKey)

	addr := crypto.PubkeyToAddress(privKey.PublicKey)
	checksum, err := cordoncrypto.ToChecksumAddress(addr.Bytes())
	if err != nil {
		return "", err
	}
	return checksum, nil
}
