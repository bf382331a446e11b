package evmsigner

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/mrz1836/cordon/internal/keys"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// decodePersonalMessage implements the EIP-191 input convention: a string
// starting with "0x" is raw hex bytes, anything else is taken as UTF-8.
func decodePersonalMessage(input string) ([]byte, error) {
	if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
		b, err := hex.DecodeString(input[2:])
		if err != nil {
			return nil, cordonerrors.New(cordonerrors.CodeTransactionFailed, "invalid hex message: "+err.Error())
		}
		return b, nil
	}
	return []byte(input), nil
}

// hashPersonalMessage applies the EIP-191 "\x19Ethereum Signed Message:\n"
// prefix and keccak256-hashes the result.
func hashPersonalMessage(message []byte) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	return crypto.Keccak256([]byte(prefix), message)
}

// SignPersonalMessage implements EIP-191 personal_sign.
func SignPersonalMessage(key *keys.EVMKeyPair, input string) (string, error) {
	message, err := decodePersonalMessage(input)
	if err != nil {
		return "", err
	}

	privKey, err := crypto.ToECDSA(key.PrivateKeyBytes)
	if err != nil {
		return "", cordonerrors.Wrap(cordonerrors.ErrTransactionFailed, "parsing private key: %v", err)
	}
	defer zeroECDSA(privKey)

	hash := hashPersonalMessage(message)
	sig, err := crypto.Sign(hash, privKey)
	if err != nil {
		return "", cordonerrors.Wrap(cordonerrors.ErrTransactionFailed, "signing message: %v", err)
	}

	// personal_sign convention: recovery byte is 27/28, not 0/1.
	sig[64] += 27

	return "0x" + hex.EncodeToString(sig), nil
}

// TypedDataSummary is a human-readable rendering of the domain a
// signTypedData request is scoped to, surfaced by the confirmation UI.
type TypedDataSummary struct {
	Name              string
	Version           string
	ChainID           string
	VerifyingContract string
	PrimaryType       string
}

// summarizeDomain extracts display fields from a TypedData domain without
// requiring every field to be present (EIP-712 domains are a la carte).
func summarizeDomain(data *apitypes.TypedData) TypedDataSummary {
	summary := TypedDataSummary{
		PrimaryType:       data.PrimaryType,
		Name:              data.Domain.Name,
		Version:           data.Domain.Version,
		VerifyingContract: data.Domain.VerifyingContract,
	}
	if data.Domain.ChainId != nil {
		summary.ChainID = (*big.Int)(data.Domain.ChainId).String()
	}
	return summary
}

// SignTypedData implements EIP-712 v4 structured-data signing, following
// the same domainSeparator || messageHash construction go-ethereum's own
// eth_signTypedData_v4 handler uses. Returns the signature hex and a
// domain-aware summary for the confirmation UI.
func SignTypedData(key *keys.EVMKeyPair, data apitypes.TypedData) (string, TypedDataSummary, error) {
	summary := summarizeDomain(&data)

	domainSeparator, err := data.HashStruct("EIP712Domain", data.Domain.Map())
	if err != nil {
		return "", summary, cordonerrors.New(cordonerrors.CodeTransactionFailed, "hashing domain: "+err.Error())
	}

	messageHash, err := data.HashStruct(data.PrimaryType, data.Message)
	if err != nil {
		return "", summary, cordonerrors.New(cordonerrors.CodeTransactionFailed, "hashing message: "+err.Error())
	}

	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(messageHash)))
	sighash := crypto.Keccak256(rawData)

	privKey, err := crypto.ToECDSA(key.PrivateKeyBytes)
	if err != nil {
		return "", summary, cordonerrors.Wrap(cordonerrors.ErrTransactionFailed, "parsing private key: %v", err)
	}
	defer zeroECDSA(privKey)

	sig, err := crypto.Sign(sighash, privKey)
	if err != nil {
		return "", summary, cordonerrors.Wrap(cordonerrors.ErrTransactionFailed, "signing typed data: %v", err)
	}
	sig[64] += 27

	return "0x" + hex.EncodeToString(sig), summary, nil
}
