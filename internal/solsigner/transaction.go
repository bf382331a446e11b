package solsigner

import (
	"encoding/base64"

	"github.com/gagliardetto/solana-go"

	"github.com/mrz1836/cordon/internal/keys"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// decodeTransaction deserializes a base64 wire transaction. solana-go's
// decoder inspects the message's leading version byte itself — a
// versioned (v0) message sets its high bit, a legacy message does not —
// and falls back to the legacy shape transparently, so a single decode
// call covers the versioned-then-legacy attempt the signing flow makes.
func decodeTransaction(base64Tx string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Tx)
	if err != nil {
		return nil, cordonerrors.New(cordonerrors.CodeTransactionFailed, "invalid base64 transaction: "+err.Error())
	}

	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return nil, cordonerrors.New(cordonerrors.CodeTransactionFailed, "decoding transaction: "+err.Error())
	}
	return tx, nil
}

// hasSigner reports whether address appears among the transaction's
// static account keys, which is required before tx.Sign can place a
// signature for it.
func hasSigner(tx *solana.Transaction, address string) bool {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return false
	}
	for _, k := range tx.Message.AccountKeys {
		if k.Equals(pub) {
			return true
		}
	}
	return false
}

// SignTransaction decodes a base64-encoded Solana transaction, runs the
// drainer decoder over its instructions, signs it with key, and
// re-serializes the result as base64. The drainer check runs before
// signing ever touches the keypair — a blocked transaction is never
// signed, regardless of caller behavior afterward.
func SignTransaction(key *keys.SolanaKeyPair, base64Tx string) (string, error) {
	tx, err := decodeTransaction(base64Tx)
	if err != nil {
		return "", err
	}

	if err := InspectForDrainer(tx, key.Address); err != nil {
		return "", err
	}

	if !hasSigner(tx, key.Address) {
		return "", cordonerrors.New(cordonerrors.CodeTransactionFailed, "wallet is not a required signer of this transaction")
	}

	signingKey := solana.PrivateKey(key.PrivateKey)
	if _, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(signingKey.PublicKey()) {
			return &signingKey
		}
		return nil
	}); err != nil {
		return "", cordonerrors.New(cordonerrors.CodeTransactionFailed, "signing transaction: "+err.Error())
	}

	signed, err := tx.MarshalBinary()
	if err != nil {
		return "", cordonerrors.New(cordonerrors.CodeTransactionFailed, "serializing signed transaction: "+err.Error())
	}

	return base64.StdEncoding.EncodeToString(signed), nil
}
