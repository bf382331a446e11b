package solsigner

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/mrz1836/cordon/internal/keys"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// PreparedTransfer is what a TransferBuilder hands back: an unsigned,
// fully-built transaction and the exact byte range the wallet must sign
// over. The wallet never constructs the transaction itself — account
// resolution (ATA derivation, recent blockhash, compute budget) is the
// collaborator's job, keeping this package free of RPC dependencies.
type PreparedTransfer struct {
	// UnsignedTxBase64 is the serialized, unsigned transaction.
	UnsignedTxBase64 string
	// SignableMessage is the exact byte range the signature covers (the
	// transaction's message portion).
	SignableMessage []byte
}

// TransferBuilder is the external collaborator that builds an unsigned
// native SOL or SPL token transfer for signing. Implementations own RPC
// access (blockhash, ATA existence checks, rent) — this package only
// signs what it is handed.
type TransferBuilder interface {
	BuildSolTransfer(ctx context.Context, walletID, to string, lamports uint64) (PreparedTransfer, error)
	BuildSplTransfer(ctx context.Context, walletID, mint, to string, amountRaw *big.Int) (PreparedTransfer, error)
}

// Submitter is the external collaborator that broadcasts an already-signed
// transfer and returns its signature.
type Submitter interface {
	Submit(ctx context.Context, signedTxBase64 string) (signature string, err error)
}

// signAndAttach signs message with key, splices the signature into the
// transaction at the position matching key's public key among the
// transaction's static account keys, and returns the re-encoded
// transaction ready for submission.
func signAndAttach(key *keys.SolanaKeyPair, prepared PreparedTransfer) (string, error) {
	tx, err := decodeTransaction(prepared.UnsignedTxBase64)
	if err != nil {
		return "", err
	}

	idx := -1
	pub, err := solana.PublicKeyFromBase58(key.Address)
	if err != nil {
		return "", cordonerrors.New(cordonerrors.CodeTransactionFailed, "invalid wallet address: "+err.Error())
	}
	for i, k := range tx.Message.AccountKeys {
		if k.Equals(pub) {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(tx.Signatures) {
		return "", cordonerrors.New(cordonerrors.CodeTransactionFailed, "wallet is not a required signer of this transfer")
	}

	sig := ed25519.Sign(key.PrivateKey, prepared.SignableMessage)
	copy(tx.Signatures[idx][:], sig)

	signed, err := tx.MarshalBinary()
	if err != nil {
		return "", cordonerrors.New(cordonerrors.CodeTransactionFailed, "serializing signed transfer: "+err.Error())
	}
	return base64.StdEncoding.EncodeToString(signed), nil
}

// PrepareSolTransfer builds, signs, and submits a native SOL transfer
// through the given collaborators. Only the message is ever presented to
// the keypair for signing; the build and submit steps never see it.
func PrepareSolTransfer(ctx context.Context, builder TransferBuilder, submitter Submitter, key *keys.SolanaKeyPair, walletID, to string, lamports uint64) (string, error) {
	prepared, err := builder.BuildSolTransfer(ctx, walletID, to, lamports)
	if err != nil {
		return "", err
	}

	signedTx, err := signAndAttach(key, prepared)
	if err != nil {
		return "", err
	}

	return submitter.Submit(ctx, signedTx)
}

// PrepareSplTransfer builds, signs, and submits an SPL token transfer
// through the given collaborators.
func PrepareSplTransfer(ctx context.Context, builder TransferBuilder, submitter Submitter, key *keys.SolanaKeyPair, walletID, mint, to string, amountRaw *big.Int) (string, error) {
	prepared, err := builder.BuildSplTransfer(ctx, walletID, mint, to, amountRaw)
	if err != nil {
		return "", err
	}

	signedTx, err := signAndAttach(key, prepared)
	if err != nil {
		return "", err
	}

	return submitter.Submit(ctx, signedTx)
}
