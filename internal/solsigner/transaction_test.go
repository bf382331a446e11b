package solsigner_test

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/memo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cordon/internal/solsigner"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

func buildUnsignedMemoTx(t *testing.T, pub solana.PublicKey) string {
	t.Helper()

	ix := memo.NewMemoInstruction([]byte("cordon-test"), pub).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(pub))
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestSignTransaction_SignsAndReencodes(t *testing.T) {
	t.Parallel()

	key := testSolanaKeyPair(t)
	pub, err := solana.PublicKeyFromBase58(key.Address)
	require.NoError(t, err)

	unsignedB64 := buildUnsignedMemoTx(t, pub)

	signedB64, err := solsigner.SignTransaction(key, unsignedB64)
	require.NoError(t, err)
	require.NotEmpty(t, signedB64)

	raw, err := base64.StdEncoding.DecodeString(signedB64)
	require.NoError(t, err)

	signedTx, err := solana.TransactionFromBytes(raw)
	require.NoError(t, err)
	require.Len(t, signedTx.Signatures, 1)
	assert.NotZero(t, signedTx.Signatures[0])

	msgBytes, err := signedTx.Message.MarshalBinary()
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(key.PrivateKey.Public().(ed25519.PublicKey), msgBytes, signedTx.Signatures[0][:])) //nolint:forcetypeassert
}

func TestSignTransaction_RejectsInvalidBase64(t *testing.T) {
	t.Parallel()

	key := testSolanaKeyPair(t)
	_, err := solsigner.SignTransaction(key, "not-base64!!!")
	require.Error(t, err)
	assert.Equal(t, cordonerrors.CodeTransactionFailed, cordonerrors.Code(err))
}

func TestSignTransaction_RejectsWhenWalletNotASigner(t *testing.T) {
	t.Parallel()

	other := testSolanaKeyPair(t)
	otherPub, err := solana.PublicKeyFromBase58(other.Address)
	require.NoError(t, err)
	unsignedB64 := buildUnsignedMemoTx(t, otherPub)

	key := testSolanaKeyPair(t)
	_, err = solsigner.SignTransaction(key, unsignedB64)
	require.Error(t, err)
	assert.Equal(t, cordonerrors.CodeTransactionFailed, cordonerrors.Code(err))
}
