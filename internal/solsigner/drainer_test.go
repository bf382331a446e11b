package solsigner

import (
	"encoding/base64"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

func newTestWallet(t *testing.T) solana.PublicKey {
	t.Helper()
	var raw [32]byte
	raw[0] = 0x01
	return solana.PublicKeyFromBytes(raw[:])
}

func newTestPubkey(seed byte) solana.PublicKey {
	var raw [32]byte
	raw[0] = seed
	return solana.PublicKeyFromBytes(raw[:])
}

func TestInspectForDrainer_BlocksTokenAccountOwnerHijack(t *testing.T) {
	t.Parallel()

	wallet := newTestWallet(t)
	attacker := newTestPubkey(0x99)

	data := []byte{tokenInstructionSetAuthority, tokenAuthorityTypeAccountOwner, 1}
	data = append(data, attacker.Bytes()...)

	tx := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: []solana.PublicKey{wallet, tokenProgramID, attacker},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []uint16{2, 0}, Data: data},
			},
		},
	}

	err := InspectForDrainer(tx, wallet.String())
	require.Error(t, err)
	assert.Equal(t, cordonerrors.CodeDrainerBlocked, cordonerrors.Code(err))

	var ce *cordonerrors.CordonError
	require.True(t, cordonerrors.As(err, &ce))
	assert.Equal(t, AttackTypeTokenAuthorityHijack, ce.Details["attackType"])
}

func TestInspectForDrainer_AllowsOtherAuthorityTypes(t *testing.T) {
	t.Parallel()

	wallet := newTestWallet(t)
	other := newTestPubkey(0x55)

	// AuthorityType=CloseAccount(3), not AccountOwner — must not block.
	data := []byte{tokenInstructionSetAuthority, 3, 0}

	tx := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: []solana.PublicKey{wallet, tokenProgramID, other},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []uint16{2, 0}, Data: data},
			},
		},
	}

	require.NoError(t, InspectForDrainer(tx, wallet.String()))
}

func TestInspectForDrainer_BlocksSystemAssignHijack(t *testing.T) {
	t.Parallel()

	wallet := newTestWallet(t)
	maliciousProgram := newTestPubkey(0x42)

	data := make([]byte, 4, 36)
	data[0] = byte(systemInstructionAssign)
	data = append(data, maliciousProgram.Bytes()...)

	tx := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: []solana.PublicKey{wallet, systemProgramID, maliciousProgram},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []uint16{0}, Data: data},
			},
		},
	}

	err := InspectForDrainer(tx, wallet.String())
	require.Error(t, err)
	assert.Equal(t, cordonerrors.CodeDrainerBlocked, cordonerrors.Code(err))

	var ce *cordonerrors.CordonError
	require.True(t, cordonerrors.As(err, &ce))
	assert.Equal(t, AttackTypeAccountOwnerHijack, ce.Details["attackType"])
}

func TestInspectForDrainer_AllowsAssignBackToSystemProgram(t *testing.T) {
	t.Parallel()

	wallet := newTestWallet(t)

	data := make([]byte, 4, 36)
	data[0] = byte(systemInstructionAssign)
	data = append(data, systemProgramID.Bytes()...)

	tx := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: []solana.PublicKey{wallet, systemProgramID},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []uint16{0}, Data: data},
			},
		},
	}

	require.NoError(t, InspectForDrainer(tx, wallet.String()))
}

func TestInspectForDrainer_IgnoresUnrelatedPrograms(t *testing.T) {
	t.Parallel()

	wallet := newTestWallet(t)
	memoProgram := newTestPubkey(0x77)

	tx := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: []solana.PublicKey{wallet, memoProgram},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []uint16{0}, Data: []byte("hello")},
			},
		},
	}

	require.NoError(t, InspectForDrainer(tx, wallet.String()))
}

func TestCheckTransactionForDrainer_BlocksEncodedHijack(t *testing.T) {
	t.Parallel()

	wallet := newTestWallet(t)
	attacker := newTestPubkey(0x99)

	data := []byte{tokenInstructionSetAuthority, tokenAuthorityTypeAccountOwner, 1}
	data = append(data, attacker.Bytes()...)

	tx := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: []solana.PublicKey{wallet, tokenProgramID, attacker},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []uint16{2, 0}, Data: data},
			},
		},
	}
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	err = CheckTransactionForDrainer(wallet.String(), base64.StdEncoding.EncodeToString(raw))
	require.Error(t, err)
	assert.Equal(t, cordonerrors.CodeDrainerBlocked, cordonerrors.Code(err))
}

func TestCheckTransactionForDrainer_RejectsInvalidBase64(t *testing.T) {
	t.Parallel()

	wallet := newTestWallet(t)
	err := CheckTransactionForDrainer(wallet.String(), "not-base64!!!")
	require.Error(t, err)
	assert.Equal(t, cordonerrors.CodeTransactionFailed, cordonerrors.Code(err))
}
