package solsigner

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// Attack type tags attached to a blocked transaction's error details,
// distinguishing the two recognized drainer patterns for the UI.
const (
	AttackTypeTokenAuthorityHijack = "token_authority_hijack"
	AttackTypeAccountOwnerHijack   = "account_owner_hijack"
)

// SPL Token instruction layout (shared by the legacy token program and
// Token-2022): byte 0 is the instruction discriminant, SetAuthority is 6.
// Decoded the same way internal/evmsigner and internal/approval decode
// their fixed-shape calldata — a raw byte read rather than pulling in a
// full instruction-builder round trip for a single instruction shape.
const (
	tokenInstructionSetAuthority   = 6
	tokenAuthorityTypeAccountOwner = 2
)

// System program instruction layout: a little-endian u32 discriminant,
// Assign is 1, followed by the new owner pubkey.
const systemInstructionAssign uint32 = 1

// InspectForDrainer walks every instruction in tx and blocks the two
// known wallet-drainer patterns before a signature is ever produced:
//
//   - SetAuthority(AccountOwner) reassigning a token account's owner away
//     from walletAddress.
//   - The system program's Assign reassigning walletAddress itself to a
//     non-system owning program.
//
// Instructions referencing an address-lookup-table entry rather than a
// static account key are skipped: Cordon has no way to resolve those
// offline, and every known drainer pattern encodes its target as a
// static account so the tradeoff costs no real coverage.
func InspectForDrainer(tx *solana.Transaction, walletAddress string) error {
	wallet, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		return cordonerrors.New(cordonerrors.CodeTransactionFailed, "invalid wallet address: "+err.Error())
	}

	keys := tx.Message.AccountKeys

	for _, ix := range tx.Message.Instructions {
		if int(ix.ProgramIDIndex) >= len(keys) {
			continue
		}
		programID := keys[ix.ProgramIDIndex]

		switch {
		case programID.Equals(tokenProgramID) || programID.Equals(token2022ProgramID):
			if blocked := inspectTokenInstruction(ix, keys, wallet); blocked {
				return drainerBlockedError(AttackTypeTokenAuthorityHijack,
					"instruction reassigns a token account owned by this wallet to a new authority")
			}
		case programID.Equals(systemProgramID):
			if blocked := inspectSystemInstruction(ix, keys, wallet); blocked {
				return drainerBlockedError(AttackTypeAccountOwnerHijack,
					"instruction reassigns this wallet's account to a non-system program")
			}
		}
	}

	return nil
}

// CheckTransactionForDrainer decodes a base64 wire transaction and runs
// InspectForDrainer against it, giving callers that only ever hold the
// wire-format string (the bridge, in particular) a drainer check with no
// solana-go dependency of their own.
func CheckTransactionForDrainer(walletAddress, base64Tx string) error {
	tx, err := decodeTransaction(base64Tx)
	if err != nil {
		return err
	}
	return InspectForDrainer(tx, walletAddress)
}

func inspectTokenInstruction(ix solana.CompiledInstruction, keys []solana.PublicKey, wallet solana.PublicKey) bool {
	data := []byte(ix.Data)
	if len(data) < 3 || data[0] != tokenInstructionSetAuthority {
		return false
	}
	if data[1] != tokenAuthorityTypeAccountOwner {
		return false
	}
	// accounts[0] = token account, accounts[1] = current authority.
	if len(ix.Accounts) < 2 {
		return false
	}
	currentAuthorityIdx := ix.Accounts[1]
	if int(currentAuthorityIdx) >= len(keys) {
		return false
	}
	return keys[currentAuthorityIdx].Equals(wallet)
}

func inspectSystemInstruction(ix solana.CompiledInstruction, keys []solana.PublicKey, wallet solana.PublicKey) bool {
	data := []byte(ix.Data)
	if len(data) < 36 {
		return false
	}
	discriminant := binary.LittleEndian.Uint32(data[0:4])
	if discriminant != systemInstructionAssign {
		return false
	}
	if len(ix.Accounts) < 1 {
		return false
	}
	assignedIdx := ix.Accounts[0]
	if int(assignedIdx) >= len(keys) {
		return false
	}
	if !keys[assignedIdx].Equals(wallet) {
		return false
	}

	newOwner := solana.PublicKeyFromBytes(data[4:36])
	return !newOwner.Equals(systemProgramID)
}

func drainerBlockedError(attackType, detail string) error {
	err := cordonerrors.New(cordonerrors.CodeDrainerBlocked, "wallet drainer detected: "+detail)
	return cordonerrors.WithDetails(err, map[string]string{"attackType": attackType})
}
