// Package solsigner implements Cordon's Solana signing surface: message
// and transaction signing, server-assisted transfer preparation, and the
// drainer decoder that inspects a transaction's instructions before the
// keypair ever touches it. Every operation takes an already-derived
// Solana keypair — this package never touches the vault or the mnemonic,
// mirroring the layering internal/evmsigner uses for the EVM side.
package solsigner

import (
	"github.com/gagliardetto/solana-go"
)

// systemProgramID and tokenProgramID are solana-go's well-known program
// id constants. token2022ProgramID has no library constant, so it is
// declared directly: Token-2022 carries the same SetAuthority instruction
// shape as the original token program, so the drainer decoder treats both
// identically.
var (
	systemProgramID    = solana.SystemProgramID
	tokenProgramID     = solana.TokenProgramID
	token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)
