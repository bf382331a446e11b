package solsigner

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/mrz1836/cordon/internal/cordoncrypto"
	"github.com/mrz1836/cordon/internal/keys"
)

// decodeMessageInput resolves the dual encoding signMessage accepts: a
// caller may pass a base64-encoded payload or a plain UTF-8 string, and
// there is no out-of-band flag distinguishing the two. A strict base64
// decode is attempted first; any string that is not valid base64 is taken
// as UTF-8 bytes verbatim.
func decodeMessageInput(input string) []byte {
	if decoded, err := base64.StdEncoding.DecodeString(input); err == nil {
		return decoded
	}
	return []byte(input)
}

// SignMessage signs message with key's Ed25519 private key, returning the
// base58-encoded signature. message is decoded per decodeMessageInput
// before signing.
func SignMessage(key *keys.SolanaKeyPair, message string) (string, error) {
	payload := decodeMessageInput(message)
	sig := ed25519.Sign(key.PrivateKey, payload)
	return cordoncrypto.Base58Encode(sig), nil
}
