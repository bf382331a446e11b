package cordoncrypto

import "github.com/mr-tron/base58"

// Base58Encode encodes data using the Bitcoin/Solana base58 alphabet.
func Base58Encode(data []byte) string {
	return base58.Encode(data)
}

// Base58Decode decodes a base58 string back to bytes.
func Base58Decode(s string) ([]byte, error) {
	return base58.Decode(s)
}
