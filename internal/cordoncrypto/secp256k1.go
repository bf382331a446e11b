package cordoncrypto

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// EVMAddressLen is the length in bytes of an EVM address.
const EVMAddressLen = 20

var (
	// ErrInvalidPublicKeyLength indicates an uncompressed public key was not
	// 65 bytes with a 0x04 prefix.
	ErrInvalidPublicKeyLength = errors.New("invalid uncompressed public key length")
	// ErrInvalidAddressLength indicates an address byte slice had the wrong length.
	ErrInvalidAddressLength = errors.New("invalid address length")
)

// Keccak256 hashes data with Keccak-256 (the pre-standardization variant
// Ethereum uses, not NIST SHA3-256).
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// PubKeyToEVMAddress derives the 20-byte EVM address from an uncompressed
// (65-byte, 0x04-prefixed) secp256k1 public key: the last 20 bytes of
// Keccak-256 of the 64-byte X||Y coordinate pair.
func PubKeyToEVMAddress(uncompressedPubKey []byte) ([]byte, error) {
	if len(uncompressedPubKey) != 65 || uncompressedPubKey[0] != 0x04 {
		return nil, fmt.Errorf("%w: expected 65-byte uncompressed key with 0x04 prefix", ErrInvalidPublicKeyLength)
	}
	hash := Keccak256(uncompressedPubKey[1:])
	return hash[12:], nil
}

// FormatEVMAddressLower renders addr as a lowercase 0x-prefixed hex string.
// Per the vault's address-derivation contract, lowercase hex is the
// canonical comparison form; EIP-55 checksum casing is a display-only
// concern layered on top by ToChecksumAddress.
func FormatEVMAddressLower(addr []byte) (string, error) {
	if len(addr) != EVMAddressLen {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddressLength, EVMAddressLen, len(addr))
	}
	return "0x" + hex.EncodeToString(addr), nil
}

// ToChecksumAddress renders addr with EIP-55 mixed-case checksum, for
// display purposes only. Comparisons in the vault and approval engine
// always operate on the lowercased form.
func ToChecksumAddress(addr []byte) (string, error) {
	if len(addr) != EVMAddressLen {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddressLength, EVMAddressLen, len(addr))
	}

	addrHex := hex.EncodeToString(addr)
	hash := Keccak256([]byte(addrHex))

	result := make([]byte, len(addrHex))
	for i := 0; i < len(addrHex); i++ {
		c := addrHex[i]
		if c < '0' || c > '9' {
			nibble := hash[i/2] >> 4
			if i%2 == 1 {
				nibble = hash[i/2] & 0x0F
			}
			if nibble >= 8 {
				c -= 32 // uppercase
			}
		}
		result[i] = c
	}

	return "0x" + string(result), nil
}
