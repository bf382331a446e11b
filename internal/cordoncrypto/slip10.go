package cordoncrypto

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
)

// slip10Ed25519Curve is the SLIP-0010 HMAC key for the Ed25519 curve type,
// fixed by the specification at https://github.com/satoshilabs/slips/blob/master/slip-0010.md.
var slip10Ed25519Curve = []byte("ed25519 seed")

// HardenedOffset is added to an index to mark it hardened, per BIP32/
// SLIP-0010. SLIP-0010's Ed25519 variant only defines hardened
// derivation — every step along the chain is implicitly hardened.
const HardenedOffset = uint32(0x80000000)

// ed25519ExtendedKey is a SLIP-0010 node: a 32-byte Ed25519 seed and its
// 32-byte chain code.
type ed25519ExtendedKey struct {
	key       [32]byte
	chainCode [32]byte
}

// slip10MasterKey derives the master node from a BIP39 seed, per SLIP-0010
// section "Master key generation".
func slip10MasterKey(seed []byte) ed25519ExtendedKey {
	mac := hmac.New(sha512.New, slip10Ed25519Curve)
	mac.Write(seed)
	sum := mac.Sum(nil)

	var out ed25519ExtendedKey
	copy(out.key[:], sum[:32])
	copy(out.chainCode[:], sum[32:])
	return out
}

// slip10Child derives hardened child index from parent, per SLIP-0010's
// Ed25519 child key derivation (CKDpriv): data = 0x00 || parent key || index.
func slip10Child(parent ed25519ExtendedKey, index uint32) ed25519ExtendedKey {
	var data [1 + 32 + 4]byte
	data[0] = 0x00
	copy(data[1:33], parent.key[:])
	binary.BigEndian.PutUint32(data[33:37], index|HardenedOffset)

	mac := hmac.New(sha512.New, parent.chainCode[:])
	mac.Write(data[:])
	sum := mac.Sum(nil)

	var out ed25519ExtendedKey
	copy(out.key[:], sum[:32])
	copy(out.chainCode[:], sum[32:])
	return out
}

// DeriveSLIP10Ed25519 walks seed through a sequence of hardened path
// segments (e.g. for m/44'/501'/0'/0', the segments are [44, 501, 0, 0])
// and returns the resulting 32-byte Ed25519 seed.
//
// No library in Cordon's dependency set implements SLIP-0010; it is a
// short, fully-specified HMAC-SHA512 chain, hand-rolled here directly
// against the published algorithm rather than pulled in as a one-off
// external dependency.
func DeriveSLIP10Ed25519(seed []byte, segments ...uint32) ([32]byte, error) {
	if len(seed) == 0 {
		return [32]byte{}, fmt.Errorf("%w: empty seed", ErrInvalidDerivationPath)
	}

	node := slip10MasterKey(seed)
	for _, idx := range segments {
		node = slip10Child(node, idx)
	}
	return node.key, nil
}

// Ed25519KeyFromSeed expands a 32-byte Ed25519 seed into the standard
// 64-byte library representation (seed || public key), matching
// crypto/ed25519's NewKeyFromSeed.
func Ed25519KeyFromSeed(seed [32]byte) ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(seed[:])
}
