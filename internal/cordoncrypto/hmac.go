package cordoncrypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// SealHMAC computes an HMAC-SHA256 tag over body using key, for the
// tamper-evident envelope the approval ledger wraps its on-disk JSON
// body in.
func SealHMAC(key, body []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return mac.Sum(nil)
}

// VerifyHMAC reports whether tag is the correct HMAC-SHA256 of body under
// key, using a constant-time comparison.
func VerifyHMAC(key, body, tag []byte) bool {
	expected := SealHMAC(key, body)
	return ConstantTimeEqual(expected, tag)
}
