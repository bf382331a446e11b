package cordoncrypto

import "errors"

// Package-level sentinel errors for the crypto primitives. Higher layers
// (vault, keys) wrap these into *cordonerrors.CordonError at their public
// boundary; this package stays dependency-light and returns plain errors.
var (
	ErrInvalidMnemonic       = errors.New("invalid mnemonic phrase")
	ErrUnsupportedCoinType   = errors.New("unsupported coin type")
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
)
