package cordoncrypto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cordon/internal/cordoncrypto"
)

func TestSealVaultOpenVaultRoundTrip(t *testing.T) {
	plaintext := []byte(`{"mnemonics":{"wallet-1":"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"}}`)

	sealed, err := cordoncrypto.SealVault("123456", plaintext)
	require.NoError(t, err)
	require.Equal(t, cordoncrypto.VaultVersion, sealed.Version)
	require.Len(t, sealed.Salt, 32)
	require.Len(t, sealed.IV, 24)

	opened, err := cordoncrypto.OpenVault("123456", sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestOpenVaultWrongPINFails(t *testing.T) {
	sealed, err := cordoncrypto.SealVault("123456", []byte("secret"))
	require.NoError(t, err)

	_, err = cordoncrypto.OpenVault("654321", sealed)
	require.ErrorIs(t, err, cordoncrypto.ErrDecryptionFailed)
}

func TestOpenVaultTamperedCiphertextFails(t *testing.T) {
	sealed, err := cordoncrypto.SealVault("123456", []byte("secret"))
	require.NoError(t, err)

	// Flip a character in the ciphertext to simulate tampering.
	tampered := *sealed
	prefix := "00"
	if tampered.Ciphertext[:2] == prefix {
		prefix = "ff"
	}
	tampered.Ciphertext = prefix + tampered.Ciphertext[2:]

	_, err = cordoncrypto.OpenVault("123456", &tampered)
	require.ErrorIs(t, err, cordoncrypto.ErrDecryptionFailed)
}

func TestSealVaultFreshSaltAndIVPerCall(t *testing.T) {
	a, err := cordoncrypto.SealVault("123456", []byte("secret"))
	require.NoError(t, err)
	b, err := cordoncrypto.SealVault("123456", []byte("secret"))
	require.NoError(t, err)

	require.NotEqual(t, a.Salt, b.Salt)
	require.NotEqual(t, a.IV, b.IV)
}

func TestHashPINDeterministic(t *testing.T) {
	a := cordoncrypto.HashPIN("123456")
	b := cordoncrypto.HashPIN("123456")
	require.Equal(t, a, b)

	c := cordoncrypto.HashPIN("654321")
	require.NotEqual(t, a, c)
}
