package cordoncrypto

import (
	"math"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/cosmos/go-bip39"
)

// MaxTypoDistance is the Levenshtein distance above which a BIP39 word
// list entry is too different from the input to suggest.
const MaxTypoDistance = 2

// MnemonicEntropyBits is the only entropy size Cordon vaults accept: BIP39
// 128-bit entropy, 12 words.
const MnemonicEntropyBits = 128

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeMnemonic lowercases, collapses whitespace, and trims a mnemonic
// phrase as entered by a user. Normalization happens before validation and
// before seed derivation so two differently-formatted entries of the same
// phrase derive identical keys.
func NormalizeMnemonic(input string) string {
	input = strings.ToLower(input)
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// GenerateMnemonic creates a fresh 12-word BIP39 mnemonic from 128 bits of
// entropy.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// ValidateMnemonic reports whether phrase is a normalizable, 12-word,
// checksum-valid BIP39 mnemonic.
func ValidateMnemonic(phrase string) bool {
	normalized := NormalizeMnemonic(phrase)
	if len(strings.Fields(normalized)) != 12 {
		return false
	}
	_, err := bip39.MnemonicToByteArray(normalized)
	return err == nil
}

// MnemonicToSeed derives the 64-byte BIP39 seed from a mnemonic, validating
// it first. The passphrase is always empty for Cordon vaults (spec carries
// no passphrase concept); callers pass "" and the empty string is hashed
// into the seed per BIP39's own construction.
func MnemonicToSeed(phrase string) ([]byte, error) {
	normalized := NormalizeMnemonic(phrase)
	if !ValidateMnemonic(normalized) {
		return nil, ErrInvalidMnemonic
	}
	return bip39.NewSeed(normalized, ""), nil
}

// IsValidWord reports whether word (case-insensitive) is in the BIP39
// English word list.
func IsValidWord(word string) bool {
	word = strings.ToLower(word)
	for _, w := range bip39.WordList {
		if w == word {
			return true
		}
	}
	return false
}

// SuggestWord returns the BIP39 word list entry closest to input by
// Levenshtein distance, or "" if the closest entry is still farther than
// MaxTypoDistance away.
func SuggestWord(input string) string {
	input = strings.ToLower(input)

	minDist := math.MaxInt
	var suggestion string

	for _, word := range bip39.WordList {
		dist := levenshtein.ComputeDistance(input, word)
		if dist == 0 {
			return word
		}
		if dist < minDist {
			minDist = dist
			suggestion = word
		}
	}

	if minDist <= MaxTypoDistance {
		return suggestion
	}
	return ""
}

// TypoSuggestion is one word in a rejected mnemonic that isn't in the
// BIP39 word list, along with the closest valid word (if any).
type TypoSuggestion struct {
	Index      int
	Word       string
	Suggestion string
	Distance   int
}

// DetectTypos scans phrase for words outside the BIP39 word list and
// returns a suggestion for each, so a caller can show the user "word 3:
// 'wolrd' — did you mean 'world'?" instead of a bare invalid-mnemonic
// error. Returns nil if every word is already valid (which does not by
// itself mean the mnemonic's checksum is correct — use ValidateMnemonic
// for that).
func DetectTypos(phrase string) []TypoSuggestion {
	words := strings.Fields(NormalizeMnemonic(phrase))

	var typos []TypoSuggestion
	for i, word := range words {
		if IsValidWord(word) {
			continue
		}
		suggestion := SuggestWord(word)
		distance := 0
		if suggestion != "" {
			distance = levenshtein.ComputeDistance(word, suggestion)
		}
		typos = append(typos, TypoSuggestion{
			Index: i, Word: word, Suggestion: suggestion, Distance: distance,
		})
	}
	return typos
}
