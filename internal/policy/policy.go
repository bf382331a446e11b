// Package policy implements Cordon's approval policy evaluator: a pure
// function mapping a detected approve() intent and the wallet's
// PolicySettings to an allow/block decision. It touches no disk, no
// network, and no ledger — the approval engine is the only caller, and it
// owns persistence itself, which is what keeps the two packages acyclic
// (the approval engine calls the policy engine; the policy engine never
// calls back into the approval engine, the signer or the ledger).
package policy

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/mrz1836/cordon/internal/chain"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// unlimitedThreshold is the allowance value at or above which an approval
// is treated as "unlimited" — 2^255, the conventional "infinite approval"
// marker most wallets (and the ERC-20 approve UI pattern) use.
var unlimitedThreshold = new(big.Int).Lsh(big.NewInt(1), 255)

// IsUnlimited reports whether a raw allowance counts as unlimited.
func IsUnlimited(amountRaw *big.Int) bool {
	return amountRaw != nil && amountRaw.Cmp(unlimitedThreshold) >= 0
}

// Settings is the wallet's policy configuration.
type Settings struct {
	BlockUnlimitedApprovals bool
	MaxSpendPerTransaction  string // USD decimal string
	DailySpendLimit         string // USD decimal string
	AllowlistedAddresses    []string
	DenylistedAddresses     []string
}

// ApprovalCheck is the detected approval intent, enriched with the token
// metadata the policy decision needs.
type ApprovalCheck struct {
	Spender       string
	IsUnlimited   bool
	TokenDecimals int
	// TokenPriceUSD is the token's USD price as a decimal string, when a
	// price feed collaborator has one. Empty means "unavailable" and
	// triggers the convenience-default fallback.
	TokenPriceUSD string
}

// Decision is the approval engine's policy outcome.
type Decision struct {
	Allowed               bool
	Reason                string
	SuggestedCap          *big.Int
	SuggestedCapFormatted string
}

// CheckApprovalPolicy evaluates an approval intent against settings,
// stopping at the first matching rule in precedence order: denylist,
// allowlist, then the unlimited-approval block.
func CheckApprovalPolicy(settings Settings, check ApprovalCheck) (Decision, error) {
	if containsFold(settings.DenylistedAddresses, check.Spender) {
		return Decision{Allowed: false, Reason: "Spender denylisted"}, nil
	}

	if containsFold(settings.AllowlistedAddresses, check.Spender) {
		return Decision{Allowed: true}, nil
	}

	if check.IsUnlimited && settings.BlockUnlimitedApprovals {
		cap, formatted, err := suggestedCap(settings.MaxSpendPerTransaction, check.TokenDecimals, check.TokenPriceUSD)
		if err != nil {
			return Decision{}, err
		}
		return Decision{
			Allowed:               false,
			Reason:                "Unlimited approvals are blocked by policy",
			SuggestedCap:          cap,
			SuggestedCapFormatted: formatted,
		}, nil
	}

	return Decision{Allowed: true}, nil
}

// suggestedCap computes the capped-retry amount a blocked unlimited
// approval should be re-submitted with. When a token price is available
// it targets roughly one per-transaction USD ceiling's worth of tokens
// (ceil(maxSpendUsd / tokenPriceUsd)); otherwise it falls back to the
// convention of "enough tokens for ~10x the per-tx USD ceiling, treating
// $1 as 1 token" — a convenience default, not a real price conversion.
func suggestedCap(maxSpendUSD string, tokenDecimals int, tokenPriceUSD string) (*big.Int, string, error) {
	if maxSpendUSD == "" {
		maxSpendUSD = "0"
	}

	if tokenPriceUSD != "" && tokenPriceUSD != "0" {
		// Both amounts are parsed at the same fixed USD precision so the
		// scale factor cancels out of the ratio exactly.
		const usdPrecision = 8
		maxSpend, err := chain.ParseDecimalAmount(maxSpendUSD, usdPrecision, errInvalidPolicyAmount)
		if err != nil {
			return nil, "", err
		}
		price, err := chain.ParseDecimalAmount(tokenPriceUSD, usdPrecision, errInvalidPolicyAmount)
		if err != nil || price.Sign() == 0 {
			return fallbackSuggestedCap(maxSpendUSD, tokenDecimals)
		}
		// ceil(maxSpend / price) tokens, then scale to the token's
		// smallest unit.
		tokens := new(big.Int)
		remainder := new(big.Int)
		tokens.QuoRem(maxSpend, price, remainder)
		if remainder.Sign() != 0 {
			tokens.Add(tokens, big.NewInt(1))
		}
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(tokenDecimals)), nil)
		cap := new(big.Int).Mul(tokens, scale)
		return cap, chain.FormatDecimalAmount(cap, tokenDecimals), nil
	}

	return fallbackSuggestedCap(maxSpendUSD, tokenDecimals)
}

func fallbackSuggestedCap(maxSpendUSD string, tokenDecimals int) (*big.Int, string, error) {
	base, err := chain.ParseDecimalAmount(maxSpendUSD, tokenDecimals, errInvalidPolicyAmount)
	if err != nil {
		return nil, "", err
	}
	cap := new(big.Int).Mul(base, big.NewInt(10))
	return cap, chain.FormatDecimalAmount(cap, tokenDecimals), nil
}

var errInvalidPolicyAmount = cordonerrors.New(cordonerrors.CodeUnknown, "invalid policy amount")

func containsFold(list []string, target string) bool {
	for _, item := range list {
		if strings.EqualFold(item, target) {
			return true
		}
	}
	return false
}

// ApplyCalldataCap replaces the last 32-byte word of ERC-20 approve
// calldata with cap, preserving the 4-byte selector and the spender word
// exactly.
func ApplyCalldataCap(calldata []byte, cap *big.Int) ([]byte, error) {
	const wordLen = 32
	const headerLen = 4 + wordLen // selector + spender word
	if len(calldata) != headerLen+wordLen {
		return nil, fmt.Errorf("unexpected approve calldata length: %d", len(calldata))
	}

	out := make([]byte, len(calldata))
	copy(out, calldata[:headerLen])

	capBytes := cap.Bytes()
	if len(capBytes) > wordLen {
		return nil, fmt.Errorf("cap exceeds uint256 range")
	}
	copy(out[headerLen+wordLen-len(capBytes):], capBytes)

	return out, nil
}
