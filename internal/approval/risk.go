package approval

import (
	"sort"
	"strings"
	"time"

	"github.com/mrz1836/cordon/internal/chain"
)

// Risk is the risk level an enriched approval record is classified into.
type Risk int

// Risk levels, ordered low..high so sorting by value orders low first;
// display ordering (high < medium < low) is applied explicitly in
// SortByRisk rather than relying on this numeric order.
const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
)

func (r Risk) String() string {
	switch r {
	case RiskHigh:
		return "high"
	case RiskMedium:
		return "medium"
	default:
		return "low"
	}
}

// highValueTokens is the explicit high-value token set risk scoring
// treats as an aggravating factor for unlimited approvals.
var highValueTokens = map[string]bool{
	"USDC": true, "USDT": true, "DAI": true, "WETH": true,
	"WBTC": true, "WBNB": true, "WMATIC": true, "BUSD": true,
}

// IsHighValueToken reports whether symbol (case-insensitive) names one of
// the explicit high-value tokens.
func IsHighValueToken(symbol string) bool {
	return highValueTokens[strings.ToUpper(symbol)]
}

// staleAfter is the approval age past which it counts as "stale" for risk
// scoring.
const staleAfter = 90 * 24 * time.Hour

// SpenderReputation answers whether a spender address is a known/trusted
// contract on a given chain. It doubles as the "unverified protocol"
// signal: Cordon has no separate protocol-verification collaborator, so
// an unrecognized spender is treated as both "unknown" and "unverified"
// by the same lookup.
type SpenderReputation interface {
	IsKnown(chainID chain.ID, spender string) bool
}

// staticReputation is a fixed known-spender registry seeded with the
// router/aggregator contracts Cordon's supported chains commonly interact
// with. Addresses are lowercase.
type staticReputation struct {
	known map[chain.ID]map[string]bool
}

// NewStaticReputation returns the built-in known-spender registry.
func NewStaticReputation() SpenderReputation {
	return &staticReputation{
		known: map[chain.ID]map[string]bool{
			chain.Ethereum: {
				"0xe592427a0aece92de3edee1f18e0157c05861564": true, // Uniswap V3 router
				"0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45": true, // Uniswap V3 router 2
				"0x1111111254eeb25477b68fb85ed929f73a960582": true, // 1inch V5 router
			},
			chain.Polygon: {
				"0xe592427a0aece92de3edee1f18e0157c05861564": true, // Uniswap V3 router
				"0x1111111254eeb25477b68fb85ed929f73a960582": true, // 1inch V5 router
			},
			chain.BNBChain: {
				"0x10ed43c718714eb63d5aa57b78b54704e256024e": true, // PancakeSwap V2 router
				"0x1111111254eeb25477b68fb85ed929f73a960582": true, // 1inch V5 router
			},
			chain.Arbitrum: {
				"0xe592427a0aece92de3edee1f18e0157c05861564": true, // Uniswap V3 router
				"0x1111111254eeb25477b68fb85ed929f73a960582": true, // 1inch V5 router
			},
		},
	}
}

func (r *staticReputation) IsKnown(chainID chain.ID, spender string) bool {
	byChain, ok := r.known[chainID]
	if !ok {
		return false
	}
	return byChain[strings.ToLower(spender)]
}

// RiskInput is the enriched data ScoreRisk needs, independent of Record's
// on-disk shape so scoring can be exercised without a ledger.
type RiskInput struct {
	IsUnlimited bool
	TokenSymbol string
	ChainID     chain.ID
	Spender     string
	CreatedAt   time.Time
}

// ScoreRisk classifies an enriched approval, checking high, then medium,
// then low, in that precedence.
func ScoreRisk(input RiskInput, reputation SpenderReputation) Risk {
	known := reputation.IsKnown(input.ChainID, input.Spender)
	highValue := IsHighValueToken(input.TokenSymbol)
	stale := !input.CreatedAt.IsZero() && time.Since(input.CreatedAt) > staleAfter

	switch {
	case input.IsUnlimited && (highValue || !known):
		return RiskHigh
	case (input.IsUnlimited && (stale || !known)) || !known:
		return RiskMedium
	default:
		return RiskLow
	}
}

// EnrichedRecord pairs a persisted Record with its computed Risk, for
// display.
type EnrichedRecord struct {
	Record
	Risk Risk
}

// Enrich scores every record in records against reputation, returning
// them unsorted.
func Enrich(records []Record, reputation SpenderReputation) []EnrichedRecord {
	out := make([]EnrichedRecord, 0, len(records))
	for _, rec := range records {
		risk := ScoreRisk(RiskInput{
			IsUnlimited: rec.IsUnlimited,
			TokenSymbol: rec.TokenSymbol,
			ChainID:     rec.ChainID,
			Spender:     rec.Spender,
			CreatedAt:   rec.CreatedAt,
		}, reputation)
		out = append(out, EnrichedRecord{Record: rec, Risk: risk})
	}
	return out
}

// SortByRisk orders records high, medium, then low, stable within each
// tier so ties preserve their input order.
func SortByRisk(records []EnrichedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Risk > records[j].Risk
	})
}
