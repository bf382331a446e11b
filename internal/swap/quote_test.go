package swap_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/cordon/internal/swap"
)

func TestNormalizeQuote_MinOutTruncates(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"outAmount": "1000000"}
	q := swap.NormalizeQuote(swap.RouteJupiter, "mintA", "mintB", big.NewInt(1_000_000), big.NewInt(1_000_000), 100, 0.5, nil, raw)

	// 1_000_000 * (10000-100)/10000 = 990_000 exactly.
	assert.Equal(t, big.NewInt(990_000), q.MinOut)
	assert.Equal(t, raw, q.QuoteResponse)
}

func TestNormalizeQuote_TruncatesNotRounds(t *testing.T) {
	t.Parallel()

	// 50 * 9950/10000 = 49.75, must floor to 49, not round to 50.
	q := swap.NormalizeQuote(swap.RouteJupiter, "a", "b", big.NewInt(50), big.NewInt(50), 50, 0, nil, nil)
	assert.Equal(t, big.NewInt(49), q.MinOut)
}

func TestIsWrappedSolOutput(t *testing.T) {
	t.Parallel()

	assert.True(t, swap.IsWrappedSolOutput("So11111111111111111111111111111111111111112"))
	assert.False(t, swap.IsWrappedSolOutput("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"))
}

func TestApplySolOutputSafety_StripsParamsForSolOutput(t *testing.T) {
	t.Parallel()

	params := swap.SolOutputBuildParams{
		QuoteResponse:           "raw-quote",
		DestinationTokenAccount: "someAccount",
		FeeAccount:              "someFeeAccount",
		PlatformFeeBps:          50,
		WrapAndUnwrapSol:        false,
	}

	out := swap.ApplySolOutputSafety(params, "So11111111111111111111111111111111111111112")
	assert.Empty(t, out.DestinationTokenAccount)
	assert.Empty(t, out.FeeAccount)
	assert.Zero(t, out.PlatformFeeBps)
	assert.True(t, out.WrapAndUnwrapSol)
	assert.Equal(t, "raw-quote", out.QuoteResponse)
}

func TestApplySolOutputSafety_LeavesNonSolOutputUntouched(t *testing.T) {
	t.Parallel()

	params := swap.SolOutputBuildParams{
		DestinationTokenAccount: "someAccount",
		FeeAccount:              "someFeeAccount",
		PlatformFeeBps:          50,
	}

	out := swap.ApplySolOutputSafety(params, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	assert.Equal(t, params, out)
}
