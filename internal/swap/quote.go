package swap

import "math/big"

// Quote is the normalized result every route (Jupiter or Pump.fun)
// produces, regardless of which venue filled it.
type Quote struct {
	Route          Route
	InputMint      string
	OutputMint     string
	InAmount       *big.Int
	OutAmount      *big.Int
	MinOut         *big.Int
	PriceImpactPct float64
	RoutePlan      any
	// QuoteResponse is the venue's raw response object, carried downstream
	// byte-identical to what it returned. Rebuilding or re-marshaling it
	// before the build step produces on-chain error 0x1788.
	QuoteResponse any
}

const bpsDenominator = 10_000

// NormalizeQuote computes minOut from outAmount and slippageBps, truncated
// (not rounded) to the output mint's decimals, and returns the normalized
// Quote. raw is carried through to QuoteResponse unmodified.
func NormalizeQuote(route Route, inputMint, outputMint string, inAmount, outAmount *big.Int, slippageBps int, priceImpactPct float64, routePlan, raw any) Quote {
	minOut := applySlippage(outAmount, slippageBps)

	return Quote{
		Route:          route,
		InputMint:      inputMint,
		OutputMint:     outputMint,
		InAmount:       inAmount,
		OutAmount:      outAmount,
		MinOut:         minOut,
		PriceImpactPct: priceImpactPct,
		RoutePlan:      routePlan,
		QuoteResponse:  raw,
	}
}

// applySlippage computes floor(outAmount * (1 - slippageBps/10000)) using
// exact integer arithmetic: outAmount * (10000 - slippageBps) / 10000,
// truncating toward zero rather than rounding.
func applySlippage(outAmount *big.Int, slippageBps int) *big.Int {
	if outAmount == nil {
		return big.NewInt(0)
	}
	numerator := new(big.Int).Mul(outAmount, big.NewInt(int64(bpsDenominator-slippageBps)))
	return numerator.Div(numerator, big.NewInt(bpsDenominator))
}

// IsWrappedSolOutput reports whether outputMint is the canonical
// wrapped-SOL mint, the trigger for the SOL-output build safety rules.
func IsWrappedSolOutput(outputMint string) bool {
	return outputMint == wrappedSolMint
}

// SolOutputBuildParams is the Jupiter swap-build request shape this
// package controls for a wrapped-SOL-output swap. Only the fields the
// SOL-output safety rule governs are modeled here; everything else
// (quoteResponse, userPublicKey, priority fee) passes through untouched.
type SolOutputBuildParams struct {
	QuoteResponse           any
	DestinationTokenAccount string
	FeeAccount              string
	PlatformFeeBps          int
	WrapAndUnwrapSol        bool
}

// ApplySolOutputSafety strips the destination-token-account, fee-account,
// and platform-fee parameters and forces WrapAndUnwrapSol=true whenever the
// quote's output is wrapped SOL. Jupiter rejects (or mis-builds) a
// SOL-output swap that carries a destination token account meant for an
// SPL mint, so these parameters are only ever valid for non-SOL outputs.
func ApplySolOutputSafety(params SolOutputBuildParams, outputMint string) SolOutputBuildParams {
	if !IsWrappedSolOutput(outputMint) {
		return params
	}

	params.DestinationTokenAccount = ""
	params.FeeAccount = ""
	params.PlatformFeeBps = 0
	params.WrapAndUnwrapSol = true
	return params
}
