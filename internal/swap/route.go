package swap

import (
	"context"
	"math/big"
	"strings"

	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// QuoteRequest is the normalized input every venue quotes against.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      *big.Int
	SlippageBps int
}

// JupiterQuoter is the external collaborator that calls Jupiter's quote
// API. RouteSwap does not inspect the error it returns: for a
// Pump-suffixed mint any Jupiter error leads to the Pump.fun fallback.
type JupiterQuoter interface {
	Quote(ctx context.Context, req QuoteRequest) (Quote, error)
}

// PumpQuoter is the external collaborator that calls Pumpportal's
// bonding-curve quote endpoint and reports bonding-curve status.
type PumpQuoter interface {
	Quote(ctx context.Context, req QuoteRequest) (Quote, error)
	// IsBondingCurve reports whether outputMint is still trading on the
	// bonding curve (true) or has graduated to a DEX pool (false).
	IsBondingCurve(ctx context.Context, outputMint string) (bool, error)
}

// isPumpMint reports whether mint carries the case-insensitive "pump"
// suffix Pump.fun mints are minted with.
func isPumpMint(mint string) bool {
	return strings.HasSuffix(strings.ToLower(mint), "pump")
}

// SelectRoute decides which venue a swap should quote against, without
// executing anything: Pump.fun only when the output mint carries the
// "pump" suffix AND a live bonding-curve probe confirms it hasn't
// graduated yet; Jupiter otherwise.
func SelectRoute(ctx context.Context, pump PumpQuoter, outputMint string) (Route, error) {
	if !isPumpMint(outputMint) {
		return RouteJupiter, nil
	}

	onCurve, err := pump.IsBondingCurve(ctx, outputMint)
	if err != nil {
		// A probe failure is not itself routable information; fall back to
		// Jupiter rather than blocking the quote on Pumpportal's health.
		return RouteJupiter, nil //nolint:nilerr
	}
	if onCurve {
		return RoutePump, nil
	}
	return RouteJupiter, nil
}

// RouteSwap quotes req through the selected venue, falling back to the
// other venue on error. Pump.fun is only ever a fallback target for
// pump-suffixed mints, since it has no other mints to quote. A Pump.fun
// quote that reports the token graduated off the bonding curve always
// falls back to Jupiter, with CodeTokenGraduated preserved on the final
// error if that fallback also fails so the caller knows to retry there.
func RouteSwap(ctx context.Context, jupiter JupiterQuoter, pump PumpQuoter, req QuoteRequest) (Quote, error) {
	route, err := SelectRoute(ctx, pump, req.OutputMint)
	if err != nil {
		return Quote{}, err
	}

	if route == RoutePump {
		quote, pumpErr := pump.Quote(ctx, req)
		if pumpErr == nil {
			return quote, nil
		}
		quote, jupErr := jupiter.Quote(ctx, req)
		if jupErr != nil {
			if cordonerrors.Code(pumpErr) == cordonerrors.CodeTokenGraduated {
				return Quote{}, cordonerrors.WithSuggestion(pumpErr, "retry this swap on Jupiter")
			}
			return Quote{}, jupErr
		}
		return quote, nil
	}

	quote, jupErr := jupiter.Quote(ctx, req)
	if jupErr == nil {
		return quote, nil
	}
	if !isPumpMint(req.OutputMint) {
		return Quote{}, jupErr
	}
	pumpQuote, pumpErr := pump.Quote(ctx, req)
	if pumpErr != nil {
		return Quote{}, jupErr
	}
	return pumpQuote, nil
}
