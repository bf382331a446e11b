package swap_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/cordon/internal/swap"
	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

type fakeJupiter struct {
	quote swap.Quote
	err   error
}

func (f *fakeJupiter) Quote(_ context.Context, _ swap.QuoteRequest) (swap.Quote, error) {
	return f.quote, f.err
}

type fakePump struct {
	onCurve  bool
	curveErr error
	quote    swap.Quote
	quoteErr error
}

func (f *fakePump) Quote(_ context.Context, _ swap.QuoteRequest) (swap.Quote, error) {
	return f.quote, f.quoteErr
}

func (f *fakePump) IsBondingCurve(_ context.Context, _ string) (bool, error) {
	return f.onCurve, f.curveErr
}

func TestSelectRoute_NonPumpMintAlwaysJupiter(t *testing.T) {
	t.Parallel()

	route, err := swap.SelectRoute(context.Background(), &fakePump{onCurve: true}, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	require.NoError(t, err)
	assert.Equal(t, swap.RouteJupiter, route)
}

func TestSelectRoute_PumpMintOnCurve(t *testing.T) {
	t.Parallel()

	route, err := swap.SelectRoute(context.Background(), &fakePump{onCurve: true}, "abc123PUMP")
	require.NoError(t, err)
	assert.Equal(t, swap.RoutePump, route)
}

func TestSelectRoute_PumpMintGraduated(t *testing.T) {
	t.Parallel()

	route, err := swap.SelectRoute(context.Background(), &fakePump{onCurve: false}, "abc123pump")
	require.NoError(t, err)
	assert.Equal(t, swap.RouteJupiter, route)
}

func TestSelectRoute_ProbeFailureFallsBackToJupiter(t *testing.T) {
	t.Parallel()

	route, err := swap.SelectRoute(context.Background(), &fakePump{curveErr: errors.New("pumpportal down")}, "abc123pump")
	require.NoError(t, err)
	assert.Equal(t, swap.RouteJupiter, route)
}

func TestRouteSwap_PumpSuccess(t *testing.T) {
	t.Parallel()

	want := swap.Quote{Route: swap.RoutePump, OutAmount: nil}
	jup := &fakeJupiter{}
	pump := &fakePump{onCurve: true, quote: want}

	got, err := swap.RouteSwap(context.Background(), jup, pump, swap.QuoteRequest{OutputMint: "abcpump"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRouteSwap_PumpGraduatedFallsBackToJupiter(t *testing.T) {
	t.Parallel()

	jupQuote := swap.Quote{Route: swap.RouteJupiter}
	jup := &fakeJupiter{quote: jupQuote}
	pump := &fakePump{onCurve: true, quoteErr: cordonerrors.New(cordonerrors.CodeTokenGraduated, "graduated")}

	got, err := swap.RouteSwap(context.Background(), jup, pump, swap.QuoteRequest{OutputMint: "abcpump"})
	require.NoError(t, err)
	assert.Equal(t, jupQuote, got)
}

func TestRouteSwap_PumpGraduatedAndJupiterFailsSurfacesGraduatedCode(t *testing.T) {
	t.Parallel()

	jup := &fakeJupiter{err: errors.New("jupiter down")}
	pump := &fakePump{onCurve: true, quoteErr: cordonerrors.New(cordonerrors.CodeTokenGraduated, "graduated")}

	_, err := swap.RouteSwap(context.Background(), jup, pump, swap.QuoteRequest{OutputMint: "abcpump"})
	require.Error(t, err)
	assert.Equal(t, cordonerrors.CodeTokenGraduated, cordonerrors.Code(err))
}

func TestRouteSwap_JupiterErrorsNonPumpMintNoFallback(t *testing.T) {
	t.Parallel()

	jupErr := errors.New("no route")
	jup := &fakeJupiter{err: jupErr}
	pump := &fakePump{}

	_, err := swap.RouteSwap(context.Background(), jup, pump, swap.QuoteRequest{OutputMint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"})
	require.Error(t, err)
	assert.Equal(t, jupErr, err)
}

func TestRouteSwap_JupiterErrorsPumpMintFallsBackToPump(t *testing.T) {
	t.Parallel()

	jup := &fakeJupiter{err: errors.New("not routable")}
	want := swap.Quote{Route: swap.RoutePump}
	pump := &fakePump{onCurve: false, quote: want}

	got, err := swap.RouteSwap(context.Background(), jup, pump, swap.QuoteRequest{OutputMint: "abcpump"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
