// Package swap implements Cordon's Solana swap core: Jupiter/Pump.fun
// routing, quote normalization, SOL spendable-balance reservation, and the
// Jito-bundle fan-out broadcast engine with confirmation polling and
// rebroadcast. Every operation depends only on narrow collaborator
// interfaces for quoting, broadcasting, and status polling — this package
// never dials Jupiter, Pump.fun, or an RPC node itself, mirroring the
// RPCClient-interface layering internal/evmsigner uses for EVM calls.
package swap

import "github.com/mrz1836/cordon/pkg/cordonerrors"

// Route names the venue a swap executed through.
type Route string

// Supported swap venues.
const (
	RouteJupiter Route = "jupiter"
	RoutePump    Route = "pump"
)

// SpeedMode selects the priority-fee cap applied to a broadcast, the same
// role GasSpeed plays for EVM sends.
type SpeedMode string

// Supported speed modes.
const (
	SpeedStandard SpeedMode = "standard"
	SpeedFast     SpeedMode = "fast"
	SpeedTurbo    SpeedMode = "turbo"
)

// priorityFeeCapLamports is the maximum priority fee reserved per speed
// mode, in lamports.
var priorityFeeCapLamports = map[SpeedMode]uint64{
	SpeedStandard: 500_000,
	SpeedFast:     2_000_000,
	SpeedTurbo:    5_000_000,
}

// ParseSpeedMode validates a caller-supplied speed string, defaulting to
// standard when empty.
func ParseSpeedMode(s string) (SpeedMode, error) {
	if s == "" {
		return SpeedStandard, nil
	}
	mode := SpeedMode(s)
	if _, ok := priorityFeeCapLamports[mode]; !ok {
		return "", cordonerrors.New(cordonerrors.CodeGasError, "unknown speed mode: "+s)
	}
	return mode, nil
}

// wrappedSolMint is the canonical mint address Jupiter and Pump.fun both
// use to represent native SOL wrapped for SPL-token accounting.
const wrappedSolMint = "So11111111111111111111111111111111111111112"
