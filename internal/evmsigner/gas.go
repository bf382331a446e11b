package evmsigner

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"

	"github.com/mrz1836/cordon/pkg/cordonerrors"
)

// Fixed gas limits for the three transaction shapes the signer builds
// itself. sendRawTransaction estimates instead when the caller supplies
// no gas limit.
const (
	GasLimitNativeTransfer = 21000
	GasLimitERC20Transfer  = 65000
	GasLimitERC20Approve   = 50000
)

// GasSpeed selects the fee multiplier applied on top of the network's
// suggested tip/price.
type GasSpeed string

// Supported gas speeds.
const (
	GasSpeedSlow   GasSpeed = "slow"
	GasSpeedMedium GasSpeed = "medium"
	GasSpeedFast   GasSpeed = "fast"
)

var speedMultiplier = map[GasSpeed]float64{
	GasSpeedSlow:   0.8,
	GasSpeedMedium: 1.0,
	GasSpeedFast:   1.2,
}

// ParseGasSpeed validates a caller-supplied speed string, defaulting to
// medium when empty.
func ParseGasSpeed(s string) (GasSpeed, error) {
	if s == "" {
		return GasSpeedMedium, nil
	}
	speed := GasSpeed(s)
	if _, ok := speedMultiplier[speed]; !ok {
		return "", cordonerrors.New(cordonerrors.CodeGasError, "unknown gas speed: "+s)
	}
	return speed, nil
}

// GasEstimate is the signer's fee-estimation result. When IsLegacy is true,
// MaxPriorityFeePerGas is zero and callers MUST build a legacy-typed
// transaction rather than an EIP-1559 DynamicFeeTx.
type GasEstimate struct {
	GasLimit             uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	EstimatedFeeNative   *big.Int
	IsLegacy             bool
}

// estimateFees samples EIP-1559 fee data first (base fee + suggested tip);
// if the node doesn't support eth_maxPriorityFeePerGas (pre-London chains,
// some L2 RPCs), it falls back to a legacy gasPrice with zero priority fee.
func estimateFees(ctx context.Context, client RPCClient, speed GasSpeed) (maxFee, maxPriority *big.Int, isLegacy bool, err error) {
	multiplier := speedMultiplier[speed]

	header, headerErr := client.HeaderByNumber(ctx, nil)
	if headerErr == nil && header.BaseFee != nil {
		tip, tipErr := client.SuggestGasTipCap(ctx)
		if tipErr == nil {
			scaledTip := scaleBigInt(tip, multiplier)
			// maxFeePerGas = 2*baseFee + tip, the common headroom heuristic,
			// scaled by the requested speed.
			headroom := new(big.Int).Mul(header.BaseFee, big.NewInt(2))
			fee := scaleBigInt(new(big.Int).Add(headroom, scaledTip), multiplier)
			return fee, scaledTip, false, nil
		}
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, nil, false, cordonerrors.Wrap(cordonerrors.ErrGasError, "sampling gas price: %v", err)
	}
	return scaleBigInt(gasPrice, multiplier), big.NewInt(0), true, nil
}

func scaleBigInt(v *big.Int, multiplier float64) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	f := new(big.Float).SetInt(v)
	f.Mul(f, big.NewFloat(multiplier))
	out, _ := f.Int(nil)
	return out
}

// EstimateNativeGas estimates fees for a native-coin transfer.
func EstimateNativeGas(ctx context.Context, client RPCClient, speed GasSpeed) (*GasEstimate, error) {
	return buildEstimate(ctx, client, speed, GasLimitNativeTransfer)
}

// EstimateERC20Gas estimates fees for an ERC-20 transfer.
func EstimateERC20Gas(ctx context.Context, client RPCClient, speed GasSpeed) (*GasEstimate, error) {
	return buildEstimate(ctx, client, speed, GasLimitERC20Transfer)
}

// EstimateApprovalGas estimates fees for an ERC-20 approve call.
func EstimateApprovalGas(ctx context.Context, client RPCClient, speed GasSpeed) (*GasEstimate, error) {
	return buildEstimate(ctx, client, speed, GasLimitERC20Approve)
}

// EstimateRawGas estimates both the gas limit (via eth_estimateGas against
// msg) and fees for an arbitrary call, used by sendRawTransaction when the
// caller didn't supply a gas limit.
func EstimateRawGas(ctx context.Context, client RPCClient, msg ethereum.CallMsg, speed GasSpeed) (*GasEstimate, error) {
	limit, err := client.EstimateGas(ctx, msg)
	if err != nil {
		return nil, classifyCallError(err)
	}
	return buildEstimate(ctx, client, speed, limit)
}

func buildEstimate(ctx context.Context, client RPCClient, speed GasSpeed, gasLimit uint64) (*GasEstimate, error) {
	maxFee, maxPriority, isLegacy, err := estimateFees(ctx, client, speed)
	if err != nil {
		return nil, err
	}

	fee := new(big.Int).Mul(maxFee, new(big.Int).SetUint64(gasLimit))

	return &GasEstimate{
		GasLimit:             gasLimit,
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: maxPriority,
		EstimatedFeeNative:   fee,
		IsLegacy:             isLegacy,
	}, nil
}

// FormatGasPrice renders a wei amount as a Gwei string with exactly 9
// fractional digits; trailing zeros are kept. A nil amount renders "0".
func FormatGasPrice(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(1e9))
	return f.Text('f', 9)
}
