package fees

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func calmInputs() Inputs {
	return Inputs{
		Volatility:         sdkmath.LegacyZeroDec(),
		TradingVolume:      sdkmath.LegacyZeroDec(),
		LiquidityDepth:     sdkmath.LegacyNewDec(1000),
		AveragePriceImpact: sdkmath.LegacyZeroDec(),
	}
}

func TestDynamicFeeCalmMarket(t *testing.T) {
	require.Equal(t, BaseFee, DynamicFee(calmInputs()))
}

func TestDynamicFeeExtremeVolatility(t *testing.T) {
	in := calmInputs()
	in.Volatility = sdkmath.LegacyNewDec(1500)
	require.Equal(t, MaxFee, DynamicFee(in))
}

func TestDynamicFeeVolatilityDominatesEverything(t *testing.T) {
	in := Inputs{
		Volatility:         sdkmath.LegacyNewDec(1001),
		TradingVolume:      sdkmath.LegacyNewDec(5000),
		LiquidityDepth:     sdkmath.LegacyNewDec(1),
		AveragePriceImpact: sdkmath.LegacyOneDec(),
	}
	require.Equal(t, MaxFee, DynamicFee(in))
}

func TestDynamicFeeHighVolumeThinDepth(t *testing.T) {
	in := calmInputs()
	in.TradingVolume = sdkmath.LegacyNewDec(2000)
	in.LiquidityDepth = sdkmath.LegacyNewDec(5)
	require.Equal(t, BaseFee+2000, DynamicFee(in))
}

func TestDynamicFeeHighVolume(t *testing.T) {
	in := calmInputs()
	in.TradingVolume = sdkmath.LegacyNewDec(2000)
	require.Equal(t, BaseFee+1000, DynamicFee(in))
}

func TestDynamicFeeHighPriceImpact(t *testing.T) {
	in := calmInputs()
	in.AveragePriceImpact = sdkmath.LegacyNewDecWithPrec(3, 2) // 3%
	require.Equal(t, BaseFee+1500, DynamicFee(in))
}

func TestDynamicFeeLowLiquidityDepth(t *testing.T) {
	in := calmInputs()
	in.LiquidityDepth = sdkmath.LegacyNewDec(100)
	require.Equal(t, BaseFee+500, DynamicFee(in))
}

func TestDynamicFeeThresholdsAreExclusive(t *testing.T) {
	// Signals sitting exactly on a threshold do not trip the branch.
	in := calmInputs()
	in.Volatility = sdkmath.LegacyNewDec(1000)
	in.TradingVolume = sdkmath.LegacyNewDec(1000)
	in.AveragePriceImpact = sdkmath.LegacyNewDecWithPrec(2, 2)
	require.Equal(t, BaseFee, DynamicFee(in))
}

func TestValidBaseFee(t *testing.T) {
	require.True(t, ValidBaseFee(MinFee))
	require.True(t, ValidBaseFee(BaseFee))
	require.True(t, ValidBaseFee(MaxFee))
	require.False(t, ValidBaseFee(MinFee-1))
	require.False(t, ValidBaseFee(MaxFee+1))
}
