package ranges

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestCalculateRangeWidth(t *testing.T) {
	deepPool := sdkmath.LegacyNewDec(1000)

	tests := []struct {
		name       string
		volatility sdkmath.LegacyDec
		depth      sdkmath.LegacyDec
		want       int64
	}{
		{"extreme volatility", sdkmath.LegacyNewDec(1500), deepPool, 60},
		{"just above extreme", sdkmath.LegacyNewDec(1001), deepPool, 60},
		{"empty pool widens regardless", sdkmath.LegacyZeroDec(), sdkmath.LegacyZeroDec(), 60},
		{"high volatility", sdkmath.LegacyNewDec(700), deepPool, 30},
		{"mid volatility", sdkmath.LegacyNewDec(300), deepPool, 20},
		{"calm market", sdkmath.LegacyNewDec(100), deepPool, 5},
		{"zero volatility", sdkmath.LegacyZeroDec(), deepPool, 5},
		{"boundary volatility stays in lower band", sdkmath.LegacyNewDec(200), deepPool, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CalculateRangeWidth(tt.volatility, tt.depth))
		})
	}
}

func TestFloorToSpacing(t *testing.T) {
	require.Equal(t, int64(120), FloorToSpacing(125, 10))
	require.Equal(t, int64(120), FloorToSpacing(120, 10))
	require.Equal(t, int64(0), FloorToSpacing(7, 10))

	// Negative ticks floor toward negative infinity, not toward zero.
	require.Equal(t, int64(-130), FloorToSpacing(-125, 10))
	require.Equal(t, int64(-120), FloorToSpacing(-120, 10))
	require.Equal(t, int64(-10), FloorToSpacing(-1, 10))
}

func TestTargetRange(t *testing.T) {
	// tick=105, width=20, spacing=10: half=10, lower=floor(95)=90,
	// upper=floor(115)+10=120.
	lower, upper := TargetRange(105, 20, 10)
	require.Equal(t, int64(90), lower)
	require.Equal(t, int64(120), upper)
}

func TestTargetRangeOddWidthTruncates(t *testing.T) {
	// width=5: half=2 after truncation.
	lower, upper := TargetRange(100, 5, 10)
	require.Equal(t, int64(90), lower)
	require.Equal(t, int64(110), upper)
}

func TestTargetRangeNegativeTick(t *testing.T) {
	lower, upper := TargetRange(-105, 20, 10)
	require.Equal(t, int64(-120), lower)
	require.Equal(t, int64(-90), upper)
}

func TestTargetRangeNeverEmpty(t *testing.T) {
	lower, upper := TargetRange(0, 0, 60)
	require.Less(t, lower, upper)
}

func TestDrift(t *testing.T) {
	// |110-100| / 50 = 0.2
	require.Equal(t, sdkmath.LegacyNewDecWithPrec(2, 1), Drift(110, 100, 50))
	// Direction does not matter.
	require.Equal(t, sdkmath.LegacyNewDecWithPrec(2, 1), Drift(90, 100, 50))
	require.True(t, Drift(100, 100, 50).IsZero())
}

func TestDriftZeroWidth(t *testing.T) {
	require.True(t, Drift(500, 100, 0).IsZero())
}
