package utils

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestDecToFloat64(t *testing.T) {
	v, err := DecToFloat64(sdkmath.LegacyNewDecWithPrec(25, 2))
	require.NoError(t, err)
	require.InDelta(t, 0.25, v, 1e-12)
}

func TestDecToFloat64NilDec(t *testing.T) {
	var nilDec sdkmath.LegacyDec
	_, err := DecToFloat64(nilDec)
	require.ErrorIs(t, err, ErrAmountNil)
}

func TestDecToDisplayCollapsesErrors(t *testing.T) {
	var nilDec sdkmath.LegacyDec
	require.Zero(t, DecToDisplay(nilDec))
	require.InDelta(t, 42.0, DecToDisplay(sdkmath.LegacyNewDec(42)), 1e-12)
}

func TestIntToDisplay(t *testing.T) {
	require.InDelta(t, 5000.0, IntToDisplay(sdkmath.NewInt(5000)), 1e-9)
	require.Zero(t, IntToDisplay(sdkmath.Int{}))
}
